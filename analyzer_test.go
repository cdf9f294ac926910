package textanalysis

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

// emitted is a copy of one token, safe to keep after Next.
type emitted struct {
	Term    string
	Start   uint32
	End     uint32
	Inc     uint32
	Payload string
}

// collect resets ts with input and drains it.
func collect(t *testing.T, ts TokenStream, input string) []emitted {
	t.Helper()
	if !ts.Reset([]byte(input)) {
		t.Fatalf("Reset(%q) = false, want true", input)
	}
	var out []emitted
	for ts.Next() {
		tok := ts.Token()
		out = append(out, emitted{
			Term:    string(tok.Term),
			Start:   tok.Start,
			End:     tok.End,
			Inc:     tok.Increment,
			Payload: string(tok.Payload),
		})
	}
	return out
}

func terms(tokens []emitted) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Term
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ═══════════════════════════════════════════════════════════════════════════════
// CONTRACT TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "text"} {
		f, err := ParseFormat(name)
		if err != nil || string(f) != name {
			t.Errorf("ParseFormat(%q) = %q, %v", name, f, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(xml) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestTokenStream_NextAfterExhaustion(t *testing.T) {
	stem, err := NewStemmingAnalyzer("en", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	streams := []TokenStream{
		NewDelimitedAnalyzer([]byte(",")),
		stem,
		NewNGramAnalyzer(NGramOptions{Min: 1, Max: 2}),
		NewIdentityAnalyzer(),
	}

	for _, ts := range streams {
		t.Run(ts.Kind(), func(t *testing.T) {
			if ts.Next() {
				t.Fatal("Next() before any Reset = true, want false")
			}
			collect(t, ts, "ab,cd")
			last := *ts.Token()
			for i := 0; i < 3; i++ {
				if ts.Next() {
					t.Fatalf("Next() after exhaustion = true (call %d)", i)
				}
			}
			if got := *ts.Token(); string(got.Term) != string(last.Term) || got.Start != last.Start || got.End != last.End {
				t.Errorf("Token changed after exhaustion: %+v, want %+v", got, last)
			}
			if len(collect(t, ts, "ab,cd")) == 0 {
				t.Error("no tokens after a second Reset")
			}
		})
	}
}

func TestGuard_RecoversPanic(t *testing.T) {
	ok := guard(discardLogger(), "test", "reset", func() bool {
		panic("boom")
	})
	if ok {
		t.Error("guard() = true after panic, want false")
	}
}

func TestRecoverTo(t *testing.T) {
	build := func() (err error) {
		defer recoverTo(&err, "test")
		panic("boom")
	}
	if err := build(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("recoverTo error = %v, want ErrInvalidConfig", err)
	}
}
