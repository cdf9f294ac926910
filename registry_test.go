package textanalysis

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	root := t.TempDir()
	writeStopwords(t, root, "en", "list", "the\n")
	return NewRegistry(NewResourceCache(testResolver(root, root), discardLogger()), discardLogger())
}

func TestRegistry_Kinds(t *testing.T) {
	r := newTestRegistry(t)
	want := []string{KindDelimiter, KindIdentity, KindNGram, KindStem, KindText}
	if diff := cmp.Diff(want, r.Kinds()); diff != "" {
		t.Errorf("Kinds() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_Get(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		kind   string
		format Format
		args   string
		input  string
		want   []string
	}{
		{kind: KindDelimiter, format: FormatText, args: ",", input: "a,b", want: []string{"a", "b"}},
		{kind: KindDelimiter, format: FormatJSON, args: `{"delimiter":";"}`, input: "a;b", want: []string{"a", "b"}},
		{kind: KindStem, format: FormatJSON, args: `"en"`, input: "running", want: []string{"run"}},
		{kind: KindText, format: FormatText, args: "en", input: "the cats", want: []string{"cat"}},
		{kind: KindNGram, format: FormatJSON, args: `{"min":2,"max":2,"preserveOriginal":false}`, input: "abc", want: []string{"ab", "bc"}},
		{kind: KindIdentity, format: FormatJSON, args: `{}`, input: "a b", want: []string{"a b"}},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+string(tt.format), func(t *testing.T) {
			ts, err := r.Get(tt.kind, tt.format, tt.args)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if ts.Kind() != tt.kind {
				t.Errorf("Kind() = %q, want %q", ts.Kind(), tt.kind)
			}
			if diff := cmp.Diff(tt.want, terms(collect(t, ts, tt.input))); diff != "" {
				t.Errorf("terms mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegistry_FactoriesKeepFormat(t *testing.T) {
	r := newTestRegistry(t)

	// The same args read differently per format.
	tests := []struct {
		format Format
		want   string
	}{
		{format: FormatJSON, want: ";"},
		{format: FormatText, want: `";"`},
	}
	for _, tt := range tests {
		ts, err := r.Get(KindDelimiter, tt.format, `";"`)
		if err != nil {
			t.Fatalf("Get(%s): %v", tt.format, err)
		}
		if got := string(ts.(*DelimitedAnalyzer).Delimiter()); got != tt.want {
			t.Errorf("Get(%s) delimiter = %q, want %q", tt.format, got, tt.want)
		}
	}

	for _, kind := range []string{KindStem, KindText} {
		if _, err := r.Get(kind, FormatJSON, `"en"`); err != nil {
			t.Errorf("Get(%s, json): %v", kind, err)
		}
		if _, err := r.Get(kind, FormatText, `"en"`); err == nil {
			t.Errorf("Get(%s, text) accepted a quoted locale", kind)
		}
	}
}

func TestRegistry_GetErrors(t *testing.T) {
	r := newTestRegistry(t)

	if _, err := r.Get("soundex", FormatJSON, "{}"); !errors.Is(err, ErrUnknownAnalyzer) {
		t.Errorf("unknown kind error = %v", err)
	}
	if _, err := r.Get(KindNGram, FormatText, "2"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ngram text error = %v", err)
	}

	ts, err := r.Get(KindStem, FormatJSON, `{"locale":5}`)
	if !errors.Is(err, ErrMissingParameter) {
		t.Errorf("bad stem config error = %v", err)
	}
	if ts != nil {
		t.Errorf("failed Get returned %#v, want nil interface", ts)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.Register(KindDelimiter, FormatText, nil); err == nil {
		t.Error("duplicate registration succeeded")
	}

	err := r.Register("upper", FormatText, func(string) (TokenStream, error) {
		return NewIdentityAnalyzer(), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get("upper", FormatText, ""); err != nil {
		t.Errorf("Get(upper): %v", err)
	}
}

func TestRegistry_Normalize(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		kind   string
		format Format
		args   string
		want   string
	}{
		{kind: KindDelimiter, format: FormatJSON, args: `","`, want: `{"delimiter":","}`},
		{kind: KindDelimiter, format: FormatJSON, args: `{ "delimiter" : "|" }`, want: `{"delimiter":"|"}`},
		{kind: KindStem, format: FormatJSON, args: `"en"`, want: `{"locale":"en"}`},
		{kind: KindText, format: FormatJSON, args: `{"stopwords":["b","a"],"locale":"en"}`,
			want: `{"locale":"en","caseConvert":"none","stopwords":["a","b"],"noAccent":false,"noStem":false}`},
		{kind: KindNGram, format: FormatJSON, args: `{"preserveOriginal":true,"max":1,"min":2}`,
			want: `{"min":2,"max":2,"preserveOriginal":true}`},
	}

	for _, tt := range tests {
		got, err := r.Normalize(tt.kind, tt.format, tt.args)
		if err != nil {
			t.Errorf("Normalize(%s, %s): %v", tt.kind, tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%s, %s)\n got %s\nwant %s", tt.kind, tt.args, got, tt.want)
		}
	}
}

func TestRegistry_TextSharesCache(t *testing.T) {
	r := newTestRegistry(t)

	for i := 0; i < 3; i++ {
		if _, err := r.Get(KindText, FormatJSON, `{"locale":"en"}`); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.Cache().Len(); got != 1 {
		t.Errorf("Cache().Len() = %d, want 1", got)
	}
	if got := r.Cache().Resolver().Loads(); got != 1 {
		t.Errorf("stopword loads = %d, want 1", got)
	}
}
