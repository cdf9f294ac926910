package textanalysis

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStemmingAnalyzer_Stem(t *testing.T) {
	tests := []struct {
		locale string
		input  string
		want   string
	}{
		{locale: "en", input: "running", want: "run"},
		{locale: "en_US.UTF-8", input: "jumps", want: "jump"},
		{locale: "en", input: "foxes", want: "fox"},
		{locale: "en", input: "lazy", want: "lazi"},
		{locale: "en", input: "CAFE", want: "CAFE"},
		{locale: "en", input: "", want: ""},
		{locale: "ja", input: "走る", want: "走る"},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.input, func(t *testing.T) {
			a, err := NewStemmingAnalyzer(tt.locale, discardLogger())
			if err != nil {
				t.Fatalf("NewStemmingAnalyzer(%q): %v", tt.locale, err)
			}
			got := collect(t, a, tt.input)
			want := []emitted{{
				Term:    tt.want,
				Start:   0,
				End:     uint32(len(tt.input)),
				Inc:     1,
				Payload: tt.input,
			}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStemmingAnalyzer_InvalidUTF8(t *testing.T) {
	a, err := NewStemmingAnalyzer("en", discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if a.Reset([]byte{'r', 0xff, 'n'}) {
		t.Fatal("Reset(invalid UTF-8) = true, want false")
	}
	if a.Next() {
		t.Error("Next() after failed Reset = true, want false")
	}

	// The instance recovers on the next valid input.
	if diff := cmp.Diff([]string{"run"}, terms(collect(t, a, "runs"))); diff != "" {
		t.Errorf("after recovery (-want +got):\n%s", diff)
	}
}

func TestStemmingAnalyzer_Locale(t *testing.T) {
	a, err := NewStemmingAnalyzer("de_DE.UTF-8", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	loc := a.Locale()
	if loc.Name != "de_DE.UTF-8" || loc.Language != "de" || loc.Region != "DE" {
		t.Errorf("Locale() = %+v", loc)
	}

	if _, err := NewStemmingAnalyzer("", discardLogger()); !errors.Is(err, ErrInvalidLocale) {
		t.Errorf("empty locale error = %v, want ErrInvalidLocale", err)
	}
	if _, err := NewStemmingAnalyzer("en_US.ISO-8859-1", discardLogger()); !errors.Is(err, ErrInvalidLocale) {
		t.Errorf("non UTF-8 locale error = %v, want ErrInvalidLocale", err)
	}
}

func TestNewStemmingAnalyzerFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		args    string
		want    string
		wantErr error
	}{
		{name: "json string", format: FormatJSON, args: `"en"`, want: "en"},
		{name: "json object", format: FormatJSON, args: `{"locale":"ru_RU"}`, want: "ru_RU"},
		{name: "text", format: FormatText, args: "en_GB", want: "en_GB"},
		{name: "missing locale", format: FormatJSON, args: `{"lang":"en"}`, wantErr: ErrMissingParameter},
		{name: "locale not a string", format: FormatJSON, args: `{"locale":5}`, wantErr: ErrMissingParameter},
		{name: "array", format: FormatJSON, args: `["en"]`, wantErr: ErrMissingParameter},
		{name: "malformed", format: FormatJSON, args: `{"locale"`, wantErr: ErrInvalidConfig},
		{name: "bad locale", format: FormatJSON, args: `"!!"`, wantErr: ErrInvalidLocale},
		{name: "bad text locale", format: FormatText, args: "", wantErr: ErrInvalidLocale},
		{name: "unknown format", format: Format("yaml"), args: "en", wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewStemmingAnalyzerFromConfig(tt.format, tt.args, discardLogger())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := a.Locale().Name; got != tt.want {
				t.Errorf("locale = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStemmingAnalyzer_Serialize(t *testing.T) {
	a, err := NewStemmingAnalyzer("en_US", discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if got, ok := a.Serialize(FormatJSON); !ok || got != `{"locale":"en_US"}` {
		t.Errorf("Serialize(json) = %q, %v", got, ok)
	}
	if got, ok := a.Serialize(FormatText); !ok || got != "en_US" {
		t.Errorf("Serialize(text) = %q, %v", got, ok)
	}

	for _, format := range []Format{FormatJSON, FormatText} {
		args, _ := a.Serialize(format)
		back, err := NewStemmingAnalyzerFromConfig(format, args, discardLogger())
		if err != nil {
			t.Fatalf("round trip %s: %v", format, err)
		}
		if diff := cmp.Diff(terms(collect(t, a, "connected")), terms(collect(t, back, "connected"))); diff != "" {
			t.Errorf("round trip %s changed behavior (-want +got):\n%s", format, diff)
		}
	}
}
