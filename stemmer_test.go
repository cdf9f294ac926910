package textanalysis

import "testing"

func TestStemmer(t *testing.T) {
	s, ok := newStemmer("en", discardLogger())
	if !ok {
		t.Fatal("no english stemmer")
	}
	words := map[string]string{
		"running": "run",
		"cats":    "cat",
		"sleepy":  "sleepi",
		"RUNNING": "RUNNING",
	}
	for word, want := range words {
		if got, ok := s.Stem(word); !ok || got != want {
			t.Errorf("Stem(%q) = %q, %v; want %q", word, got, ok, want)
		}
	}

	if _, ok := newStemmer("ja", discardLogger()); ok {
		t.Error("newStemmer(ja) found an algorithm")
	}
}

func TestStemmer_Truncates(t *testing.T) {
	saved := maxStemInput
	maxStemInput = 3
	defer func() { maxStemInput = saved }()

	s, _ := newStemmer("en", discardLogger())
	if got, ok := s.Stem("catsuit"); !ok || got != "cat" {
		t.Errorf("Stem(catsuit) = %q, %v; want truncated %q", got, ok, "cat")
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "hello", n: 10, want: "hello"},
		{in: "hello", n: 3, want: "hel"},
		{in: "héllo", n: 2, want: "h"},
		{in: "héllo", n: 3, want: "hé"},
		{in: "日本", n: 1, want: ""},
	}
	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
