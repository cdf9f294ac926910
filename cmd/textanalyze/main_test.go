package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wizenheimer/textanalysis"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(&out)
	app.Reader = strings.NewReader(stdin)
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"textanalyze", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestTokensCommand(t *testing.T) {
	out, err := run(t, "", "tokens", "--type", "delimiter", "--format", "text", "--config", ",", `a,"b,c"`)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"term":"a","start":0,"end":1,"inc":1,"payload":"a"}` + "\n" +
		`{"term":"b,c","start":2,"end":7,"inc":1,"payload":"\"b,c\""}` + "\n"
	if out != want {
		t.Errorf("output\n got %s\nwant %s", out, want)
	}
}

func TestTokensCommand_Stdin(t *testing.T) {
	out, err := run(t, "running", "tokens", "--type", "stem", "--config", `"en"`, "-")
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"term":"run","start":0,"end":7,"inc":1,"payload":"running"}` + "\n"; out != want {
		t.Errorf("output\n got %s\nwant %s", out, want)
	}
}

func TestTokensCommand_Errors(t *testing.T) {
	if _, err := run(t, "", "tokens", "--type", "soundex", "x"); !errors.Is(err, textanalysis.ErrUnknownAnalyzer) {
		t.Errorf("unknown kind error = %v", err)
	}
	if _, err := run(t, "", "tokens", "--type", "stem", "--format", "yaml", "x"); !errors.Is(err, textanalysis.ErrUnsupportedFormat) {
		t.Errorf("bad format error = %v", err)
	}
	if _, err := run(t, "", "tokens", "--type", "stem", "--format", "text", "--config", "en", string([]byte{0xff})); !errors.Is(err, textanalysis.ErrResetFailed) {
		t.Errorf("invalid input error = %v", err)
	}
}

func TestNormalizeCommand(t *testing.T) {
	out, err := run(t, "", "normalize", "--type", "ngram", "--config", `{"preserveOriginal":false,"min":2,"max":1}`)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"min":2,"max":2,"preserveOriginal":false}` + "\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestIndexCommand(t *testing.T) {
	dir := t.TempDir()
	config := writeConfig(t, `
[analyzers.words]
type = "delimiter"
format = "text"
args = " "
`)
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("go fast"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("go slow"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "index.bin")

	out, err := run(t, "", "-C", config, "index", "--analyzer", "words", "--output", output, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("fast\t1\ngo\t2\nslow\t1\n", out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	idx := textanalysis.NewInvertedIndex(nil)
	if err := idx.Decode(data); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if idx.TotalDocs != 2 || idx.DocFreq("go") != 2 {
		t.Errorf("decoded index: %d docs, DocFreq(go) = %d", idx.TotalDocs, idx.DocFreq("go"))
	}

	if _, err := run(t, "", "-C", config, "index", "--analyzer", "missing", a); !errors.Is(err, textanalysis.ErrUnknownAnalyzer) {
		t.Errorf("missing analyzer error = %v", err)
	}
}

func TestStopwordsExportCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "", "stopwords", "export", "--dir", dir)
	if err != nil {
		t.Fatal(err)
	}
	path := strings.TrimSpace(out)
	if want := filepath.Join(dir, "en", "stopwords.txt"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	words, err := textanalysis.LoadStopwordDir(filepath.Join(dir, "en"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(textanalysis.EnglishStopwords(), words); diff != "" {
		t.Errorf("exported words mismatch (-want +got):\n%s", diff)
	}

	// The exported directory feeds the text analyzer's default stopwords.
	out, err = run(t, "", "tokens", "--type", "text", "--config", `{"locale":"en","stopwordsPath":"`+dir+`"}`, "the fox")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"term":"fox"`) || strings.Contains(out, `"term":"the"`) {
		t.Errorf("stopwords not applied:\n%s", out)
	}

	if _, err := run(t, "", "stopwords", "export", "--dir", dir, "--lang", "de"); !errors.Is(err, textanalysis.ErrStopwords) {
		t.Errorf("unsupported language error = %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != Version+"\n" {
		t.Errorf("output = %q", out)
	}
}
