package textanalysis

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STOPWORD RESOLUTION
// ═══════════════════════════════════════════════════════════════════════════════
// The stopword set of a text analyzer is built once per config, from up to two
// sources:
//
//	explicit list     "stopwords": [...] in the config, always included
//	stopword root     <root>/<language>/*, every regular file in the directory
//
// ROOT SELECTION:
// ---------------
//  1. stopwordsPath set (even to "")     → load from <stopwordsPath>/<language>
//  2. no stopwords key and no path       → load from <$IRESEARCH_TEXT_STOPWORD_PATH>/<language>,
//     or <cwd>/<language> when the variable is not set
//  3. stopwords key present, no path     → explicit list only, no filesystem access
//
// Relative roots resolve against the working directory. A missing directory is
// an error; the analyzer cannot be built without its stopwords.
//
// FILE FORMAT:
// ------------
// One word per line: the run of non-space bytes at the start of the line.
// Anything after the first space is ignored and lines that start with a space
// are skipped:
//
//	the
//	and        # trailing notes are fine
//	  skipped
// ═══════════════════════════════════════════════════════════════════════════════

// StopwordPathEnv names the default stopword root.
const StopwordPathEnv = "IRESEARCH_TEXT_STOPWORD_PATH"

// StopwordSet is a set of terms excluded from indexing.
type StopwordSet map[string]struct{}

// NewStopwordSet builds a set from words.
func NewStopwordSet(words ...string) StopwordSet {
	set := make(StopwordSet, len(words))
	set.Add(words...)
	return set
}

// Add inserts words into the set.
func (s StopwordSet) Add(words ...string) {
	for _, w := range words {
		s[w] = struct{}{}
	}
}

// Contains reports whether term is a stopword.
func (s StopwordSet) Contains(term []byte) bool {
	_, ok := s[string(term)]
	return ok
}

// Sorted returns the words in the set, sorted.
func (s StopwordSet) Sorted() []string {
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// StopwordResolver turns text analyzer options into a StopwordSet. The zero
// value reads the process environment and working directory.
type StopwordResolver struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
	// Getwd defaults to os.Getwd.
	Getwd func() (string, error)
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	loads atomic.Int64
}

// Loads reports how many stopword directories have been read.
func (r *StopwordResolver) Loads() int64 {
	return r.loads.Load()
}

// Resolve builds the stopword set for opts. language is the resolved
// language subtag of the options' locale.
func (r *StopwordResolver) Resolve(opts TextOptions, language string) (StopwordSet, error) {
	set := NewStopwordSet(opts.Stopwords...)

	switch {
	case opts.StopwordsPath != nil:
		if err := r.loadInto(set, *opts.StopwordsPath, language); err != nil {
			return nil, err
		}
	case !opts.StopwordsSet && len(opts.Stopwords) == 0:
		// Unset and empty both mean the working directory.
		root, _ := r.lookupEnv(StopwordPathEnv)
		if err := r.loadInto(set, root, language); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Dir returns the absolute stopword directory for language under root.
func (r *StopwordResolver) Dir(root, language string) (string, error) {
	if !filepath.IsAbs(root) {
		wd, err := r.getwd()
		if err != nil {
			return "", fmt.Errorf("%w: working directory: %v", ErrStopwords, err)
		}
		root = filepath.Join(wd, root)
	}
	return filepath.Join(root, language), nil
}

func (r *StopwordResolver) loadInto(set StopwordSet, root, language string) error {
	dir, err := r.Dir(root, language)
	if err != nil {
		return err
	}
	words, err := LoadStopwordDir(dir)
	if err != nil {
		r.logger().Error("failed to load stopwords",
			slog.String("path", dir),
			slog.Any("error", err))
		return err
	}
	r.loads.Add(1)
	r.logger().Debug("loaded stopwords",
		slog.String("path", dir),
		slog.Int("words", len(words)))
	set.Add(words...)
	return nil
}

func (r *StopwordResolver) lookupEnv(key string) (string, bool) {
	if r.LookupEnv != nil {
		return r.LookupEnv(key)
	}
	return os.LookupEnv(key)
}

func (r *StopwordResolver) getwd() (string, error) {
	if r.Getwd != nil {
		return r.Getwd()
	}
	return os.Getwd()
}

func (r *StopwordResolver) logger() *slog.Logger {
	return loggerOrDefault(r.Logger)
}

// LoadStopwordDir reads every regular file in dir. Entries that are not
// regular files are skipped.
func LoadStopwordDir(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStopwords, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStopwords, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStopwords, err)
	}

	var words []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStopwords, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		fileWords, err := readStopwordFile(path)
		if err != nil {
			return nil, err
		}
		words = append(words, fileWords...)
	}
	return words, nil
}

func readStopwordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStopwords, err)
	}
	defer f.Close()

	words, err := ReadStopwords(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStopwords, path, err)
	}
	return words, nil
}

// ReadStopwords parses stopwords from r, one per line.
func ReadStopwords(r io.Reader) ([]string, error) {
	var words []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if word := leadingWord(line); word != "" {
			words = append(words, word)
		}
		if errors.Is(err, io.EOF) {
			return words, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// leadingWord returns the non-space prefix of line.
func leadingWord(line string) string {
	i := 0
	for i < len(line) && !isASCIISpace(line[i]) {
		i++
	}
	return line[:i]
}

func isASCIISpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// WriteStopwordFile writes words as <root>/<language>/stopwords.txt, creating
// directories as needed, and returns the file path.
func WriteStopwordFile(root, language string, words []string) (string, error) {
	dir := filepath.Join(root, language)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStopwords, err)
	}

	var b strings.Builder
	for _, w := range words {
		if w == "" || strings.IndexFunc(w, func(r rune) bool { return r < 0x80 && isASCIISpace(byte(r)) }) >= 0 {
			return "", fmt.Errorf("%w: %q cannot be stored as a stopword", ErrStopwords, w)
		}
		b.WriteString(w)
		b.WriteByte('\n')
	}

	path := filepath.Join(dir, "stopwords.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStopwords, err)
	}
	return path, nil
}
