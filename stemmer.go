package textanalysis

import (
	"log/slog"
	"math"
	"unicode/utf8"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/arabic"
	"github.com/blevesearch/snowballstem/danish"
	"github.com/blevesearch/snowballstem/dutch"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/finnish"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/hungarian"
	"github.com/blevesearch/snowballstem/irish"
	"github.com/blevesearch/snowballstem/italian"
	"github.com/blevesearch/snowballstem/norwegian"
	"github.com/blevesearch/snowballstem/portuguese"
	"github.com/blevesearch/snowballstem/romanian"
	"github.com/blevesearch/snowballstem/russian"
	"github.com/blevesearch/snowballstem/spanish"
	"github.com/blevesearch/snowballstem/swedish"
	"github.com/blevesearch/snowballstem/tamil"
	"github.com/blevesearch/snowballstem/turkish"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STEMMING
// ═══════════════════════════════════════════════════════════════════════════════
// Stemming reduces a word to its root form with the Snowball algorithm of the
// word's language:
//
//	"running", "runs" → "run"
//	"connection", "connected" → "connect"
//
// The algorithms are case sensitive and never change the case of their input,
// so "RUNNING" is left alone. Languages without an algorithm simply have no
// stemmer and terms pass through unstemmed.
// ═══════════════════════════════════════════════════════════════════════════════

// stemAlgorithms maps ISO 639-1 language subtags to Snowball algorithms.
var stemAlgorithms = map[string]func(*snowballstem.Env) bool{
	"ar": arabic.Stem,
	"da": danish.Stem,
	"de": german.Stem,
	"en": english.Stem,
	"es": spanish.Stem,
	"fi": finnish.Stem,
	"fr": french.Stem,
	"ga": irish.Stem,
	"hu": hungarian.Stem,
	"it": italian.Stem,
	"nb": norwegian.Stem,
	"nl": dutch.Stem,
	"nn": norwegian.Stem,
	"no": norwegian.Stem,
	"pt": portuguese.Stem,
	"ro": romanian.Stem,
	"ru": russian.Stem,
	"sv": swedish.Stem,
	"ta": tamil.Stem,
	"tr": turkish.Stem,
}

// maxStemInput is the longest word handed to a stemmer; longer words are
// truncated.
var maxStemInput = math.MaxInt32

// stemmer is a per-instance Snowball stemmer. The Env is reused across words.
type stemmer struct {
	language string
	stem     func(*snowballstem.Env) bool
	env      *snowballstem.Env
	logger   *slog.Logger
}

// newStemmer returns the stemmer for a language subtag, or false when the
// language has no algorithm.
func newStemmer(lang string, logger *slog.Logger) (*stemmer, bool) {
	stem, ok := stemAlgorithms[lang]
	if !ok {
		return nil, false
	}
	return &stemmer{
		language: lang,
		stem:     stem,
		env:      snowballstem.NewEnv(""),
		logger:   loggerOrDefault(logger),
	}, true
}

// Stem returns the stem of word. ok is false when the algorithm failed, in
// which case the caller keeps its unstemmed value.
func (s *stemmer) Stem(word string) (stemmed string, ok bool) {
	if len(word) > maxStemInput {
		s.logger.Warn("token longer than stemmer maximum, truncating",
			slog.String("language", s.language),
			slog.Int("size", len(word)),
			slog.Int("max", maxStemInput))
		word = truncateUTF8(word, maxStemInput)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("stemmer failed",
				slog.String("language", s.language),
				slog.Any("panic", r))
			stemmed, ok = "", false
		}
	}()

	s.env.SetCurrent(word)
	s.stem(s.env)
	return s.env.Current(), true
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
