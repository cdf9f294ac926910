package textanalysis

import (
	"fmt"
	"log/slog"
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/segment"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ═══════════════════════════════════════════════════════════════════════════════
// TEXT ANALYZER
// ═══════════════════════════════════════════════════════════════════════════════
// The full linguistic pipeline. The input is split into words at Unicode word
// boundaries (UAX #29) and every word goes through:
//
//	Step 1: NFC normalization   "Cafe\u0301" → "Café"
//	Step 2: case conversion     "Café"       → "CAFÉ"    (caseConvert=upper)
//	Step 3: accent removal      "CAFÉ"       → "CAFE"    (noAccent=true)
//	Step 4: stopword check      "THE"        → dropped   (if "THE" is a stopword)
//	Step 5: stemming            "running"    → "run"     (unless noStem)
//
// Spans that are not words (spaces, punctuation) never become tokens. Neither
// do stopwords: Next keeps scanning until it finds a word that survives.
//
// EXAMPLE (locale "en", caseConvert "lower", stopwords ["the"]):
// --------------------------------------------------------------
//
//	"The quick foxes"
//	  → term "quick" offsets [4, 9)
//	  → term "fox"   offsets [10, 15)
//
// Offsets and payload always refer to the raw input span, not the transformed
// term.
//
// LIFECYCLE:
// ----------
//
//	Uninitialized ──Reset──▶ Ready ──Next──▶ Scanning ──end of input──▶ Exhausted
//	                           ▲                                           │
//	                           └────────────────Reset──────────────────────┘
//
// The first Reset builds the per-instance resources (case mapper, accent
// filter, word breaker, stemmer); later resets reuse them. The compiled config
// (options + stopwords) comes from the ResourceCache and is shared.
// ═══════════════════════════════════════════════════════════════════════════════

type textState int

const (
	textUninitialized textState = iota
	textReady
	textScanning
	textExhausted
)

func (s textState) String() string {
	switch s {
	case textUninitialized:
		return "uninitialized"
	case textReady:
		return "ready"
	case textScanning:
		return "scanning"
	case textExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("textState(%d)", int(s))
}

// maxTextInput is the longest input a TextAnalyzer accepts.
const maxTextInput = math.MaxInt32

// textResources are the per-instance linguistic resources.
type textResources struct {
	normalizer norm.Form
	caser      transform.Transformer // nil for caseConvert=none
	accents    transform.Transformer // nil unless noAccent
	breaker    *wordBreaker
	stemmer    *stemmer // nil when disabled or unavailable
}

// buildTextResources is swapped out in tests to simulate resource failures.
var buildTextResources = newTextResources

func newTextResources(cfg *CompiledTextConfig, logger *slog.Logger) (*textResources, error) {
	opts := cfg.options
	res := &textResources{
		normalizer: norm.NFC,
		breaker:    &wordBreaker{},
	}

	switch opts.CaseConvert {
	case CaseNone:
	case CaseLower:
		res.caser = cases.Lower(cfg.locale.Tag)
	case CaseUpper:
		res.caser = cases.Upper(cfg.locale.Tag)
	default:
		return nil, fmt.Errorf("%w: %s", ErrResourceUnavailable, opts.CaseConvert)
	}

	if opts.NoAccent {
		res.accents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	}

	if !opts.NoStem {
		// Not every language has a stemmer; terms then pass through unstemmed.
		res.stemmer, _ = newStemmer(cfg.locale.Language, logger)
	}
	return res, nil
}

// wordBreaker walks the UAX #29 word boundaries of a buffer.
type wordBreaker struct {
	data []byte
	pos  int
}

func (b *wordBreaker) reset(data []byte) {
	b.data = data
	b.pos = 0
}

// next returns the next segment [start, end) and its segment type. ok is false
// once the input is consumed.
func (b *wordBreaker) next() (start, end, typ int, ok bool, err error) {
	if b.pos >= len(b.data) {
		return 0, 0, 0, false, nil
	}
	advance, tok, typ, err := segment.SegmentWords(b.data[b.pos:], true)
	if err != nil {
		return 0, 0, 0, false, err
	}
	if advance <= 0 {
		return 0, 0, 0, false, nil
	}
	start = b.pos
	end = start + len(tok)
	b.pos += advance
	return start, end, typ, true, nil
}

// TextAnalyzer is the linguistic analyzer.
type TextAnalyzer struct {
	config   *CompiledTextConfig
	logger   *slog.Logger
	maxInput int

	state textState
	res   *textResources
	data  []byte

	normBuf   []byte
	caseBuf   []byte
	accentBuf []byte
	termBuf   []byte
	token     Token
}

var _ TokenStream = (*TextAnalyzer)(nil)

// NewTextAnalyzer creates a text analyzer over a compiled config. No
// resources are built until the first Reset.
func NewTextAnalyzer(config *CompiledTextConfig, logger *slog.Logger) *TextAnalyzer {
	a := &TextAnalyzer{
		config:   config,
		logger:   loggerOrDefault(logger),
		maxInput: maxTextInput,
	}
	a.token.Increment = 1
	return a
}

// NewTextAnalyzerFromConfig builds a text analyzer, taking the compiled config
// from cache. A nil cache compiles the config without sharing it.
func NewTextAnalyzerFromConfig(cache *ResourceCache, format Format, args string, logger *slog.Logger) (a *TextAnalyzer, err error) {
	logger = loggerOrDefault(logger)
	defer func() {
		if err != nil {
			logger.Warn("failed to construct text analyzer",
				slog.String("format", string(format)),
				slog.String("args", args),
				slog.Any("error", err))
		}
	}()
	defer recoverTo(&err, KindText)

	var cfg *CompiledTextConfig
	if cache != nil {
		cfg, err = cache.Get(format, args)
	} else {
		cfg, err = CompileTextConfig(format, args, &StopwordResolver{Logger: logger})
	}
	if err != nil {
		return nil, err
	}
	return NewTextAnalyzer(cfg, logger), nil
}

// Kind implements TokenStream.
func (a *TextAnalyzer) Kind() string { return KindText }

// Token implements TokenStream.
func (a *TextAnalyzer) Token() *Token { return &a.token }

// Config returns the shared compiled config.
func (a *TextAnalyzer) Config() *CompiledTextConfig { return a.config }

// Reset implements TokenStream. It fails when the per-instance resources
// cannot be built, when data is not valid UTF-8 or when data is too long.
func (a *TextAnalyzer) Reset(data []byte) bool {
	ok := guard(a.logger, KindText, "reset", func() bool {
		return a.reset(data)
	})
	if !ok {
		a.data = nil
		if a.res != nil {
			a.res.breaker.reset(nil)
			a.state = textExhausted
		}
	}
	return ok
}

func (a *TextAnalyzer) reset(data []byte) bool {
	if err := a.ensureInitialized(); err != nil {
		a.logger.Error("failed to build text analyzer resources",
			slog.String("locale", a.config.locale.Name),
			slog.Any("error", err))
		return false
	}

	if !utf8.Valid(data) {
		a.logger.Error("failed to parse UTF-8 value from text",
			slog.String("locale", a.config.locale.Name),
			slog.Int("size", len(data)))
		return false
	}
	if len(data) > a.maxInput {
		a.logger.Error("text exceeds maximum input length",
			slog.String("locale", a.config.locale.Name),
			slog.Int("size", len(data)),
			slog.Int("max", a.maxInput))
		return false
	}

	a.data = data
	a.res.breaker.reset(data)
	a.state = textReady
	return true
}

// ensureInitialized builds the per-instance resources once.
func (a *TextAnalyzer) ensureInitialized() error {
	if a.res != nil {
		return nil
	}
	res, err := buildTextResources(a.config, a.logger)
	if err != nil {
		return err
	}
	a.res = res
	return nil
}

// Next implements TokenStream.
func (a *TextAnalyzer) Next() bool {
	if a.state != textReady && a.state != textScanning {
		return false
	}
	ok := guard(a.logger, KindText, "next", a.next)
	if !ok {
		a.state = textExhausted
	}
	return ok
}

func (a *TextAnalyzer) next() bool {
	a.state = textScanning
	for {
		start, end, typ, ok, err := a.res.breaker.next()
		if err != nil {
			a.logger.Warn("word segmentation failed",
				slog.String("locale", a.config.locale.Name),
				slog.Any("error", err))
			return false
		}
		if !ok {
			return false
		}
		if typ == segment.None {
			continue
		}

		span := a.data[start:end]
		if !a.processTerm(span) {
			continue
		}

		a.token.Start = uint32(start)
		a.token.End = uint32(end)
		a.token.Payload = span
		return true
	}
}

// processTerm runs one word through the pipeline into the token term. It
// returns false for stopwords.
func (a *TextAnalyzer) processTerm(span []byte) bool {
	a.normBuf = a.res.normalizer.Append(a.normBuf[:0], span...)
	word := a.normBuf

	if a.res.caser != nil {
		out, _, err := transform.Append(a.res.caser, a.caseBuf[:0], word)
		if err == nil {
			a.caseBuf = out
			word = out
		}
	}

	if a.res.accents != nil {
		out, _, err := transform.Append(a.res.accents, a.accentBuf[:0], word)
		if err == nil {
			a.accentBuf = out
			word = out
		}
	}

	if a.config.stopwords.Contains(word) {
		return false
	}

	if a.res.stemmer != nil {
		if stemmed, ok := a.res.stemmer.Stem(string(word)); ok {
			a.termBuf = append(a.termBuf[:0], stemmed...)
			a.token.Term = a.termBuf
			return true
		}
	}

	a.termBuf = setBytes(a.termBuf, word)
	a.token.Term = a.termBuf
	return true
}

// Serialize implements TokenStream.
func (a *TextAnalyzer) Serialize(format Format) (string, bool) {
	return a.config.options.Serialize(format)
}
