package textanalysis

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/wizenheimer/textanalysis/internal/jsonx"
)

// ═══════════════════════════════════════════════════════════════════════════════
// N-GRAM ANALYZER
// ═══════════════════════════════════════════════════════════════════════════════
// Emits every character n-gram of the input with min <= n <= max. For each
// start position, longer grams come first:
//
//	min=1 max=2 "abc" → "ab" "a" "bc" "b" "c"
//
// With preserveOriginal, an input longer than max characters is also emitted
// whole, last, with position increment 0 (same position as the first gram):
//
//	min=1 max=2 preserveOriginal "abc" → "ab" "a" "bc" "b" "c" "abc"
//
// Lengths count runes; a gram never splits a UTF-8 sequence. Offsets are bytes.
// ═══════════════════════════════════════════════════════════════════════════════

const (
	minGramParam          = "min"
	maxGramParam          = "max"
	preserveOriginalParam = "preserveOriginal"
)

// NGramOptions configures an NGramAnalyzer.
type NGramOptions struct {
	Min              uint64 `json:"min"`
	Max              uint64 `json:"max"`
	PreserveOriginal bool   `json:"preserveOriginal"`
}

// normalize raises Min to 1 and Max to Min.
func (o NGramOptions) normalize() NGramOptions {
	if o.Min < 1 {
		o.Min = 1
	}
	if o.Max < o.Min {
		o.Max = o.Min
	}
	return o
}

// NGramAnalyzer emits sliding character n-grams.
type NGramAnalyzer struct {
	opts NGramOptions

	data         []byte
	bounds       []int // byte offset of every rune start, plus len(data)
	start        int   // rune index of the current start position
	length       int   // rune length of the next gram at start
	emitOriginal bool
	done         bool
	token        Token
}

var _ TokenStream = (*NGramAnalyzer)(nil)

// NewNGramAnalyzer creates an n-gram analyzer. Min and Max are adjusted as
// described on NGramOptions.normalize.
func NewNGramAnalyzer(opts NGramOptions) *NGramAnalyzer {
	return &NGramAnalyzer{
		opts: opts.normalize(),
		done: true,
	}
}

// Kind implements TokenStream.
func (a *NGramAnalyzer) Kind() string { return KindNGram }

// Token implements TokenStream.
func (a *NGramAnalyzer) Token() *Token { return &a.token }

// Options returns the adjusted options.
func (a *NGramAnalyzer) Options() NGramOptions { return a.opts }

// Reset implements TokenStream. It fails only for inputs too long to address.
func (a *NGramAnalyzer) Reset(data []byte) bool {
	if uint64(len(data)) > maxOffset {
		a.done = true
		return false
	}

	a.data = data
	a.bounds = a.bounds[:0]
	for i := 0; i < len(data); {
		a.bounds = append(a.bounds, i)
		_, size := utf8.DecodeRune(data[i:])
		i += size
	}
	a.bounds = append(a.bounds, len(data))

	runes := uint64(len(a.bounds) - 1)
	a.start = 0
	a.length = a.gramLength(0)
	a.emitOriginal = a.opts.PreserveOriginal && runes > a.opts.Max
	a.done = false
	return true
}

// gramLength returns the longest gram length at rune index start, or 0 when
// fewer than Min runes remain.
func (a *NGramAnalyzer) gramLength(start int) int {
	runes := len(a.bounds) - 1
	if start >= runes {
		return 0
	}
	remaining := uint64(runes - start)
	if remaining < a.opts.Min {
		return 0
	}
	if remaining < a.opts.Max {
		return int(remaining)
	}
	return int(a.opts.Max)
}

// Next implements TokenStream.
func (a *NGramAnalyzer) Next() bool {
	if a.done {
		return false
	}

	if uint64(a.length) < a.opts.Min {
		a.start++
		a.length = a.gramLength(a.start)
	}

	if a.length == 0 {
		if a.emitOriginal {
			a.emitOriginal = false
			a.token.Term = a.data
			a.token.Start = 0
			a.token.End = uint32(len(a.data))
			a.token.Increment = 0
			return true
		}
		a.done = true
		return false
	}

	begin := a.bounds[a.start]
	end := a.bounds[a.start+a.length]
	a.token.Term = a.data[begin:end]
	a.token.Start = uint32(begin)
	a.token.End = uint32(end)
	a.token.Increment = 1
	a.length--
	return true
}

// Serialize implements TokenStream. Only the structured form exists.
func (a *NGramAnalyzer) Serialize(format Format) (string, bool) {
	if format != FormatJSON {
		return "", false
	}
	out, err := jsonx.Marshal(a.opts)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// NewNGramAnalyzerFromConfig builds an n-gram analyzer from
// {"min": n, "max": n, "preserveOriginal": bool}. All three are required.
func NewNGramAnalyzerFromConfig(format Format, args string, logger *slog.Logger) (*NGramAnalyzer, error) {
	logger = loggerOrDefault(logger)
	if format != FormatJSON {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedFormat, format, KindNGram)
	}

	opts, err := parseNGramJSON([]byte(args))
	if err != nil {
		logger.Warn("failed to construct ngram analyzer",
			slog.String("args", args),
			slog.Any("error", err))
		return nil, err
	}
	return NewNGramAnalyzer(opts), nil
}

func parseNGramJSON(data []byte) (NGramOptions, error) {
	if jsonx.KindOf(data) != jsonx.Object {
		return NGramOptions{}, fmt.Errorf("%w: %s expects an object", ErrInvalidConfig, KindNGram)
	}
	fields, err := jsonx.Fields(data)
	if err != nil {
		return NGramOptions{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var opts NGramOptions
	if opts.Min, err = requiredField[uint64](fields, minGramParam, jsonx.Number); err != nil {
		return NGramOptions{}, err
	}
	if opts.Max, err = requiredField[uint64](fields, maxGramParam, jsonx.Number); err != nil {
		return NGramOptions{}, err
	}
	if opts.PreserveOriginal, err = requiredField[bool](fields, preserveOriginalParam, jsonx.Bool); err != nil {
		return NGramOptions{}, err
	}
	return opts, nil
}

// requiredField decodes a required member of the given JSON type.
func requiredField[T any](fields map[string]jsonx.RawMessage, name string, kind jsonx.Kind) (T, error) {
	raw, ok := fields[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrMissingParameter, name)
	}
	return typedField[T](raw, name, kind)
}
