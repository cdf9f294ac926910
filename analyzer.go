// ═══════════════════════════════════════════════════════════════════════════════
// TEXT ANALYSIS OVERVIEW
// ═══════════════════════════════════════════════════════════════════════════════
// Text analysis turns the raw bytes of a field into the terms an inverted index
// stores. Every analyzer in this package is a reusable TokenStream: a forward
// cursor over one input at a time.
//
// CONSUMER LOOP:
// --------------
//  1. Reset(data)   → bind the input, rewind the cursor
//  2. Next()        → advance to the next token (false once exhausted)
//  3. Token()       → read term, offsets, increment, payload
//  4. Reset(other)  → reuse the same instance for the next input
//
// EXAMPLE:
// --------
// Delimiter ",", input `a,"b,c",d`:
//
//	Next → term "a"   offsets [0, 1)
//	Next → term "b,c" offsets [2, 7)   (quoted field, unwrapped)
//	Next → term "d"   offsets [8, 9)
//	Next → false
//
// ANALYZER KINDS:
// ---------------
//   - delimiter → split on a literal delimiter, quote aware
//   - stem      → whole input is one token, stemmed for a locale
//   - text      → segment, normalize, case-fold, strip accents, drop stopwords, stem
//   - ngram     → sliding character n-grams
//   - identity  → whole input, untouched
//
// Analyzer instances are NOT safe for concurrent use. The only shared state is
// the ResourceCache, which is.
// ═══════════════════════════════════════════════════════════════════════════════

package textanalysis

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ERROR DEFINITIONS
// ═══════════════════════════════════════════════════════════════════════════════
var (
	ErrInvalidConfig       = errors.New("invalid analyzer config")
	ErrMissingParameter    = errors.New("missing required analyzer parameter")
	ErrInvalidLocale       = errors.New("unresolvable locale")
	ErrUnsupportedFormat   = errors.New("unsupported analyzer config format")
	ErrUnknownAnalyzer     = errors.New("unknown analyzer kind")
	ErrStopwords           = errors.New("failed to resolve stopwords")
	ErrResourceUnavailable = errors.New("linguistic resource unavailable")
)

// Analyzer kinds, as used by the Registry and reported by TokenStream.Kind.
const (
	KindDelimiter = "delimiter"
	KindStem      = "stem"
	KindText      = "text"
	KindNGram     = "ngram"
	KindIdentity  = "identity"
)

// Format selects one of the two textual encodings of an analyzer config.
type Format string

const (
	// FormatJSON is the structured encoding: a JSON string or object.
	FormatJSON Format = "json"
	// FormatText is the plain-text shorthand: the whole string is the one
	// parameter the analyzer takes (delimiter or locale).
	FormatText Format = "text"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatText:
		return Format(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// maxOffset is the largest representable token offset.
const maxOffset = math.MaxUint32

// Token holds the attributes of the current token.
//
// Term and Payload are owned by the analyzer and only valid until the next call
// to Next or Reset. Copy them if they must outlive that.
type Token struct {
	Term      []byte // Indexable content after all transforms
	Start     uint32 // Byte offset of the token in the original input
	End       uint32 // Byte offset one past the token
	Increment uint32 // Positions skipped since the previous token
	Payload   []byte // Untransformed source bytes, if the analyzer keeps them
}

// TokenStream is the contract every analyzer implements.
type TokenStream interface {
	// Kind names the analyzer kind, e.g. "delimiter".
	Kind() string

	// Reset binds a new input and rewinds to before the first token. It
	// returns false when the analyzer cannot be materialized for the input;
	// the instance yields no tokens until a later Reset succeeds.
	Reset(data []byte) bool

	// Next advances to the next token. Once it returns false it keeps
	// returning false, leaving Token untouched, until the next Reset.
	Next() bool

	// Token exposes the attributes of the current token.
	Token() *Token

	// Serialize renders the analyzer config in the given format. The result
	// fed back into the matching constructor reproduces the same behavior.
	Serialize(format Format) (string, bool)
}

// guard runs fn and converts a panic raised by an underlying library into a
// logged false. It is used at the Reset/Next boundary.
func guard(logger *slog.Logger, kind, op string, fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("analyzer panic recovered",
				slog.String("kind", kind),
				slog.String("op", op),
				slog.Any("panic", r))
			ok = false
		}
	}()
	return fn()
}

// recoverTo turns a panic into *err during construction.
func recoverTo(err *error, kind string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %s: panic: %v", ErrInvalidConfig, kind, r)
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// setBytes copies src into the reusable buffer dst.
func setBytes(dst []byte, src []byte) []byte {
	return append(dst[:0], src...)
}
