package textanalysis

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/wizenheimer/textanalysis/internal/jsonx"
)

const localeParam = "locale"

// StemmingAnalyzer treats the whole input as a single token and stems it with
// the Snowball algorithm for its locale's language.
//
// Example (locale "en"):
//
//	"running" → one token, term "run", offsets [0, 7), payload "running"
type StemmingAnalyzer struct {
	locale Locale
	logger *slog.Logger

	stemmer     *stemmer
	stemmerInit bool

	termBuf  []byte
	hasToken bool
	token    Token
}

var _ TokenStream = (*StemmingAnalyzer)(nil)

// NewStemmingAnalyzer creates a stemming analyzer for locale. An unresolvable
// locale fails construction.
func NewStemmingAnalyzer(locale string, logger *slog.Logger) (*StemmingAnalyzer, error) {
	loc, err := ParseLocale(locale)
	if err != nil {
		return nil, err
	}
	a := &StemmingAnalyzer{
		locale: loc,
		logger: loggerOrDefault(logger),
	}
	a.token.Increment = 1
	return a, nil
}

// Kind implements TokenStream.
func (a *StemmingAnalyzer) Kind() string { return KindStem }

// Token implements TokenStream.
func (a *StemmingAnalyzer) Token() *Token { return &a.token }

// Locale returns the configured locale.
func (a *StemmingAnalyzer) Locale() Locale { return a.locale }

// Reset implements TokenStream. It stems data eagerly; Next only hands out the
// result. Reset fails when data is not valid UTF-8 or is too long to address.
func (a *StemmingAnalyzer) Reset(data []byte) bool {
	return guard(a.logger, KindStem, "reset", func() bool {
		return a.reset(data)
	})
}

func (a *StemmingAnalyzer) reset(data []byte) bool {
	if !a.stemmerInit {
		a.stemmer, _ = newStemmer(a.locale.Language, a.logger)
		a.stemmerInit = true
	}

	a.hasToken = false
	a.token.Term = nil

	if !utf8.Valid(data) {
		a.logger.Error("failed to parse UTF-8 value from token",
			slog.String("locale", a.locale.Name),
			slog.Int("size", len(data)))
		return false
	}
	if uint64(len(data)) > maxOffset {
		a.logger.Error("token exceeds maximum offset",
			slog.String("locale", a.locale.Name),
			slog.Int("size", len(data)))
		return false
	}

	a.token.Start = 0
	a.token.End = uint32(len(data))
	a.token.Payload = data
	a.hasToken = true

	if a.stemmer != nil {
		if stemmed, ok := a.stemmer.Stem(string(data)); ok {
			a.termBuf = append(a.termBuf[:0], stemmed...)
			a.token.Term = a.termBuf
			return true
		}
	}

	a.termBuf = setBytes(a.termBuf, data)
	a.token.Term = a.termBuf
	return true
}

// Next implements TokenStream. It returns true exactly once per Reset.
func (a *StemmingAnalyzer) Next() bool {
	if !a.hasToken {
		return false
	}
	a.hasToken = false
	return true
}

// Serialize implements TokenStream.
func (a *StemmingAnalyzer) Serialize(format Format) (string, bool) {
	switch format {
	case FormatText:
		return a.locale.Name, true
	case FormatJSON:
		out, err := jsonx.Marshal(stemmingConfig{Locale: a.locale.Name})
		if err != nil {
			return "", false
		}
		return string(out), true
	}
	return "", false
}

type stemmingConfig struct {
	Locale string `json:"locale"`
}

// NewStemmingAnalyzerFromConfig builds a stemming analyzer from a config string.
// The structured form is a bare JSON string or {"locale": "..."}; the text form
// is the locale name verbatim.
func NewStemmingAnalyzerFromConfig(format Format, args string, logger *slog.Logger) (a *StemmingAnalyzer, err error) {
	logger = loggerOrDefault(logger)
	defer func() {
		if err != nil {
			logger.Warn("failed to construct stemming analyzer",
				slog.String("format", string(format)),
				slog.String("args", args),
				slog.Any("error", err))
		}
	}()
	defer recoverTo(&err, KindStem)

	switch format {
	case FormatText:
		return NewStemmingAnalyzer(args, logger)
	case FormatJSON:
		locale, err := parseLocaleJSON([]byte(args))
		if err != nil {
			return nil, err
		}
		return NewStemmingAnalyzer(locale, logger)
	}
	return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedFormat, format, KindStem)
}

// parseLocaleJSON reads a locale from a bare JSON string or {"locale": "..."}.
func parseLocaleJSON(data []byte) (string, error) {
	switch jsonx.KindOf(data) {
	case jsonx.String:
		var locale string
		if err := jsonx.Unmarshal(data, &locale); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return locale, nil
	case jsonx.Object:
		fields, err := jsonx.Fields(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return stringField(fields, localeParam)
	}
	if err := jsonx.Unmarshal(data, new(interface{})); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return "", fmt.Errorf("%w: %q", ErrMissingParameter, localeParam)
}

// stringField reads a required string member.
func stringField(fields map[string]jsonx.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || jsonx.KindOf(raw) != jsonx.String {
		return "", fmt.Errorf("%w: %q", ErrMissingParameter, name)
	}
	var value string
	if err := jsonx.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidConfig, name, err)
	}
	return value, nil
}
