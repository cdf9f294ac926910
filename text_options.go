package textanalysis

import (
	"fmt"
	"sort"

	"github.com/wizenheimer/textanalysis/internal/jsonx"
)

const (
	caseConvertParam   = "caseConvert"
	stopwordsParam     = "stopwords"
	stopwordsPathParam = "stopwordsPath"
	noAccentParam      = "noAccent"
	noStemParam        = "noStem"
)

// CaseConvert selects the case mapping applied to every term.
type CaseConvert int

const (
	CaseNone CaseConvert = iota
	CaseLower
	CaseUpper
)

var caseConvertNames = map[CaseConvert]string{
	CaseNone:  "none",
	CaseLower: "lower",
	CaseUpper: "upper",
}

func (c CaseConvert) String() string {
	if name, ok := caseConvertNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CaseConvert(%d)", int(c))
}

// ParseCaseConvert maps "none", "lower" or "upper" to a CaseConvert.
func ParseCaseConvert(name string) (CaseConvert, error) {
	for c, n := range caseConvertNames {
		if n == name {
			return c, nil
		}
	}
	return CaseNone, fmt.Errorf("%w: %s must be one of none, lower, upper, got %q",
		ErrInvalidConfig, caseConvertParam, name)
}

// TextOptions configures a TextAnalyzer.
type TextOptions struct {
	Locale      string
	CaseConvert CaseConvert
	NoAccent    bool
	NoStem      bool

	// Stopwords are always filtered. StopwordsSet records that the config
	// named a stopword list at all, even an empty one; an explicit list turns
	// off the default stopword directory.
	Stopwords    []string
	StopwordsSet bool

	// StopwordsPath overrides the stopword root. nil means unset; a pointer to
	// "" means the current directory.
	StopwordsPath *string
}

// DefaultTextOptions returns the options the text shorthand produces.
func DefaultTextOptions(locale string) TextOptions {
	return TextOptions{Locale: locale}
}

// ParseTextOptions decodes text analyzer options from either format.
func ParseTextOptions(format Format, args string) (TextOptions, error) {
	switch format {
	case FormatText:
		return DefaultTextOptions(args), nil
	case FormatJSON:
		return parseTextOptionsJSON([]byte(args))
	}
	return TextOptions{}, fmt.Errorf("%w: %s for %s", ErrUnsupportedFormat, format, KindText)
}

func parseTextOptionsJSON(data []byte) (TextOptions, error) {
	switch jsonx.KindOf(data) {
	case jsonx.String:
		locale, err := parseLocaleJSON(data)
		if err != nil {
			return TextOptions{}, err
		}
		return DefaultTextOptions(locale), nil
	case jsonx.Object:
	default:
		if err := jsonx.Unmarshal(data, new(interface{})); err != nil {
			return TextOptions{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return TextOptions{}, fmt.Errorf("%w: %q", ErrMissingParameter, localeParam)
	}

	fields, err := jsonx.Fields(data)
	if err != nil {
		return TextOptions{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var opts TextOptions
	if opts.Locale, err = stringField(fields, localeParam); err != nil {
		return TextOptions{}, err
	}

	if raw, ok := fields[caseConvertParam]; ok {
		name, err := typedField[string](raw, caseConvertParam, jsonx.String)
		if err != nil {
			return TextOptions{}, err
		}
		if opts.CaseConvert, err = ParseCaseConvert(name); err != nil {
			return TextOptions{}, err
		}
	}

	if raw, ok := fields[stopwordsParam]; ok {
		words, err := typedField[[]string](raw, stopwordsParam, jsonx.Array)
		if err != nil {
			return TextOptions{}, err
		}
		opts.Stopwords = normalizeStopwords(words)
		opts.StopwordsSet = true
	}

	if raw, ok := fields[stopwordsPathParam]; ok {
		path, err := typedField[string](raw, stopwordsPathParam, jsonx.String)
		if err != nil {
			return TextOptions{}, err
		}
		opts.StopwordsPath = &path
	}

	if raw, ok := fields[noAccentParam]; ok {
		if opts.NoAccent, err = typedField[bool](raw, noAccentParam, jsonx.Bool); err != nil {
			return TextOptions{}, err
		}
	}

	if raw, ok := fields[noStemParam]; ok {
		if opts.NoStem, err = typedField[bool](raw, noStemParam, jsonx.Bool); err != nil {
			return TextOptions{}, err
		}
	}

	return opts, nil
}

// typedField decodes an optional member after checking its JSON type.
func typedField[T any](raw jsonx.RawMessage, name string, kind jsonx.Kind) (T, error) {
	var value T
	if jsonx.KindOf(raw) != kind {
		return value, fmt.Errorf("%w: %q has the wrong type", ErrInvalidConfig, name)
	}
	if err := jsonx.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("%w: %q: %v", ErrInvalidConfig, name, err)
	}
	return value, nil
}

// normalizeStopwords sorts and dedups words. The result is never nil.
func normalizeStopwords(words []string) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// textConfig fixes the key order of the structured form.
type textConfig struct {
	Locale        string    `json:"locale"`
	CaseConvert   string    `json:"caseConvert"`
	Stopwords     *[]string `json:"stopwords,omitempty"`
	NoAccent      bool      `json:"noAccent"`
	NoStem        bool      `json:"noStem"`
	StopwordsPath *string   `json:"stopwordsPath,omitempty"`
}

// Serialize renders the options in the given format. The text form carries
// only the locale.
func (o TextOptions) Serialize(format Format) (string, bool) {
	switch format {
	case FormatText:
		return o.Locale, true
	case FormatJSON:
		cfg := textConfig{
			Locale:        o.Locale,
			CaseConvert:   o.CaseConvert.String(),
			NoAccent:      o.NoAccent,
			NoStem:        o.NoStem,
			StopwordsPath: o.StopwordsPath,
		}
		if o.StopwordsSet || len(o.Stopwords) > 0 {
			words := normalizeStopwords(o.Stopwords)
			cfg.Stopwords = &words
		}
		out, err := jsonx.Marshal(cfg)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
	return "", false
}
