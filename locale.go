package textanalysis

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale is a parsed analyzer locale.
//
// Accepted spellings are POSIX style "language[_REGION][.ENCODING][@modifier]"
// (e.g. "de_DE.UTF-8") and BCP 47 tags (e.g. "pt-BR"). Input is always UTF-8, so
// any encoding other than UTF-8 is rejected.
type Locale struct {
	Name     string       // Verbatim name as configured
	Language string       // ISO 639 language subtag, e.g. "en"
	Region   string       // ISO 3166 region subtag, or "" when absent
	Tag      language.Tag // Tag used for locale-aware case mapping
}

// ParseLocale resolves a locale name.
func ParseLocale(name string) (Locale, error) {
	base := name
	if i := strings.IndexByte(base, '@'); i >= 0 {
		base = base[:i]
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		if !isUTF8Encoding(base[i+1:]) {
			return Locale{}, fmt.Errorf("%w: %q: unsupported encoding %q", ErrInvalidLocale, name, base[i+1:])
		}
		base = base[:i]
	}
	if base == "" {
		return Locale{}, fmt.Errorf("%w: %q: empty language", ErrInvalidLocale, name)
	}

	tag, err := language.Parse(strings.ReplaceAll(base, "_", "-"))
	if err != nil {
		return Locale{}, fmt.Errorf("%w: %q: %v", ErrInvalidLocale, name, err)
	}
	// Base would guess a likely language for "und"; only an explicit
	// language subtag resolves.
	lang, _, _ := tag.Raw()
	if lang.String() == "und" {
		return Locale{}, fmt.Errorf("%w: %q: no language subtag", ErrInvalidLocale, name)
	}

	loc := Locale{
		Name:     name,
		Language: lang.String(),
		Tag:      tag,
	}
	if region, conf := tag.Region(); conf == language.Exact {
		loc.Region = region.String()
	}
	return loc, nil
}

func isUTF8Encoding(enc string) bool {
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}
