package textanalysis

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/wizenheimer/textanalysis/internal/jsonx"
)

// ═══════════════════════════════════════════════════════════════════════════════
// DELIMITED ANALYZER
// ═══════════════════════════════════════════════════════════════════════════════
// Splits input on a literal delimiter, CSV style:
//
//	delimiter ","    input `a,"b,c",d`      → ["a", "b,c", "d"]
//	delimiter ","    input `x,"say ""hi"""` → ["x", `say "hi"`]
//	delimiter ","    input `"abc`            → [`"abc`]    (unterminated, verbatim)
//	delimiter ","    input `a,`              → ["a", ""]   (trailing empty field)
//
// QUOTING RULES:
// --------------
//   - A '"' outside a quoted span opens one; delimiters inside it are ignored
//     until the closing '"'. Without a closing quote the rest of the input is
//     quoted and no further delimiter matches.
//   - A delimiter match at a position wins over a quote at that position.
//   - A field that starts with '"' is unwrapped; a doubled quote inside it is
//     one literal quote. Malformed quoting leaves the field verbatim.
//
// An empty delimiter means "no delimiter": the whole input is one token and no
// quote processing happens.
//
// OFFSETS:
// --------
// The first token always starts at offset 0. Every next token starts exactly
// len(delimiter) bytes after the previous one ends, so the emitted spans plus
// the delimiters between them tile the input.
// ═══════════════════════════════════════════════════════════════════════════════

const delimiterParam = "delimiter"

// DelimitedAnalyzer splits input on a literal delimiter.
type DelimitedAnalyzer struct {
	delim     []byte
	maxOffset uint64 // largest end offset a token may have

	data    []byte // unscanned suffix
	pos     uint64 // offset of data within the original input
	done    bool
	termBuf []byte
	token   Token
}

var _ TokenStream = (*DelimitedAnalyzer)(nil)

// NewDelimitedAnalyzer creates an analyzer splitting on delimiter.
func NewDelimitedAnalyzer(delimiter []byte) *DelimitedAnalyzer {
	a := &DelimitedAnalyzer{
		delim:     append([]byte(nil), delimiter...),
		maxOffset: maxOffset,
		done:      true,
	}
	a.token.Increment = 1
	return a
}

// Kind implements TokenStream.
func (a *DelimitedAnalyzer) Kind() string { return KindDelimiter }

// Token implements TokenStream.
func (a *DelimitedAnalyzer) Token() *Token { return &a.token }

// Delimiter returns the configured delimiter.
func (a *DelimitedAnalyzer) Delimiter() []byte { return a.delim }

// Reset implements TokenStream. It never fails.
func (a *DelimitedAnalyzer) Reset(data []byte) bool {
	a.data = data
	a.pos = 0
	a.done = len(data) == 0
	return true
}

// Next implements TokenStream.
func (a *DelimitedAnalyzer) Next() bool {
	if a.done {
		return false
	}

	size := len(a.data)
	if len(a.delim) > 0 {
		size = findDelimiter(a.data, a.delim)
	}

	start := a.pos
	end := start + uint64(size)
	if end > a.maxOffset {
		a.done = true
		return false
	}

	raw := a.data[:size]
	a.token.Start = uint32(start)
	a.token.End = uint32(end)
	a.token.Payload = raw
	if len(a.delim) == 0 {
		a.token.Term = raw
	} else {
		a.token.Term, a.termBuf = unquoteField(a.termBuf, raw)
	}

	if size >= len(a.data) {
		a.data = nil
		a.done = true
		return true
	}

	// Always move forward, even on a degenerate zero-length match.
	advance := size + len(a.delim)
	if advance < 1 {
		advance = 1
	}
	a.data = a.data[advance:]
	a.pos += uint64(advance)
	return true
}

// Serialize implements TokenStream.
func (a *DelimitedAnalyzer) Serialize(format Format) (string, bool) {
	switch format {
	case FormatText:
		return string(a.delim), true
	case FormatJSON:
		out, err := jsonx.Marshal(delimitedConfig{Delimiter: string(a.delim)})
		if err != nil {
			return "", false
		}
		return string(out), true
	}
	return "", false
}

type delimitedConfig struct {
	Delimiter string `json:"delimiter"`
}

// findDelimiter returns the index of the first unquoted delimiter in data, or
// len(data) when there is none.
func findDelimiter(data, delim []byte) int {
	quoted := false
	for i := 0; i < len(data); i++ {
		if quoted {
			if data[i] == '"' {
				quoted = false
			}
			continue
		}
		if len(data)-i < len(delim) {
			break
		}
		// An empty delimiter never matches at the very start.
		if bytes.HasPrefix(data[i:], delim) && (i > 0 || len(delim) > 0) {
			return i
		}
		if data[i] == '"' {
			quoted = true
		}
	}
	return len(data)
}

// unquoteField unwraps a quoted field into buf. It returns data itself when the
// field is not quoted or the quoting is malformed.
func unquoteField(buf, data []byte) ([]byte, []byte) {
	if len(data) == 0 || data[0] != '"' {
		return data, buf
	}

	buf = buf[:0]
	closed := false // the previous quote closed a span
	start := 1
	for i := 1; i < len(data); i++ {
		if data[i] != '"' {
			continue
		}
		if closed && start == i {
			// "" inside a quoted field: the second quote is a literal.
			closed = false
			continue
		}
		if closed {
			// Text between a closing quote and the next quote.
			break
		}
		buf = append(buf, data[start:i]...)
		closed = true
		start = i + 1
	}

	if start != 1 && start == len(data) {
		return buf, buf
	}
	return data, buf
}

// ═══════════════════════════════════════════════════════════════════════════════
// CONFIG CODEC
// ═══════════════════════════════════════════════════════════════════════════════

// NewDelimitedAnalyzerFromConfig builds a delimited analyzer from a config
// string. The structured form is a bare JSON string or {"delimiter": "..."};
// the text form is the delimiter verbatim.
func NewDelimitedAnalyzerFromConfig(format Format, args string, logger *slog.Logger) (*DelimitedAnalyzer, error) {
	logger = loggerOrDefault(logger)

	switch format {
	case FormatText:
		return NewDelimitedAnalyzer([]byte(args)), nil
	case FormatJSON:
		delim, err := parseDelimitedJSON([]byte(args))
		if err != nil {
			logger.Warn("failed to construct delimited analyzer",
				slog.String("args", args),
				slog.Any("error", err))
			return nil, err
		}
		return NewDelimitedAnalyzer([]byte(delim)), nil
	}
	return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedFormat, format, KindDelimiter)
}

func parseDelimitedJSON(data []byte) (string, error) {
	switch jsonx.KindOf(data) {
	case jsonx.String:
		var delim string
		if err := jsonx.Unmarshal(data, &delim); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return delim, nil
	case jsonx.Object:
		fields, err := jsonx.Fields(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return stringField(fields, delimiterParam)
	}
	if err := jsonx.Unmarshal(data, new(interface{})); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return "", fmt.Errorf("%w: %q", ErrMissingParameter, delimiterParam)
}
