package textanalysis

// IdentityAnalyzer emits the whole input, untouched, as a single token. An
// empty input still produces one empty token.
type IdentityAnalyzer struct {
	hasToken bool
	token    Token
}

var _ TokenStream = (*IdentityAnalyzer)(nil)

// NewIdentityAnalyzer creates an identity analyzer.
func NewIdentityAnalyzer() *IdentityAnalyzer {
	a := &IdentityAnalyzer{}
	a.token.Increment = 1
	return a
}

// Kind implements TokenStream.
func (a *IdentityAnalyzer) Kind() string { return KindIdentity }

// Token implements TokenStream.
func (a *IdentityAnalyzer) Token() *Token { return &a.token }

// Reset implements TokenStream.
func (a *IdentityAnalyzer) Reset(data []byte) bool {
	if uint64(len(data)) > maxOffset {
		a.hasToken = false
		return false
	}
	a.token.Term = data
	a.token.Payload = data
	a.token.Start = 0
	a.token.End = uint32(len(data))
	a.hasToken = true
	return true
}

// Next implements TokenStream.
func (a *IdentityAnalyzer) Next() bool {
	if !a.hasToken {
		return false
	}
	a.hasToken = false
	return true
}

// Serialize implements TokenStream. The identity analyzer has no parameters.
func (a *IdentityAnalyzer) Serialize(format Format) (string, bool) {
	switch format {
	case FormatText:
		return "", true
	case FormatJSON:
		return "{}", true
	}
	return "", false
}
