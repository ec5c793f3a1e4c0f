package testutil

// ConstantToken is a run token generator returning the same token on every
// call. Unlike engine.FixedGenerator it never runs out, so one generator can
// serve any number of runs in a test.
//
// Safe for concurrent use.
type ConstantToken string

// DefaultToken is used when ConstantToken is empty.
const DefaultToken = "run-test-default"

// Generate returns the token. Implements engine.TokenGenerator.
func (c ConstantToken) Generate() string {
	if c == "" {
		return DefaultToken
	}
	return string(c)
}
