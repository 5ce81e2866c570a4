// Package oracle wraps the external text-generation capability. Callers
// treat it as unreliable: every call carries a context deadline and an
// error or empty reply is an expected, non-fatal outcome.
package oracle

import "context"

// Generator produces text from a prompt using the named model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}
