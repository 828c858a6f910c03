package provider

import "context"

// NoResponse is returned when a provider answers with a well-formed but
// empty completion. It keeps "the model said nothing" distinct from a
// transport failure.
const NoResponse = "(no response)"

type GenerateRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
}

// Provider is one outbound LLM backend. Implementations return the first
// candidate's text, or an error with a short human-readable reason.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Named couples a configured provider with its identity. The ID keys the
// per-provider output map and the Label is what the operator sees.
type Named struct {
	ID           string
	Label        string
	Model        string
	SystemPrompt string
	Client       Provider
}
