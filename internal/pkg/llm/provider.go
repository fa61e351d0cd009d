package llm

import "context"

// Provider is the boundary to a generative completion endpoint.
// The structure generator is its only consumer; it sends one system+user
// message pair and expects a single non-streamed text response.
type Provider interface {
	// Complete sends the prompt and returns the raw model output.
	Complete(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and output constraints.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Kept low for structural output.
	Temperature float64
}

// Response holds the model's output.
type Response struct {
	// Content is the raw text returned by the model. Callers own parsing.
	Content string

	// Model is the actual model that served the request.
	Model string
}
