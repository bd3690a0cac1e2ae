package llm

import "context"

// MockClient is a configurable model transport for testing. Set Response or
// Err to control the next Complete result; every call is recorded.
type MockClient struct {
	Response string
	Err      error

	// Responses, when non-empty, is consumed one entry per call before
	// falling back to Response.
	Responses []string

	Calls []MockCall
}

type MockCall struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
}

func NewMockClient() *MockClient {
	return &MockClient{Response: "Mock response"}
}

func (c *MockClient) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	c.Calls = append(c.Calls, MockCall{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  temperature,
	})
	if c.Err != nil {
		return "", c.Err
	}
	if len(c.Responses) > 0 {
		resp := c.Responses[0]
		c.Responses = c.Responses[1:]
		return resp, nil
	}
	return c.Response, nil
}

// Reset clears recorded calls and configured responses.
func (c *MockClient) Reset() {
	c.Response = "Mock response"
	c.Responses = nil
	c.Err = nil
	c.Calls = nil
}
