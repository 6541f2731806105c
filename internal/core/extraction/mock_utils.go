package extraction

import (
	"context"
)

// MockClient replays scripted responses in order and records every
// prompt it saw. The last response repeats once the queue runs dry.
type MockClient struct {
	Responses []string
	Err       error
	Prompts   []string
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}

// MockEmbedder returns a fixed vector and records the texts it embedded.
type MockEmbedder struct {
	Response []float32
	Err      error
	Texts    []string
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Texts = append(m.Texts, text)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}
