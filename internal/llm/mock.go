package llm

import "context"

// MockClient is a canned-response client for tests.
type MockClient struct {
	Response string
	Err      error
	// Calls records the messages of each Complete invocation.
	Calls [][]Message
}

// Complete records the call and returns the canned response.
func (m *MockClient) Complete(ctx context.Context, messages []Message) (string, error) {
	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Configured always reports true for MockClient.
func (m *MockClient) Configured() bool {
	return true
}

// Close is a no-op for MockClient.
func (m *MockClient) Close() error {
	return nil
}
