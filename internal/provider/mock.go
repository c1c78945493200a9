package provider

import (
	"context"
	"sync"
)

// MockProvider is a function-field fake for tests. Invocations are recorded
// in order; when InvokeFunc is nil every action reports unchanged success.
type MockProvider struct {
	InvokeFunc func(ctx context.Context, inv Invocation) (Result, error)

	mu    sync.Mutex
	calls []Invocation
}

// Invoke implements Provider.
func (m *MockProvider) Invoke(ctx context.Context, inv Invocation) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, inv)
	m.mu.Unlock()

	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, inv)
	}
	return Result{}, nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockProvider) Calls() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invocation, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of recorded invocations.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
