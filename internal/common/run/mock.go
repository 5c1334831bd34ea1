package run

import (
	"context"
	"sync"
)

// MockRunner implements Runner for testing. Each call is recorded and the
// response comes from RunFunc when set, otherwise from the canned fields.
type MockRunner struct {
	// RunFunc, when set, handles every call
	RunFunc func(ctx context.Context, req Request) (Result, error)

	// Canned response used when RunFunc is nil
	Result Result
	Err    error

	mu    sync.Mutex
	calls []Request
}

// Run implements Runner
func (m *MockRunner) Run(ctx context.Context, req Request) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, req)
	}
	return m.Result, m.Err
}

// Calls returns a copy of all recorded requests
func (m *MockRunner) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent request and true, or false when no call
// was made.
func (m *MockRunner) LastCall() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Request{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// CallCount returns the number of recorded requests
func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
