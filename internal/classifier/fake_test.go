package classifier

import (
	"context"
	"errors"
	"sync"
)

// fakeBackend hands out scripted replies in call order.
type fakeBackend struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	calls    int
	requests []Request
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Complete(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i >= len(f.replies) {
		return "", errors.New("no scripted reply")
	}
	return f.replies[i], nil
}
