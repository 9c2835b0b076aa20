package llm

import (
	"context"
	"errors"
	"sync"
)

// Stub is a scripted Client for tests. Complete returns queued responses in
// order; when the queue is exhausted it returns Fallback. Embed hashes the
// text into a small deterministic vector.
//
// Stub is safe for concurrent use.
type Stub struct {
	mu        sync.Mutex
	responses []string
	calls     [][]Message

	// Fallback is returned by Complete when no scripted responses remain.
	Fallback string

	// CompleteErr, when set, makes every Complete call fail.
	CompleteErr error

	// EmbedErr, when set, makes every Embed call fail.
	EmbedErr error
}

// NewStub creates a stub that replies with the given responses in order.
func NewStub(responses ...string) *Stub {
	return &Stub{responses: responses, Fallback: "ok"}
}

// Complete pops the next scripted response.
func (s *Stub) Complete(_ context.Context, messages []Message, _ Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]Message, len(messages))
	copy(copied, messages)
	s.calls = append(s.calls, copied)

	if s.CompleteErr != nil {
		return "", s.CompleteErr
	}
	if len(s.responses) == 0 {
		return s.Fallback, nil
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next, nil
}

// Embed returns a deterministic 8-dim vector derived from the text bytes.
func (s *Stub) Embed(_ context.Context, text string) ([]float32, error) {
	if s.EmbedErr != nil {
		return nil, s.EmbedErr
	}
	if text == "" {
		return nil, errors.New("empty text")
	}
	vec := make([]float32, 8)
	for i, b := range []byte(text) {
		vec[i%8] += float32(b) / 255
	}
	return vec, nil
}

// Calls returns a copy of every message list passed to Complete.
func (s *Stub) Calls() [][]Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]Message, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount reports how many Complete calls the stub has served.
func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
