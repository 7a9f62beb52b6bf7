package embedding

import (
	"context"
	"sync"
)

// Factory constructs a provider. It may be slow (model checks, warm-up).
type Factory func(ctx context.Context) (Provider, error)

// Service owns a lazily constructed provider that lives for the process.
// Construction is guarded so concurrent callers share a single attempt;
// a failed attempt is not cached and the next call retries.
type Service struct {
	factory Factory

	mu       sync.Mutex
	provider Provider
}

// NewService creates a service that builds its provider on first use.
func NewService(factory Factory) *Service {
	return &Service{factory: factory}
}

// Static wraps an already constructed provider.
func Static(p Provider) *Service {
	return &Service{provider: p}
}

// EnsureReady constructs the provider if needed.
func (s *Service) EnsureReady(ctx context.Context) error {
	_, err := s.Get(ctx)
	return err
}

// Get returns the provider, constructing it on first call.
func (s *Service) Get(ctx context.Context) (Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider != nil {
		return s.provider, nil
	}
	p, err := s.factory(ctx)
	if err != nil {
		return nil, err
	}
	s.provider = p
	return p, nil
}

// OllamaFactory returns a factory that validates the local model before use.
func OllamaFactory(opts ...OllamaOption) Factory {
	return func(ctx context.Context) (Provider, error) {
		p := NewOllamaProvider(opts...)
		if err := p.Validate(ctx); err != nil {
			return nil, err
		}
		return p, nil
	}
}

// HFFactory returns a factory for the remote inference backend.
func HFFactory(token string, opts ...HFOption) Factory {
	return func(ctx context.Context) (Provider, error) {
		return NewHFProvider(token, opts...), nil
	}
}
