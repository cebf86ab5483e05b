package ai

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/muratoffalex/telechat/internal/logger"
)

// ProviderRouter round-robins requests across its providers. If only one
// provider is configured all traffic goes through it. When a provider fails
// to answer, the request is retried once on each remaining provider before
// the last error is surfaced.
//
// For streams, fallback applies only to failures establishing the stream.
// Once a provider has started producing chunks, a mid-stream error is
// passed through as-is; silently restarting on another provider would
// duplicate already-delivered text.
type ProviderRouter struct {
	providers []Provider
	index     atomic.Uint64
	logger    logger.Logger
}

func NewProviderRouter(log logger.Logger, providers ...Provider) *ProviderRouter {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	log.WithField("providers", names).Info("Provider router initialized")

	return &ProviderRouter{
		providers: providers,
		logger:    log,
	}
}

func (r *ProviderRouter) Name() string {
	return "router"
}

// rotation returns all providers starting from the next round-robin
// position.
func (r *ProviderRouter) rotation() []Provider {
	n := len(r.providers)
	if n == 0 {
		return nil
	}

	start := int(r.index.Add(1)-1) % n
	order := make([]Provider, 0, n)
	for i := range n {
		order = append(order, r.providers[(start+i)%n])
	}
	return order
}

func (r *ProviderRouter) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for _, provider := range r.rotation() {
		r.logger.WithField("provider", provider.Name()).Debug("Routing request")
		resp, err := provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		r.logger.WithError(err).WithField("provider", provider.Name()).
			Warn("Provider failed, trying fallback")
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllProviders, lastErr)
	}
	return nil, ErrNoProviders
}

func (r *ProviderRouter) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	var lastErr error
	for _, provider := range r.rotation() {
		r.logger.WithField("provider", provider.Name()).Debug("Routing stream")
		ch, err := provider.GenerateStream(ctx, req)
		if err == nil {
			return ch, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		r.logger.WithError(err).WithField("provider", provider.Name()).
			Warn("Provider stream failed, trying fallback")
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllProviders, lastErr)
	}
	return nil, ErrNoProviders
}
