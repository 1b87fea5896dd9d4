package providers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay spaces calls to providers without a configured delay.
const DefaultDelay = 2 * time.Second

// DefaultDelays are the minimum gaps between calls to one provider.
var DefaultDelays = map[string]time.Duration{
	Anthropic: 2 * time.Second,
	OpenAI:    1500 * time.Millisecond,
	Google:    1 * time.Second,
	Mock:      0,
}

// Pacer spaces out calls per provider. It is safe for concurrent use.
type Pacer struct {
	delays map[string]time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewPacer creates a pacer. Providers missing from delays use DefaultDelay.
func NewPacer(delays map[string]time.Duration) *Pacer {
	return &Pacer{delays: delays, limiters: make(map[string]*rate.Limiter)}
}

// Delay returns the gap enforced for provider.
func (p *Pacer) Delay(provider string) time.Duration {
	if d, ok := p.delays[provider]; ok {
		return d
	}
	return DefaultDelay
}

// Wait blocks until provider may be called again.
func (p *Pacer) Wait(ctx context.Context, provider string) error {
	return p.limiter(provider).Wait(ctx)
}

func (p *Pacer) limiter(provider string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[provider]
	if !ok {
		limit := rate.Inf
		if d := p.Delay(provider); d > 0 {
			limit = rate.Every(d)
		}
		l = rate.NewLimiter(limit, 1)
		p.limiters[provider] = l
	}
	return l
}
