package fetcher

import (
	"context"
	"sync"
	"time"
)

// Pacer keeps a fixed minimum gap between consecutive requests to one host.
type Pacer struct {
	delay time.Duration
	next  map[string]time.Time
	mu    sync.Mutex
	now   func() time.Time
}

func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{
		delay: delay,
		next:  make(map[string]time.Time),
		now:   time.Now,
	}
}

// Wait blocks until host may be contacted again and reserves the next slot.
func (p *Pacer) Wait(ctx context.Context, host string) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := p.now()
	slot := p.next[host]
	if slot.Before(now) {
		slot = now
	}
	p.next[host] = slot.Add(p.delay)
	p.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return ctx.Err()
	}
	return sleepContext(ctx, wait)
}
