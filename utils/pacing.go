package utils

import (
	"math/rand"
	"sync"
	"time"
)

// Pacer enforces a randomized politeness delay between outbound
// requests. The delay is drawn uniformly from [min, max] on every call,
// so request timing never forms a fixed cadence.
type Pacer struct {
	min time.Duration
	max time.Duration

	mu          sync.Mutex
	lastRequest time.Time
	sleep       func(time.Duration)
}

// NewPacer creates a Pacer with the given delay bounds in milliseconds.
// A max at or below min degenerates to a fixed min delay.
func NewPacer(minMs, maxMs int) *Pacer {
	if maxMs < minMs {
		maxMs = minMs
	}
	return &Pacer{
		min:   time.Duration(minMs) * time.Millisecond,
		max:   time.Duration(maxMs) * time.Millisecond,
		sleep: time.Sleep,
	}
}

// Wait blocks until the randomized interval since the previous request
// has elapsed. The first call returns immediately.
func (p *Pacer) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastRequest.IsZero() {
		p.lastRequest = time.Now()
		return
	}

	interval := p.min
	if spread := p.max - p.min; spread > 0 {
		interval += time.Duration(rand.Int63n(int64(spread) + 1))
	}

	elapsed := time.Since(p.lastRequest)
	if elapsed < interval {
		p.sleep(interval - elapsed)
	}
	p.lastRequest = time.Now()
}
