// Package rate paces task starts to a fixed arrival rate.
package rate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/hellobench/internal/task"
)

// Pacer spaces calls to Next at a fixed rate using a leaky bucket.
//
// The bucket tracks when the next start is due rather than how many tokens
// are left, so a caller that falls behind runs immediately instead of
// bursting. At most maxBurst starts may be banked while callers are idle.
//
// Pacer is safe for concurrent use.
type Pacer struct {
	mu          sync.Mutex
	perSecond   float64
	lastDrip    time.Time
	accumulated float64
	maxBurst    float64

	starts   atomic.Int64
	waitTime atomic.Int64
}

// NewPacer creates a pacer releasing perSecond starts per second. A
// non-positive rate falls back to one per second.
func NewPacer(perSecond float64) *Pacer {
	return NewPacerWithBurst(perSecond, 1)
}

// NewPacerWithBurst creates a pacer that banks up to maxBurst starts.
func NewPacerWithBurst(perSecond, maxBurst float64) *Pacer {
	if perSecond <= 0 {
		perSecond = 1
	}
	if maxBurst < 1 {
		maxBurst = 1
	}
	return &Pacer{
		perSecond: perSecond,
		maxBurst:  maxBurst,
		// The first start is due immediately.
		lastDrip:    time.Now(),
		accumulated: 1,
	}
}

// Rate returns the configured starts per second.
func (p *Pacer) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.perSecond
}

// Next reserves a start and returns when it is due. The time is in the
// past when the caller is behind schedule.
func (p *Pacer) Next() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(p.lastDrip).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	p.accumulated += elapsed * p.perSecond
	if p.accumulated > p.maxBurst {
		p.accumulated = p.maxBurst
	}
	p.starts.Add(1)

	if p.accumulated >= 1 {
		p.accumulated--
		p.lastDrip = now
		return now
	}

	// Slots already handed out are in the future; queue behind the last one.
	base := now
	if p.lastDrip.After(now) {
		base = p.lastDrip
	}
	next := base.Add(time.Duration((1 - p.accumulated) / p.perSecond * float64(time.Second)))
	p.accumulated = 0
	// Dripping from next keeps the wake-up at next from counting twice.
	p.lastDrip = next

	p.waitTime.Add(int64(next.Sub(now)))
	return next
}

// Wait blocks until the next start is due or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	wait := time.Until(p.Next())
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats describes how a pacer has been used.
type Stats struct {
	Rate     float64       `json:"rate"`
	MaxBurst float64       `json:"maxBurst"`
	Starts   int64         `json:"starts"`
	WaitTime time.Duration `json:"waitTime"`
}

// Stats returns a snapshot of the pacer's counters.
func (p *Pacer) Stats() Stats {
	p.mu.Lock()
	perSecond, maxBurst := p.perSecond, p.maxBurst
	p.mu.Unlock()

	return Stats{
		Rate:     perSecond,
		MaxBurst: maxBurst,
		Starts:   p.starts.Load(),
		WaitTime: time.Duration(p.waitTime.Load()),
	}
}

// Gate returns a task that waits for the pacer's next start.
func Gate(p *Pacer) task.Task {
	return task.Func("pace", p.Wait)
}
