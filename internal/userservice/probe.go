package userservice

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// probeInterval is the background liveness ticker's period.
const probeInterval = 5 * time.Second

// Probe is the process-wide upstream liveness gate: a background ticker
// calls CheckNow every 5s, and any handler that hits a transport error
// can force an immediate re-check. CheckNow performs exactly one ping
// per call, with concurrent callers collapsed onto a single in-flight
// check rather than issuing their own.
type Probe struct {
	client *Client
	alive  atomic.Bool

	mu       sync.Mutex
	checking bool
	waiters  []chan bool
}

// NewProbe creates a probe against client, initially assumed alive so the
// server does not reject traffic before the first tick completes.
func NewProbe(client *Client) *Probe {
	p := &Probe{client: client}
	p.alive.Store(true)
	return p
}

// IsAlive reports the probe's last known liveness state.
func (p *Probe) IsAlive() bool { return p.alive.Load() }

// CheckNow pings the upstream and updates liveness. Concurrent calls that
// arrive while a check is already in flight wait for that single check's
// result rather than issuing their own.
func (p *Probe) CheckNow() bool {
	p.mu.Lock()
	if p.checking {
		ch := make(chan bool, 1)
		p.waiters = append(p.waiters, ch)
		p.mu.Unlock()
		return <-ch
	}
	p.checking = true
	p.mu.Unlock()

	alive := p.pingOnce()
	p.alive.Store(alive)

	p.mu.Lock()
	waiters := p.waiters
	p.waiters = nil
	p.checking = false
	p.mu.Unlock()

	for _, ch := range waiters {
		ch <- alive
	}
	return alive
}

func (p *Probe) pingOnce() bool {
	// Drop the cached session count so the ping always reaches the upstream.
	p.client.sessionCount.Invalidate(struct{}{})
	_, err := p.client.SessionCount()
	return err == nil
}

// Run drives the ticker until ctx is cancelled, invoking CheckNow every
// probeInterval.
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			alive := p.CheckNow()
			slog.Debug("upstream probe tick", "alive", alive)
		}
	}
}
