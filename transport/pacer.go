package transport

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// Pacer spaces requests to the same host and honors server-advertised
// backoff periods. One entry per host.
type Pacer struct {
	mu          sync.Mutex
	minInterval time.Duration
	hosts       map[string]*hostState
}

type hostState struct {
	lastRequest  time.Time
	backoffUntil time.Time
}

// NewPacer creates a pacer enforcing minInterval between requests per host.
// A zero minInterval disables spacing but still honors backoff periods.
func NewPacer(minInterval time.Duration) *Pacer {
	return &Pacer{
		minInterval: minInterval,
		hosts:       make(map[string]*hostState),
	}
}

// Wait blocks until a request to urlStr is allowed, or the context is done.
func (p *Pacer) Wait(ctx context.Context, urlStr string) error {
	host := extractHost(urlStr)

	p.mu.Lock()
	st, ok := p.hosts[host]
	if !ok {
		st = &hostState{}
		p.hosts[host] = st
	}

	now := time.Now()
	next := st.lastRequest.Add(p.minInterval)
	if st.backoffUntil.After(next) {
		next = st.backoffUntil
	}
	st.lastRequest = next
	if next.Before(now) {
		st.lastRequest = now
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	select {
	case <-time.After(next.Sub(now)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordRateLimit registers a server-requested backoff for urlStr's host.
func (p *Pacer) RecordRateLimit(urlStr string, retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = time.Minute
	}

	host := extractHost(urlStr)
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.hosts[host]
	if !ok {
		st = &hostState{}
		p.hosts[host] = st
	}
	until := time.Now().Add(retryAfter)
	if until.After(st.backoffUntil) {
		st.backoffUntil = until
	}
}

// RecordSuccess clears any backoff period for urlStr's host.
func (p *Pacer) RecordSuccess(urlStr string) {
	host := extractHost(urlStr)
	p.mu.Lock()
	defer p.mu.Unlock()

	if st, ok := p.hosts[host]; ok {
		st.backoffUntil = time.Time{}
	}
}

func extractHost(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return urlStr
	}
	return u.Host
}
