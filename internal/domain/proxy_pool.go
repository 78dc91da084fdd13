package domain

import (
	"fmt"
	"time"
)

const DirectLabel = "Direct"

type ProxyPoolOptions struct {
	RotateAfterFailures int
	RotateInterval      time.Duration
}

// ProxyPool owns the ordered endpoints of one account and the index of the one
// in use. It is not safe for concurrent use; each account task owns its pool.
type ProxyPool struct {
	endpoints     []ProxyEndpoint
	current       int
	real          int
	rotateCount   int
	lastRotatedAt time.Time
	opts          ProxyPoolOptions
	now           func() time.Time
}

func NewProxyPool(raw []string, opts ProxyPoolOptions, now func() time.Time) (*ProxyPool, error) {
	if now == nil {
		now = time.Now
	}
	if opts.RotateAfterFailures <= 0 {
		opts.RotateAfterFailures = 3
	}

	endpoints := make([]ProxyEndpoint, 0, len(raw))
	for _, entry := range raw {
		endpoint, err := ParseProxyEndpoint(entry)
		if err != nil {
			return nil, err
		}
		if endpoint.IsDirect() {
			continue
		}
		endpoints = append(endpoints, endpoint)
	}

	real := len(endpoints)
	if real == 0 {
		endpoints = append(endpoints, ProxyEndpoint{})
	}

	return &ProxyPool{
		endpoints:     endpoints,
		real:          real,
		lastRotatedAt: now(),
		opts:          opts,
		now:           now,
	}, nil
}

func (p *ProxyPool) Select() ProxyEndpoint {
	return p.endpoints[p.current]
}

func (p *ProxyPool) Count() int {
	return p.real
}

func (p *ProxyPool) HasMultiple() bool {
	return p.real > 1
}

func (p *ProxyPool) RotateCount() int {
	return p.rotateCount
}

func (p *ProxyPool) RecordSuccess() {
	health := &p.endpoints[p.current].Health
	health.Successes++
	health.TotalRequests++
	health.ConsecutiveFailures = 0
	health.LastUsedAt = p.now()
}

// RecordFailure charges a network-path failure to the current endpoint and
// reports whether the pool rotated as a result.
func (p *ProxyPool) RecordFailure(reason string) bool {
	health := &p.endpoints[p.current].Health
	health.Failures++
	health.TotalRequests++
	health.ConsecutiveFailures++
	health.LastUsedAt = p.now()
	health.LastError = reason

	if p.HasMultiple() && health.ConsecutiveFailures >= p.opts.RotateAfterFailures {
		return p.Rotate("consecutive_failures")
	}

	return false
}

// Rotate advances round-robin. Both the endpoint left behind and the new one
// start a fresh failure streak.
func (p *ProxyPool) Rotate(_ string) bool {
	if p.real <= 1 {
		return false
	}

	p.endpoints[p.current].Health.ConsecutiveFailures = 0
	p.current = (p.current + 1) % len(p.endpoints)
	p.endpoints[p.current].Health.ConsecutiveFailures = 0
	p.rotateCount++
	p.lastRotatedAt = p.now()

	return true
}

func (p *ProxyPool) DueForTimedRotation() bool {
	if p.opts.RotateInterval <= 0 || p.real <= 1 {
		return false
	}

	return p.now().Sub(p.lastRotatedAt) >= p.opts.RotateInterval
}

func (p *ProxyPool) Label() string {
	switch {
	case p.real == 0:
		return DirectLabel
	case p.real == 1:
		return "Proxy"
	default:
		return fmt.Sprintf("Proxy %d/%d", p.current+1, p.real)
	}
}

func (p *ProxyPool) Masked() string {
	return p.Select().Masked()
}

func (p *ProxyPool) Stats() []ProxyStat {
	stats := make([]ProxyStat, 0, len(p.endpoints))
	for i, endpoint := range p.endpoints {
		health := endpoint.Health
		rate := "N/A"
		if health.TotalRequests > 0 {
			rate = fmt.Sprintf("%.1f%%", float64(health.Successes)/float64(health.TotalRequests)*100)
		}

		proxy := DirectLabel
		if !endpoint.IsDirect() {
			proxy = MaskProxyURL(endpoint.Raw)
		}

		stats = append(stats, ProxyStat{
			Index:               i + 1,
			Proxy:               proxy,
			Active:              i == p.current,
			Successes:           health.Successes,
			Failures:            health.Failures,
			SuccessRate:         rate,
			ConsecutiveFailures: health.ConsecutiveFailures,
			LastError:           health.LastError,
		})
	}

	return stats
}
