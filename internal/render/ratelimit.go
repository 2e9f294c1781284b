// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package render

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Render service limits applied when RateLimiterConfig leaves a field unset.
const (
	DefaultBurstCapacity   = 20
	DefaultSustainedRate   = 10.0
	DefaultCleanupInterval = 5 * time.Minute
	DefaultClientMaxAge    = time.Hour
)

// RateLimiterConfig sets the per-address render budget. Zero or negative
// fields take their Default value.
type RateLimiterConfig struct {
	// BurstCapacity is how many renders an address may send back to back.
	BurstCapacity int
	// SustainedRate is how many renders per second an address earns back.
	SustainedRate float64
	// CleanupInterval is how often idle addresses are swept.
	CleanupInterval time.Duration
	// ClientMaxAge is how long an address may stay idle before it is swept.
	ClientMaxAge time.Duration
}

// budget is the render allowance of one address.
type budget struct {
	renders float64
	updated time.Time
}

// refill credits the renders earned since the last update, capped at burst.
func (b *budget) refill(now time.Time, rate float64, burst int) {
	b.renders = min(b.renders+now.Sub(b.updated).Seconds()*rate, float64(burst))
	b.updated = now
}

// RateLimiter bounds how fast each client address may call /render. It is
// safe for concurrent use. A background goroutine sweeps idle addresses
// until Close is called.
type RateLimiter struct {
	mu       sync.Mutex
	budgets  map[string]*budget
	burst    int
	rate     float64
	idleTTL  time.Duration
	now      func() time.Time
	stopChan chan struct{}
	wg       sync.WaitGroup

	// nil without a registry
	clientGauge prometheus.Gauge
	rejected    prometheus.Counter
}

// NewRateLimiter creates a rate limiter and, when reg is not nil, registers
// its client gauge and rejection counter.
func NewRateLimiter(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	rl := &RateLimiter{
		budgets:  make(map[string]*budget),
		burst:    cfg.BurstCapacity,
		rate:     cfg.SustainedRate,
		idleTTL:  cfg.ClientMaxAge,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if rl.burst <= 0 {
		rl.burst = DefaultBurstCapacity
	}
	if rl.rate <= 0 {
		rl.rate = DefaultSustainedRate
	}
	if rl.idleTTL <= 0 {
		rl.idleTTL = DefaultClientMaxAge
	}
	sweep := cfg.CleanupInterval
	if sweep <= 0 {
		sweep = DefaultCleanupInterval
	}

	if reg != nil {
		rl.clientGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "glyphmark_ratelimiter_clients",
			Help: "Client addresses currently tracked by the render rate limiter",
		})
		rl.rejected = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glyphmark_ratelimiter_rejected_total",
			Help: "Render requests rejected by the rate limiter",
		})
		reg.MustRegister(rl.clientGauge, rl.rejected)
	}

	rl.wg.Add(1)
	go rl.sweepLoop(sweep)

	return rl
}

// Allow spends one render from client's budget. When the budget is empty it
// returns false and the wait until one render has been earned back.
func (rl *RateLimiter) Allow(client string) (allowed bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.budgets[client]
	if !ok {
		b = &budget{renders: float64(rl.burst), updated: now}
		rl.budgets[client] = b
		rl.setClientGauge()
	}
	b.refill(now, rl.rate, rl.burst)

	if b.renders >= 1 {
		b.renders--
		return true, 0
	}

	if rl.rejected != nil {
		rl.rejected.Inc()
	}
	return false, time.Duration((1 - b.renders) / rl.rate * float64(time.Second))
}

func (rl *RateLimiter) setClientGauge() {
	if rl.clientGauge != nil {
		rl.clientGauge.Set(float64(len(rl.budgets)))
	}
}

// ClientCount returns the number of tracked client addresses.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.budgets)
}

// Cleanup forgets addresses that have not rendered within maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxAge)
	for client, b := range rl.budgets {
		if b.updated.Before(cutoff) {
			delete(rl.budgets, client)
		}
	}
	rl.setClientGauge()
}

func (rl *RateLimiter) sweepLoop(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.Cleanup(rl.idleTTL)
		}
	}
}

// Close stops the sweeper and waits for it to exit.
func (rl *RateLimiter) Close() {
	close(rl.stopChan)
	rl.wg.Wait()
}

// Middleware rejects requests over the limit of their client address with
// 429 and a Retry-After header in whole seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := rl.Allow(clientAddr(r))
		if !allowed {
			seconds := int(retryAfter.Seconds())
			if retryAfter > time.Duration(seconds)*time.Second {
				seconds++
			}
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
			writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr returns the host part of the request's remote address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
