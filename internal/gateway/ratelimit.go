package gateway

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// webhookLimiter throttles inbound webhooks per remote address. Entries idle
// past the TTL are dropped on the next sweep.
type webhookLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterTTL = 10 * time.Minute

func newWebhookLimiter(rps float64, burst int) *webhookLimiter {
	return &webhookLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// allow reports whether the remote may proceed.
func (w *webhookLimiter) allow(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	cl, ok := w.clients[host]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(w.rps, w.burst)}
		w.clients[host] = cl
	}
	cl.lastSeen = time.Now()
	if len(w.clients) > 1024 {
		w.sweepLocked()
	}
	return cl.limiter.Allow()
}

func (w *webhookLimiter) sweepLocked() {
	cutoff := time.Now().Add(-limiterTTL)
	for host, cl := range w.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(w.clients, host)
		}
	}
}

// middleware wraps h with the per-remote limit.
func (w *webhookLimiter) middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !w.allow(r.RemoteAddr) {
			http.Error(rw, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		h(rw, r)
	}
}
