package serv

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-http-utils/headers"
	cache "github.com/go-pkgz/expirable-cache"
	"golang.org/x/time/rate"
)

const (
	maxTrackedClients = 10000
	clientIdleTTL     = 10 * time.Minute
)

// rateLimiter hands out a token bucket per client ip. Buckets of clients
// that stay idle expire from the cache.
type rateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	header  string
	clients cache.Cache
}

func newRateLimiter(c RateLimiter) (*rateLimiter, error) {
	clients, err := cache.NewCache(
		cache.MaxKeys(maxTrackedClients),
		cache.LRU(),
		cache.TTL(clientIdleTTL))
	if err != nil {
		return nil, err
	}

	return &rateLimiter{
		limit:   rate.Limit(c.Rate),
		burst:   c.Bucket,
		header:  c.IPHeader,
		clients: clients,
	}, nil
}

// allow reports whether the client may make a request now
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	var l *rate.Limiter

	if v, ok := rl.clients.Get(ip); ok {
		l = v.(*rate.Limiter)
	} else {
		l = rate.NewLimiter(rl.limit, rl.burst)
	}
	// refresh the ttl on every request
	rl.clients.Set(ip, l, clientIdleTTL)

	return l.Allow()
}

// clientIP returns the ip of the client, taken from the configured header
// when set. Only the first address of a forwarded list is used.
func (rl *rateLimiter) clientIP(r *http.Request) string {
	if rl.header != "" {
		if v := r.Header.Get(rl.header); v != "" {
			if i := strings.IndexByte(v, ','); i != -1 {
				v = v[:i]
			}
			return strings.TrimSpace(v)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimit rejects requests from clients over their rate with a 429
func (s1 *HttpService) rateLimit(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := s1.Load().(*service)

		if rl := s.limiter; rl != nil {
			if !rl.allow(rl.clientIP(r)) {
				w.Header().Set(headers.RetryAfter, "1")
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
		}
		h.ServeHTTP(w, r)
	})
}
