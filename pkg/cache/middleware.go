package cache

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/juris-platform/baseline/pkg/access"
)

// cacheResponseWriter wraps http.ResponseWriter to capture the response
// body and status code so they can be stored in the cache.
type cacheResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	written    bool
}

func (w *cacheResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.statusCode = http.StatusOK
		w.written = true
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Manager holds the policy and read caches. Responses are keyed per actor
// because permission flags are embedded in read responses.
type Manager struct {
	policies *TTLCache
	reads    *TTLCache
}

// NewManager creates a Manager from the given configuration. If cfg is nil
// or disabled, it returns nil; a nil Manager's middleware pass through.
func NewManager(cfg *Config) *Manager {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return &Manager{
		policies: NewTTLCache(cfg.MaxSize, cfg.PolicyTTL),
		reads:    NewTTLCache(cfg.MaxSize, cfg.ReadTTL),
	}
}

// InvalidateReads clears the read cache entirely. Called after any
// successful mutation; mutations are rare next to reads so coarse
// invalidation is fine.
func (m *Manager) InvalidateReads() {
	if m == nil {
		return
	}
	m.reads.InvalidateAll()
}

// cacheFor picks the cache for a request path.
func (m *Manager) cacheFor(path string) *TTLCache {
	if strings.HasSuffix(path, "/policies") {
		return m.policies
	}
	return m.reads
}

// key builds a cache key scoped to the acting user so cached responses
// never leak across actors or companies.
func key(r *http.Request) string {
	actor, ok := access.ActorFromContext(r.Context())
	if !ok {
		return ""
	}
	return actor.CompanyID + "|" + actor.UserID + "|" + r.URL.RequestURI()
}

// Middleware returns HTTP middleware that serves GET responses from the
// cache and flushes the read cache after successful mutations.
//
// Behavior:
//   - GET requests: on hit the cached body is written with an X-Cache: HIT
//     header; on miss the response is captured and stored if the handler
//     returned 200. Requests without an actor pass through uncached.
//   - All other methods pass through; a response below 400 flushes the
//     read cache.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				crw := &cacheResponseWriter{ResponseWriter: w}
				next.ServeHTTP(crw, r)
				if crw.statusCode < 400 {
					m.InvalidateReads()
				}
				return
			}

			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			c := m.cacheFor(r.URL.Path)
			if cached, ok := c.Get(k); ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(cached)
				return
			}

			crw := &cacheResponseWriter{ResponseWriter: w}
			crw.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(crw, r)

			if crw.statusCode == http.StatusOK {
				c.Set(k, crw.body.Bytes())
			}
		})
	}
}
