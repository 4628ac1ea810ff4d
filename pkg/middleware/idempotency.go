package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"gymcore/pkg/clock"
)

const (
	DefaultIdempotencyHeader = "Idempotency-Key"
	ReplayedHeader           = "Idempotent-Replayed"
)

type IdempotencyStore interface {
	Get(key string) (*CachedResponse, bool)
	Set(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	CreatedAt  time.Time
}

// InMemoryIdempotencyStore keeps responses for ttl. A background sweep
// drops expired entries every sweepEvery.
type InMemoryIdempotencyStore struct {
	mu         sync.RWMutex
	entries    map[string]*CachedResponse
	ttl        time.Duration
	clock      clock.Clock
	sweepEvery time.Duration
	stopOnce   sync.Once
	stopCh     chan struct{}
}

func NewInMemoryIdempotencyStore(ttl time.Duration, clk clock.Clock) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries:    make(map[string]*CachedResponse),
		ttl:        ttl,
		clock:      clk,
		sweepEvery: time.Hour,
		stopCh:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *InMemoryIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	s.mu.RLock()
	resp, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if s.expired(resp) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}
	return resp, true
}

func (s *InMemoryIdempotencyStore) Set(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response.CreatedAt = s.clock.Now()
	s.entries[key] = response
}

func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *InMemoryIdempotencyStore) expired(resp *CachedResponse) bool {
	return s.clock.Now().Sub(resp.CreatedAt) > s.ttl
}

func (s *InMemoryIdempotencyStore) sweep() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purgeExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) purgeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, resp := range s.entries {
		if s.expired(resp) {
			delete(s.entries, key)
		}
	}
}

type responseCapture struct {
	http.ResponseWriter
	status  int
	written bool
	body    bytes.Buffer
}

func (rc *responseCapture) WriteHeader(status int) {
	if rc.written {
		return
	}
	rc.status = status
	rc.written = true
	rc.ResponseWriter.WriteHeader(status)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.WriteHeader(http.StatusOK)
	}
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated key on the same
// method and path. Only 2xx responses are stored, so a rejected booking can
// be retried under the same key.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			scoped := r.Method + " " + r.URL.Path + " " + key

			if cached, ok := store.Get(scoped); ok {
				replay(w, cached)
				return
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			if capture.status >= 200 && capture.status < 300 {
				store.Set(scoped, &CachedResponse{
					StatusCode: capture.status,
					Headers:    w.Header().Clone(),
					Body:       bytes.Clone(capture.body.Bytes()),
				})
			}
		})
	}
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		if _, set := w.Header()[key]; set {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
