package backend

import (
	"context"
	"sync"
)

// WithToken attaches a caller's bearer token to the context. Every backend
// call made under that context carries this token, so concurrent requests
// from different users never share a credential.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, "backend_token", token)
}

// TokenFromContext returns the request-scoped bearer token, or "" when the
// context carries none (background work).
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value("backend_token").(string); ok {
		return token
	}
	return ""
}

// TokenStore holds the service credential used for backend calls made outside
// a user request, e.g. the recovery poller re-submitting stuck orders. The
// client clears it only for token-specific 401 causes, deliberately leaving
// other 401 responses (e.g. payment authorization failures) without
// destructive side effects.
type TokenStore interface {
	Token() string
	Clear()
}

type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (s *MemoryTokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryTokenStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
