package session

import (
	"net/http"
	"sync"
	"time"
)

// Keys under which visitor state is persisted
const (
	KeyAuthToken       = "auth_token"
	KeyRoleOverride    = "user_role"
	KeyAPIBaseOverride = "api_base_override"
	KeyVisitorId       = "visitor_id"
	KeyArticleDraft    = "draft_noticia_creacion_v2"
)

// Store is a per-visitor key/value store. Reads are always fresh: nothing built on
// a Store caches what it reads.
type Store interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Delete(key string) error
}

// CookieStore persists visitor state in cookies. It is bound to a single request and
// its response: values written during the request are visible to later reads of the
// same request, and are sent back to the browser as Set-Cookie headers.
type CookieStore struct {
	req     *http.Request
	res     http.ResponseWriter
	secure  bool
	written map[string]*string
	mu      sync.Mutex
}

// cookieMaxAge is how long persisted values survive in the browser
const cookieMaxAge = 90 * 24 * time.Hour

// NewCookieStore binds a Store to the given request/response pair
func NewCookieStore(res http.ResponseWriter, req *http.Request) *CookieStore {
	return &CookieStore{
		req:     req,
		res:     res,
		secure:  req.TLS != nil,
		written: make(map[string]*string),
	}
}

func (s *CookieStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.written[key]; ok {
		if value == nil {
			return "", false
		}
		return *value, true
	}
	cookie, err := s.req.Cookie(key)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (s *CookieStore) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	http.SetCookie(s.res, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.written[key] = &value
	return nil
}

func (s *CookieStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	http.SetCookie(s.res, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.written[key] = nil
	return nil
}

var _ Store = (*CookieStore)(nil)

// MemoryStore is an in-process Store, used by tools and tests
type MemoryStore struct {
	values map[string]string
	mu     sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok && value != ""
}

func (s *MemoryStore) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
