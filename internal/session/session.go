// Package session derives a panel user's role from the bearer token their browser
// holds, and gates panel pages on that role.
//
// None of this is access control. Tokens are decoded without signature verification,
// so a visitor can forge any role they like and see any panel page. What they cannot
// do is use the panel: every action it takes is a call to the news API, which
// verifies the token itself. A malformed or expired token is indistinguishable from
// having no role.
package session

import (
	"net/http"
)

// Session answers role questions for one visitor by reading their Store
type Session struct {
	store       Store
	defaultRole string
}

// New returns a Session backed by the given Store. defaultRole, if non-empty, is the
// role assumed when a token carries no role and no override has been stored.
func New(store Store, defaultRole string) *Session {
	return &Session{
		store:       store,
		defaultRole: defaultRole,
	}
}

// FromRequest binds a Session to the cookies of an HTTP request
func FromRequest(res http.ResponseWriter, req *http.Request, defaultRole string) *Session {
	return New(NewCookieStore(res, req), defaultRole)
}

// Store exposes the visitor's underlying key/value store
func (s *Session) Store() Store {
	return s.store
}

// Token returns the visitor's bearer token, if they have one
func (s *Session) Token() (string, bool) {
	return s.store.Get(KeyAuthToken)
}

// Role resolves the visitor's role: first from the token's claims, then from a stored
// override, then from the configured default. It returns false if the visitor has no
// token or no role can be determined.
func (s *Session) Role() (Role, bool) {
	token, ok := s.Token()
	if !ok {
		return "", false
	}
	if candidate, ok := extractRole(DecodeJWT(token)); ok {
		return ParseRole(candidate), true
	}
	if stored, ok := s.store.Get(KeyRoleOverride); ok {
		return ParseRole(stored), true
	}
	if s.defaultRole != "" {
		return ParseRole(s.defaultRole), true
	}
	return "", false
}

// HasRole reports whether the visitor satisfies the given requirement. An empty
// requirement passes unconditionally; callers that need authentication check Token.
func (s *Session) HasRole(required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	role, ok := s.Role()
	if !ok {
		return false
	}
	return role.Satisfies(required...)
}

// Login persists a freshly-issued token, along with a role override if the login
// flow was able to determine one
func (s *Session) Login(token string, role string) error {
	if err := s.store.Set(KeyAuthToken, token); err != nil {
		return err
	}
	if role == "" {
		return nil
	}
	return s.store.Set(KeyRoleOverride, string(ParseRole(role)))
}

// Logout forgets the visitor's token and role override. Both deletes are attempted
// even if the first fails; losing the token alone is enough to log out.
func (s *Session) Logout() error {
	tokenErr := s.store.Delete(KeyAuthToken)
	roleErr := s.store.Delete(KeyRoleOverride)
	if tokenErr != nil {
		return tokenErr
	}
	return roleErr
}
