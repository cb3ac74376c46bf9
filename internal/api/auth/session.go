package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/varchas/website/internal/backend"
)

const (
	sessionCookieName = "varchas_session"
	defaultSessionTTL = 8 * time.Hour
	sessionTokenBytes = 32
)

var (
	ErrAuthConfigMissing = errors.New("auth configuration missing")
	ErrTokenExpired      = errors.New("backend token already expired")
	errInvalidCookie     = errors.New("invalid session cookie")
)

// Identity is what a logged-in browser session knows about its user: the
// backend bearer token and the public unique id.
type Identity struct {
	SessionID string    `json:"-"`
	Token     string    `json:"-"`
	UniqueID  string    `json:"unique_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey{}).(*Identity)
	return identity
}

// SessionStore keeps sessions in memory. A restart logs everybody out, which
// only costs a new login against the backend.
type SessionStore struct {
	secret []byte
	secure bool
	ttl    time.Duration
	clock  clockwork.Clock

	mu       sync.RWMutex
	sessions map[string]Identity
}

type SessionOptions struct {
	SecretKey string
	// Secure marks the cookie Secure; off only in development.
	Secure bool
	TTL    time.Duration
	Clock  clockwork.Clock
}

func NewSessionStore(opts SessionOptions) (*SessionStore, error) {
	if strings.TrimSpace(opts.SecretKey) == "" {
		return nil, ErrAuthConfigMissing
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultSessionTTL
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &SessionStore{
		secret:   []byte(opts.SecretKey),
		secure:   opts.Secure,
		ttl:      opts.TTL,
		clock:    opts.Clock,
		sessions: make(map[string]Identity),
	}, nil
}

// Create starts a session for a successful backend login. The session never
// outlives the token's own exp claim.
func (s *SessionStore) Create(w http.ResponseWriter, login backend.LoginResult, email string) (Identity, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	if exp, ok := tokenExpiry(login.Token); ok {
		if !exp.After(now) {
			return Identity{}, ErrTokenExpired
		}
		if exp.Before(expiresAt) {
			expiresAt = exp
		}
	}

	sessionID, err := newSessionToken()
	if err != nil {
		return Identity{}, err
	}

	identity := Identity{
		SessionID: sessionID,
		Token:     login.Token,
		UniqueID:  login.UniqueID,
		Email:     strings.TrimSpace(email),
		ExpiresAt: expiresAt,
	}
	s.mu.Lock()
	s.sessions[sessionID] = identity
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID + "." + s.sign(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(expiresAt.Sub(now).Seconds()),
	})
	return identity, nil
}

// FromRequest resolves the session cookie. A missing cookie is not an error;
// a stale or forged one is cleared.
func (s *SessionStore) FromRequest(w http.ResponseWriter, r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	sessionID, err := s.verify(cookie.Value)
	if err != nil {
		s.clearCookie(w)
		return nil, err
	}

	identity, ok := s.get(sessionID)
	if !ok {
		s.clearCookie(w)
		return nil, nil
	}
	return &identity, nil
}

// Clear ends the request's session and returns it, if there was one.
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	defer s.clearCookie(w)

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return Identity{}, false
	}
	sessionID, err := s.verify(cookie.Value)
	if err != nil {
		return Identity{}, false
	}

	s.mu.Lock()
	identity, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return identity, ok
}

// Prune drops expired sessions and reports their ids.
func (s *SessionStore) Prune(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for id, identity := range s.sessions {
		if !identity.ExpiresAt.After(now) {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}

func (s *SessionStore) get(sessionID string) (Identity, bool) {
	s.mu.RLock()
	identity, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return Identity{}, false
	}
	if !identity.ExpiresAt.After(s.clock.Now()) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return Identity{}, false
	}
	return identity, true
}

func (s *SessionStore) clearCookie(w http.ResponseWriter) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (s *SessionStore) sign(sessionID string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *SessionStore) verify(value string) (string, error) {
	sessionID, signature, ok := strings.Cut(value, ".")
	if !ok || sessionID == "" {
		return "", errInvalidCookie
	}
	if !hmac.Equal([]byte(signature), []byte(s.sign(sessionID))) {
		return "", errInvalidCookie
	}
	return sessionID, nil
}

// tokenExpiry reads the exp claim of a backend JWT. The backend signs its own
// tokens, so the signature is not checked here; the claim only bounds how long
// the session is kept. Opaque tokens report no expiry.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func newSessionToken() (string, error) {
	token := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(token), nil
}
