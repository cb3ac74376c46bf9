// Package ratelimit throttles failed login attempts per account and per IP.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Config struct {
	MaxAttempts  int           // failed logins per account before lockout (default: 5)
	Lockout      time.Duration // lockout after MaxAttempts (default: 5m)
	MaxIPPerHour int           // failed logins per IP per hour (default: 30)
	TrustProxy   bool          // read the client IP from X-Forwarded-For / X-Real-IP

	// Clock for testing (nil uses real time)
	Clock clockwork.Clock
}

func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  5,
		Lockout:      5 * time.Minute,
		MaxIPPerHour: 30,
	}
}

// Reason names the rule that blocked a login.
type Reason string

const (
	ReasonLockout     Reason = "lockout"
	ReasonMaxAttempts Reason = "max_attempts"
	ReasonIPHourly    Reason = "ip_hourly_limit"
)

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     Reason
}

type entry struct {
	count    int
	firstAt  time.Time
	lastAt   time.Time
	lockedAt time.Time // zero if not locked
}

// Limiter tracks failed logins. Entries are pruned by Prune, which the
// scheduler calls periodically.
type Limiter struct {
	config *Config
	clock  clockwork.Clock

	mu   sync.RWMutex
	byID map[string]*entry
	byIP map[string]*entry
}

func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{
		config: cfg,
		clock:  clock,
		byID:   make(map[string]*entry),
		byIP:   make(map[string]*entry),
	}
}

// CheckLogin reports whether a login attempt may be forwarded to the backend.
// It does not record anything; call RecordFailure when the backend rejects it.
func (l *Limiter) CheckLogin(identifier, ip string) LimitResult {
	now := l.clock.Now()
	idKey := hashKey("login:id:", normalizeIdentifier(identifier))
	ipKey := hashKey("login:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.byID[idKey]; e != nil {
		if !e.lockedAt.IsZero() {
			if elapsed := now.Sub(e.lockedAt); elapsed < l.config.Lockout {
				return LimitResult{RetryAfter: l.config.Lockout - elapsed, Reason: ReasonLockout}
			}
		} else if e.count >= l.config.MaxAttempts {
			return LimitResult{RetryAfter: l.config.Lockout, Reason: ReasonMaxAttempts}
		}
	}

	if e := l.byIP[ipKey]; e != nil {
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.MaxIPPerHour {
			return LimitResult{RetryAfter: time.Hour - now.Sub(e.firstAt), Reason: ReasonIPHourly}
		}
	}

	return LimitResult{Allowed: true}
}

// RecordFailure counts a rejected login. It returns true when this failure
// started a lockout.
func (l *Limiter) RecordFailure(identifier, ip string) (lockedOut bool) {
	now := l.clock.Now()
	idKey := hashKey("login:id:", normalizeIdentifier(identifier))
	ipKey := hashKey("login:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.byID[idKey]
	switch {
	case e == nil, !e.lockedAt.IsZero() && now.Sub(e.lockedAt) >= l.config.Lockout:
		e = &entry{count: 1, firstAt: now, lastAt: now}
		l.byID[idKey] = e
	default:
		e.count++
		e.lastAt = now
	}
	if e.count >= l.config.MaxAttempts && e.lockedAt.IsZero() {
		e.lockedAt = now
		lockedOut = true
	}

	ipEntry := l.byIP[ipKey]
	if ipEntry == nil || now.Sub(ipEntry.firstAt) >= time.Hour {
		l.byIP[ipKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else {
		ipEntry.count++
		ipEntry.lastAt = now
	}

	return lockedOut
}

// Reset clears the account counter after a successful login.
func (l *Limiter) Reset(identifier string) {
	idKey := hashKey("login:id:", normalizeIdentifier(identifier))
	l.mu.Lock()
	delete(l.byID, idKey)
	l.mu.Unlock()
}

// Prune drops entries that can no longer block anything.
func (l *Limiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	maxAge := l.config.Lockout + time.Hour
	for k, e := range l.byID {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.byID, k)
			removed++
		}
	}
	for k, e := range l.byIP {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.byIP, k)
			removed++
		}
	}
	return removed
}

// ClientIP extracts the client IP from r using the limiter's proxy setting.
func (l *Limiter) ClientIP(r *http.Request) string {
	return GetClientIP(r, l.config.TrustProxy)
}

func hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeIdentifier lowercases the identifier to prevent case-based bypass.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// GetClientIP extracts the client IP from a request. Forwarding headers are
// read only when trustProxy is set; then the rightmost public X-Forwarded-For
// hop wins.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				if addr, err := netip.ParseAddr(strings.TrimSpace(hops[i])); err == nil && isPublic(addr) {
					return addr.String()
				}
			}
			return strings.TrimSpace(hops[len(hops)-1])
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}
	return r.RemoteAddr
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return !addr.IsPrivate() && !addr.IsLoopback() && !addr.IsLinkLocalUnicast() && !addr.IsUnspecified()
}

// SanitizeIdentifier masks an email for logging.
func SanitizeIdentifier(identifier string) string {
	identifier = normalizeIdentifier(identifier)
	local, domain, ok := strings.Cut(identifier, "@")
	if !ok {
		return "***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}

func LogRateLimitExceeded(ctx context.Context, identifier, ip string, reason Reason) {
	log.Ctx(ctx).Warn().
		Str("event", "rate_limit_exceeded").
		Str("identifier", SanitizeIdentifier(identifier)).
		Str("ip", ip).
		Str("reason", string(reason)).
		Msg("Login rate limit exceeded")
}
