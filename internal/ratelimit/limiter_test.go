package ratelimit

import (
	"net/http"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func newTestLimiter(clock clockwork.Clock) *Limiter {
	return New(&Config{
		MaxAttempts:  3,
		Lockout:      5 * time.Minute,
		MaxIPPerHour: 10,
		Clock:        clock,
	})
}

func TestCheckLogin_Lockout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := newTestLimiter(clock)

	identifier := "asha@college.edu"
	ip := "203.0.113.10"

	for i := 0; i < 2; i++ {
		if result := limiter.CheckLogin(identifier, ip); !result.Allowed {
			t.Fatalf("attempt %d should be allowed, got %s", i+1, result.Reason)
		}
		if limiter.RecordFailure(identifier, ip) {
			t.Fatalf("attempt %d should not lock out", i+1)
		}
	}
	if !limiter.RecordFailure(identifier, ip) {
		t.Fatal("third failure should start a lockout")
	}

	clock.Advance(time.Minute)
	result := limiter.CheckLogin(identifier, ip)
	if result.Allowed || result.Reason != ReasonLockout {
		t.Fatalf("expected lockout, got %+v", result)
	}
	if result.RetryAfter != 4*time.Minute {
		t.Fatalf("RetryAfter = %v, want 4m", result.RetryAfter)
	}

	clock.Advance(4 * time.Minute)
	if result := limiter.CheckLogin(identifier, ip); !result.Allowed {
		t.Fatalf("lockout should have expired, got %s", result.Reason)
	}
	if limiter.RecordFailure(identifier, ip) {
		t.Fatal("a failure after an expired lockout starts a new count")
	}
}

func TestCheckLogin_IdentifierNormalization(t *testing.T) {
	limiter := newTestLimiter(clockwork.NewFakeClock())

	for _, identifier := range []string{"Asha@College.edu", " asha@college.edu ", "ASHA@COLLEGE.EDU"} {
		limiter.RecordFailure(identifier, "203.0.113.10")
	}
	if result := limiter.CheckLogin("asha@college.edu", "198.51.100.7"); result.Allowed {
		t.Fatal("case variants should share one counter")
	}
}

func TestCheckLogin_IPLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := newTestLimiter(clock)
	ip := "203.0.113.10"

	for i := 0; i < 10; i++ {
		limiter.RecordFailure("user"+string(rune('a'+i))+"@college.edu", ip)
	}
	result := limiter.CheckLogin("fresh@college.edu", ip)
	if result.Allowed || result.Reason != ReasonIPHourly {
		t.Fatalf("expected ip limit, got %+v", result)
	}

	clock.Advance(time.Hour)
	if result := limiter.CheckLogin("fresh@college.edu", ip); !result.Allowed {
		t.Fatalf("ip window should have rolled over, got %s", result.Reason)
	}
}

func TestReset(t *testing.T) {
	limiter := newTestLimiter(clockwork.NewFakeClock())
	identifier := "asha@college.edu"

	for i := 0; i < 3; i++ {
		limiter.RecordFailure(identifier, "203.0.113.10")
	}
	limiter.Reset(identifier)
	if result := limiter.CheckLogin(identifier, "198.51.100.7"); !result.Allowed {
		t.Fatalf("reset should clear the lockout, got %s", result.Reason)
	}
}

func TestPrune(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := newTestLimiter(clock)
	limiter.RecordFailure("asha@college.edu", "203.0.113.10")

	if n := limiter.Prune(clock.Now()); n != 0 {
		t.Fatalf("fresh entries pruned: %d", n)
	}
	clock.Advance(2 * time.Hour)
	if n := limiter.Prune(clock.Now()); n != 2 {
		t.Fatalf("Prune = %d, want 2", n)
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)
	if limiter.config.MaxAttempts != 5 || limiter.config.Lockout != 5*time.Minute {
		t.Fatalf("unexpected defaults: %+v", limiter.config)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "trusted proxy uses rightmost public XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50",
		},
		{
			name:       "trusted proxy with all private XFF",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1",
		},
		{
			name:       "trusted proxy with X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "untrusted ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			remoteAddr: "192.168.1.100:54321",
			expected:   "192.168.1.100",
		},
		{
			name:       "IPv6 RemoteAddr",
			remoteAddr: "[2001:db8::7]:443",
			expected:   "2001:db8::7",
		},
		{
			name:       "trusted proxy skips garbage hops",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9, not-an-ip"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "198.51.100.9",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.100",
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r, tt.trustProxy); got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"JOHN.DOE@EXAMPLE.COM", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "***"},
		{"", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeIdentifier(tt.input); got != tt.expected {
				t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.0.0.1", false},
		{"172.31.255.255", false},
		{"192.168.1.1", false},
		{"127.0.0.1", false},
		{"::1", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"0.0.0.0", false},
		{"::ffff:192.168.1.1", false},
		{"::ffff:8.8.8.8", true},
		{"203.0.113.50", true},
		{"2001:db8::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := isPublic(netip.MustParseAddr(tt.ip)); got != tt.want {
				t.Errorf("isPublic(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	limiter := New(&Config{MaxAttempts: 1000, Lockout: time.Minute, MaxIPPerHour: 1000, Clock: clockwork.NewFakeClock()})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if limiter.CheckLogin("asha@college.edu", "203.0.113.10").Allowed {
					limiter.RecordFailure("asha@college.edu", "203.0.113.10")
				}
				limiter.Reset("asha@college.edu")
			}
		}()
	}
	wg.Wait()
}
