package server

import (
	"net/http"
	"testing"

	"github.com/lawnchairsociety/roomforge/internal/config"
)

func TestConnLimiter_PerIPLimit(t *testing.T) {
	limiter := NewConnLimiter(config.PreviewConfig{MaxPerIP: 2, MaxConnections: 100})

	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("first connection should be allowed")
	}
	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("second connection should be allowed")
	}
	if limiter.TryAcquire("192.168.1.1") {
		t.Error("third connection from same IP should be rejected")
	}
	if !limiter.TryAcquire("192.168.1.2") {
		t.Error("connection from different IP should be allowed")
	}

	limiter.Release("192.168.1.1")
	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("connection should be allowed after release")
	}
}

func TestConnLimiter_TotalLimit(t *testing.T) {
	limiter := NewConnLimiter(config.PreviewConfig{MaxPerIP: 10, MaxConnections: 3})

	for _, ip := range []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"} {
		if !limiter.TryAcquire(ip) {
			t.Errorf("connection from %s should be allowed", ip)
		}
	}
	if limiter.TryAcquire("192.168.1.4") {
		t.Error("fourth connection should be rejected due to total limit")
	}

	limiter.Release("192.168.1.1")
	if !limiter.TryAcquire("192.168.1.4") {
		t.Error("connection should be allowed after release")
	}
}

func TestConnLimiter_Unlimited(t *testing.T) {
	limiter := NewConnLimiter(config.PreviewConfig{})

	for i := 0; i < 100; i++ {
		if !limiter.TryAcquire("192.168.1.1") {
			t.Errorf("connection %d should be allowed when unlimited", i)
		}
	}
}

func TestConnLimiter_ReleaseUnknownIP(t *testing.T) {
	limiter := NewConnLimiter(config.PreviewConfig{MaxConnections: 1})

	limiter.TryAcquire("10.0.0.1")
	limiter.Release("10.0.0.2") // never acquired

	total, ips := limiter.Stats()
	if total != 1 || ips != 1 {
		t.Errorf("Stats() = (%d, %d), want (1, 1)", total, ips)
	}

	limiter.Release("10.0.0.1")
	total, ips = limiter.Stats()
	if total != 0 || ips != 0 {
		t.Errorf("Stats() = (%d, %d) after release, want (0, 0)", total, ips)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "203.0.113.5:5555", nil, "203.0.113.5"},
		{"remote addr without port", "203.0.113.5", nil, "203.0.113.5"},
		{"forwarded for", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "198.51.100.7"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": " 198.51.100.8 "}, "198.51.100.8"},
		{"ipv6", "[2001:db8::1]:443", nil, "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{RemoteAddr: tt.remoteAddr, Header: http.Header{}}
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
