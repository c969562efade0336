package redis

import (
	"testing"
	"time"
)

func TestIdempotencyKey(t *testing.T) {
	if got := idempotencyKey("abc-123"); got != "idem:users:abc-123" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNewIdempotencyStore_DefaultTTL(t *testing.T) {
	if s := NewIdempotencyStore(nil, 0); s.ttl != defaultIdempotencyTTL {
		t.Fatalf("expected default ttl, got %v", s.ttl)
	}
	if s := NewIdempotencyStore(nil, time.Minute); s.ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", s.ttl)
	}
}
