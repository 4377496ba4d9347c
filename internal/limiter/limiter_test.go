package limiter

import (
	"context"
	"testing"
	"time"
)

func TestNilClientAllowsEverything(t *testing.T) {
	l := New(nil, 5, time.Minute)

	for i := 0; i < 100; i++ {
		ok, err := l.Allow(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatal("nil-client limiter must always allow")
		}
	}
}

func TestZeroLimitDisablesLimiting(t *testing.T) {
	l := New(nil, 0, time.Minute)

	ok, err := l.Allow(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Fatal("zero limit should disable limiting, not block")
	}
}
