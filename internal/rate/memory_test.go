package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)

	// reloj fijo dentro de una ventana
	base := time.Date(2026, 8, 20, 10, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		res, err := l.Allow(context.Background(), "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow #%d error: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("expected hit #%d allowed", i)
		}
		if want := int64(3 - i - 1); res.Remaining != want {
			t.Fatalf("hit #%d: expected remaining %d, got %d", i, want, res.Remaining)
		}
	}

	res, err := l.Allow(context.Background(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow over limit error: %v", err)
	}
	if res.Allowed {
		t.Fatalf("expected 4th hit blocked")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("unexpected RetryAfter: %v", res.RetryAfter)
	}

	// otra clave no comparte el contador
	other, err := l.Allow(context.Background(), "5.6.7.8")
	if err != nil {
		t.Fatalf("Allow other key error: %v", err)
	}
	if !other.Allowed {
		t.Fatalf("expected other key allowed")
	}

	// ventana siguiente: el contador arranca de cero
	l.now = func() time.Time { return base.Add(time.Minute) }
	res, err = l.Allow(context.Background(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow next window error: %v", err)
	}
	if !res.Allowed || res.Remaining != 2 {
		t.Fatalf("expected fresh window, got %#v", res)
	}
}
