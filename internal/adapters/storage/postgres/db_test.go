package postgres

import (
	"testing"
	"time"
)

func TestPoolOptions_Defaults(t *testing.T) {
	got := PoolOptions{}.withDefaults()
	if got.MaxOpenConns != 10 || got.MaxIdleConns != 5 {
		t.Fatalf("expected defaults 10/5, got %d/%d", got.MaxOpenConns, got.MaxIdleConns)
	}
	if got.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("expected lifetime 30m, got %v", got.ConnMaxLifetime)
	}
}

func TestPoolOptions_ConfiguredValuesWin(t *testing.T) {
	got := PoolOptions{MaxOpenConns: 40, MaxIdleConns: 8, ConnMaxLifetime: time.Hour}.withDefaults()
	if got.MaxOpenConns != 40 || got.MaxIdleConns != 8 || got.ConnMaxLifetime != time.Hour {
		t.Fatalf("configured values overwritten: %+v", got)
	}
}

func TestPoolOptions_IdleCappedByOpen(t *testing.T) {
	got := PoolOptions{MaxOpenConns: 3, MaxIdleConns: 20}.withDefaults()
	if got.MaxIdleConns != 3 {
		t.Fatalf("expected idle capped to 3, got %d", got.MaxIdleConns)
	}
}
