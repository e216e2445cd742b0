package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubCheckable struct {
	err   error
	delay time.Duration
}

func (s stubCheckable) HealthCheck(ctx context.Context) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

func TestAdapterChecker(t *testing.T) {
	tests := []struct {
		name       string
		adapter    stubCheckable
		timeout    time.Duration
		wantStatus Status
		wantError  string
	}{
		{name: "healthy", adapter: stubCheckable{}, wantStatus: StatusHealthy},
		{name: "failing", adapter: stubCheckable{err: errors.New("no reachable servers")}, wantStatus: StatusUnhealthy, wantError: "no reachable servers"},
		{name: "timeout", adapter: stubCheckable{delay: time.Second}, timeout: 10 * time.Millisecond, wantStatus: StatusUnhealthy, wantError: context.DeadlineExceeded.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewAdapterChecker("mongodb", tt.adapter, tt.timeout).Check(context.Background())
			if result.Status != tt.wantStatus {
				t.Fatalf("expected status %s, got %s", tt.wantStatus, result.Status)
			}
			if result.Error != tt.wantError {
				t.Fatalf("expected error %q, got %q", tt.wantError, result.Error)
			}
			if result.Name != "mongodb" {
				t.Fatalf("expected name mongodb, got %q", result.Name)
			}
		})
	}
}

func TestNewAdapterChecker_DefaultTimeout(t *testing.T) {
	c := NewAdapterChecker("mongodb", stubCheckable{}, 0)
	if c.timeout != defaultCheckTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultCheckTimeout, c.timeout)
	}
}

func TestNewDatabaseChecker_Metadata(t *testing.T) {
	result := NewDatabaseChecker("mongodb", "shop", stubCheckable{}, 0).Check(context.Background())
	if got := result.Metadata["database"]; got != "shop" {
		t.Fatalf("expected database metadata shop, got %v", got)
	}
}

func TestRegistry_Check(t *testing.T) {
	r := NewRegistry()
	r.Register(NewAdapterChecker("b-store", stubCheckable{}, 0))
	r.Register(NewAdapterChecker("a-store", stubCheckable{}, 0))

	agg := r.Check(context.Background())
	if !agg.IsHealthy() {
		t.Fatalf("expected healthy, got %s", agg.Status)
	}
	if len(agg.Checks) != 2 || agg.Checks[0].Name != "a-store" || agg.Checks[1].Name != "b-store" {
		t.Fatalf("expected results ordered by name, got %+v", agg.Checks)
	}

	r.Register(NewAdapterChecker("b-store", stubCheckable{err: errors.New("down")}, 0))
	agg = r.Check(context.Background())
	if agg.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy after replacing checker, got %s", agg.Status)
	}
	if len(agg.Checks) != 2 {
		t.Fatalf("expected replacement not to add a check, got %d", len(agg.Checks))
	}
}

func TestRegistry_CheckEmpty(t *testing.T) {
	agg := NewRegistry().Check(context.Background())
	if !agg.IsHealthy() || len(agg.Checks) != 0 {
		t.Fatalf("expected empty healthy result, got %+v", agg)
	}
}

func TestRegistry_CheckOne(t *testing.T) {
	r := NewRegistry()
	r.Register(NewAdapterChecker("mongodb", stubCheckable{}, 0))

	result, err := r.CheckOne(context.Background(), "mongodb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", result.Status)
	}

	if _, err := r.CheckOne(context.Background(), "redis"); err == nil {
		t.Fatal("expected error for unknown checker")
	}
}
