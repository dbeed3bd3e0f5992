package costguard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGuard_ChargeUnderThreshold(t *testing.T) {
	g := New(10.0)

	for i := 0; i < 5; i++ {
		if err := g.Charge(1.0); err != nil {
			t.Fatalf("charge %d: unexpected error: %v", i+1, err)
		}
	}
	if g.Spent() != 5.0 {
		t.Errorf("Spent() = %f, want 5.0", g.Spent())
	}
}

func TestGuard_ChargeOverThresholdTrips(t *testing.T) {
	g := New(3.0)

	for i := 0; i < 3; i++ {
		if err := g.Charge(1.0); err != nil {
			t.Fatalf("charge %d: unexpected error: %v", i+1, err)
		}
	}

	err := g.Charge(1.0)
	if err == nil {
		t.Fatal("expected 4th charge to trip the breaker")
	}
	var limitErr *CostLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("error is not a *CostLimitError: %v", err)
	}
	if !errors.Is(err, ErrCostLimitExceeded) {
		t.Error("expected errors.Is to match ErrCostLimitExceeded")
	}
	if limitErr.Spent != 3.0 || limitErr.Threshold != 3.0 {
		t.Errorf("CostLimitError = %+v, want Spent=3.0 Threshold=3.0", limitErr)
	}

	// A rejected charge must not be recorded.
	if g.Spent() != 3.0 {
		t.Errorf("Spent() = %f, want 3.0 (rejected charge must not persist)", g.Spent())
	}
}

func TestGuard_ResetsAtDayBoundary(t *testing.T) {
	mu := sync.Mutex{}
	now := time.Date(2026, 1, 1, 23, 59, 0, 0, time.UTC)

	g := &Guard{threshold: 5.0, nowFunc: func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}}

	if err := g.Charge(5.0); err != nil {
		t.Fatalf("charge at end of day 1: unexpected error: %v", err)
	}
	if err := g.Charge(0.01); err == nil {
		t.Fatal("expected breaker to be tripped for the rest of day 1")
	}

	mu.Lock()
	now = now.Add(2 * time.Minute) // crosses into 2026-01-02
	mu.Unlock()

	if err := g.Charge(5.0); err != nil {
		t.Fatalf("charge on day 2: expected reset ceiling, got error: %v", err)
	}
}

type fakeGenClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenClient) GenerateContent(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestGuardedGenerator_PassesThroughUnderThreshold(t *testing.T) {
	inner := &fakeGenClient{response: "ok"}
	wrapped := &GuardedGenerator{Inner: inner, Guard: New(1.0), CostPerCall: 0.1}

	resp, err := wrapped.GenerateContent(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Errorf("response = %q, want %q", resp, "ok")
	}
	if inner.calls != 1 {
		t.Errorf("inner.calls = %d, want 1", inner.calls)
	}
}

func TestGuardedGenerator_BlocksWithoutCallingInner(t *testing.T) {
	inner := &fakeGenClient{response: "ok"}
	guard := New(0.1)
	wrapped := &GuardedGenerator{Inner: inner, Guard: guard, CostPerCall: 0.1}

	if _, err := wrapped.GenerateContent(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("first call: unexpected error: %v", err)
	}
	if _, err := wrapped.GenerateContent(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected second call to trip the cost ceiling")
	}
	if inner.calls != 1 {
		t.Errorf("inner.calls = %d, want 1 (second call must short-circuit before reaching the client)", inner.calls)
	}
}
