package utils

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	fail := errors.New("boom")

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return fail }); !errors.Is(err, fail) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}

	called := false
	err := cb.Call(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("open breaker must not execute the call")
	}
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	fail := errors.New("boom")

	cb.Call(func() error { return fail })
	cb.Call(func() error { return fail })
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("success call: %v", err)
	}

	// The earlier failures were cleared; two more must not open it.
	cb.Call(func() error { return fail })
	cb.Call(func() error { return fail })
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Errorf("breaker opened too early: %v", err)
	}
}

func TestCircuitBreakerHalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(2, 10*time.Millisecond)
	fail := errors.New("boom")

	cb.Call(func() error { return fail })
	cb.Call(func() error { return fail })
	if err := cb.Call(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open breaker, got %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	// First probe succeeds and closes the breaker.
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Errorf("breaker should be closed after successful probe: %v", err)
	}
}

func TestCircuitBreakerFailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(2, 10*time.Millisecond)
	fail := errors.New("boom")

	cb.Call(func() error { return fail })
	cb.Call(func() error { return fail })

	time.Sleep(20 * time.Millisecond)

	if err := cb.Call(func() error { return fail }); !errors.Is(err, fail) {
		t.Fatalf("probe err = %v, want boom", err)
	}
	if err := cb.Call(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("failed probe must reopen the breaker, got %v", err)
	}
}
