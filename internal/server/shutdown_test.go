package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestShutdownClosesInReverseOrder(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{})

	var order []string
	sm.RegisterCloser(CloserFunc(func() error {
		order = append(order, "first")
		return nil
	}))
	sm.RegisterCloser(CloserFunc(func() error {
		order = append(order, "second")
		return nil
	}))

	if err := sm.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("expected LIFO close order, got %v", order)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{})

	var calls int32
	sm.RegisterCloser(CloserFunc(func() error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	sm.Shutdown(context.Background())
	sm.Shutdown(context.Background())

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("closer called %d times, want 1", got)
	}
}

func TestTrackRequestDuringShutdown(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{})

	if !sm.TrackRequest() {
		t.Fatal("expected tracking to succeed before shutdown")
	}
	sm.UntrackRequest()

	sm.Shutdown(context.Background())

	if sm.TrackRequest() {
		t.Error("expected tracking to fail during shutdown")
	}
	if !sm.IsShuttingDown() {
		t.Error("expected shutting-down state")
	}
}

func TestShutdownDrainsInFlight(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{DrainTimeout: time.Second})

	sm.TrackRequest()
	go func() {
		time.Sleep(100 * time.Millisecond)
		sm.UntrackRequest()
	}()

	start := time.Now()
	if err := sm.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("shutdown returned before drain, after %v", elapsed)
	}
}

func TestShutdownDrainTimeout(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{DrainTimeout: 100 * time.Millisecond})

	sm.TrackRequest() // never released

	if err := sm.Shutdown(context.Background()); err == nil {
		t.Error("expected drain timeout error")
	}
}

func TestShutdownMiddlewareRejectsDuringShutdown(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{})
	handler := ShutdownMiddleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 before shutdown, got %d", rec.Code)
	}

	sm.Shutdown(context.Background())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 during shutdown, got %d", rec.Code)
	}
}

func TestListenForSignalsContextCancel(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sm.ListenForSignals(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ListenForSignals did not return after context cancel")
	}
}
