package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"mise-planner/internal/pkg/common"
)

type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.t = f.t.Add(d)
	return nil
}

func newTestClient(clock *fakeClock) *Client {
	opts := DefaultOptions()
	opts.Now = clock.now
	opts.Sleep = clock.sleep
	return New(opts)
}

func TestMain(m *testing.M) {
	common.InitNopLogger()
	m.Run()
}

func TestDoReturnsRateLimitedResponseAfterRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTestClient(clock)

	resp, err := c.Get(context.Background(), srv.URL, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if string(resp.Body) != "slow down" {
		t.Fatalf("body = %q", resp.Body)
	}
	if got := atomic.LoadInt32(&hits); got != 4 {
		t.Fatalf("hits = %d, want 4", got)
	}
	want := []time.Duration{800 * time.Millisecond, 1600 * time.Millisecond, 3200 * time.Millisecond}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Fatalf("sleeps = %v, want %v", clock.sleeps, want)
	}
}

func TestDoSucceedsAfterTwoRateLimits(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTestClient(clock)

	resp, err := c.Get(context.Background(), srv.URL, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	want := []time.Duration{800 * time.Millisecond, 1600 * time.Millisecond}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Fatalf("sleeps = %v, want %v", clock.sleeps, want)
	}
}

func TestDoReturnsOtherErrorsImmediately(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTestClient(clock)

	resp, err := c.Get(context.Background(), srv.URL, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if hits != 1 || len(clock.sleeps) != 0 {
		t.Fatalf("hits = %d sleeps = %v, want one call and no sleeps", hits, clock.sleeps)
	}
}

func TestDoSendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("page = %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTestClient(clock)
	_, err := c.Get(context.Background(), srv.URL, Request{
		Headers: map[string]string{"Authorization": "Bearer abc"},
		Query:   map[string][]string{"page": {"2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPacerSpacesConsecutiveCalls(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := NewPacer(1100*time.Millisecond).WithClock(clock.now, clock.sleep)
	ctx := context.Background()

	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if len(clock.sleeps) != 0 {
		t.Fatalf("first call slept %v", clock.sleeps)
	}

	clock.t = clock.t.Add(300 * time.Millisecond)
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 800*time.Millisecond {
		t.Fatalf("sleeps = %v, want [800ms]", clock.sleeps)
	}

	clock.t = clock.t.Add(2 * time.Second)
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if len(clock.sleeps) != 1 {
		t.Fatalf("unexpected sleep after idle gap: %v", clock.sleeps)
	}
}

func TestPacersAreIsolated(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := NewPacer(time.Second).WithClock(clock.now, clock.sleep)
	b := NewPacer(time.Second).WithClock(clock.now, clock.sleep)

	a.Wait(context.Background())
	b.Wait(context.Background())
	if len(clock.sleeps) != 0 {
		t.Fatalf("independent pacers should not wait on each other: %v", clock.sleeps)
	}
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); err == nil {
		t.Fatal("expected context error")
	}
}
