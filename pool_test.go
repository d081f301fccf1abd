package cartolive

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(context.Background(), 2)

	var running, peak, total atomic.Int32
	for i := 0; i < 12; i++ {
		pool.Submit(func() {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			total.Add(1)
		})
	}
	if err := pool.Wait(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	if total.Load() != 12 {
		t.Fatalf("expected 12 tasks to run, got %d", total.Load())
	}
	if peak.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent tasks, got %d", peak.Load())
	}
}

func TestPoolDropsTasksAfterContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	cancel()

	var ran atomic.Bool
	pool.Submit(func() { ran.Store(true) })
	_ = pool.Wait()
	if ran.Load() {
		t.Fatal("expected task to be dropped")
	}
}

func TestPoolRepeatStops(t *testing.T) {
	pool := NewPool(context.Background(), 1)

	var calls atomic.Int32
	timer := pool.Repeat(time.Millisecond, func() { calls.Add(1) })

	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for ticks")
		}
		time.Sleep(time.Millisecond)
	}

	timer.Stop()
	timer.Stop()
	time.Sleep(10 * time.Millisecond)
	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if got := calls.Load(); got != n {
		t.Fatalf("expected no ticks after stop, got %d more", got-n)
	}
}
