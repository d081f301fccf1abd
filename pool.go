package cartolive

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Executor runs scan tasks and the periodic progress tick.
type Executor interface {
	// Submit queues fn for execution. It may block until a worker slot is free.
	Submit(fn func())
	// Repeat calls fn every period until the returned Timer is stopped.
	// Calls never overlap.
	Repeat(period time.Duration, fn func()) Timer
}

type Timer interface {
	Stop()
}

// Pool is an Executor bounded to a fixed number of concurrent tasks.
type Pool struct {
	ctx   context.Context
	group *errgroup.Group
}

// NewPool creates a pool running at most concurrency tasks at once. A
// concurrency of zero uses GOMAXPROCS. Tasks submitted after ctx is done are
// dropped.
func NewPool(ctx context.Context, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	group := &errgroup.Group{}
	group.SetLimit(concurrency)
	return &Pool{ctx: ctx, group: group}
}

func (p *Pool) Submit(fn func()) {
	if p.ctx.Err() != nil {
		return
	}
	p.group.Go(func() error {
		if p.ctx.Err() != nil {
			return nil
		}
		fn()
		return nil
	})
}

func (p *Pool) Repeat(period time.Duration, fn func()) Timer {
	t := &tickerTimer{stop: make(chan struct{})}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-p.ctx.Done():
				return
			case <-ticker.C:
			}

			// a stop racing with the tick wins
			select {
			case <-t.stop:
				return
			default:
			}
			fn()
		}
	}()
	return t
}

// Wait blocks until every submitted task has returned.
func (p *Pool) Wait() error {
	return p.group.Wait()
}

type tickerTimer struct {
	once sync.Once
	stop chan struct{}
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		close(t.stop)
	})
}
