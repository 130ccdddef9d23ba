// Package testutil provides a small fixed-size worker pool for fanning
// independent tasks out across goroutines. Only this package's own tests
// exercise it. The reasoning core itself stays single-threaded and
// goroutine-free (§5); nothing under pkg/metaqnl imports this package.
package testutil

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// ErrPoolShutdown is returned by Submit once Shutdown has been called.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shut down")

// Pool is a fixed-size worker pool: a bounded number of goroutines drain a
// task channel until Shutdown is called. Unlike the teacher's dynamically
// scaling pool, test fan-out has a known, small size up front, so there is
// nothing to scale.
type Pool struct {
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
	maxWorkers   int
}

// New creates a pool with maxWorkers goroutines. maxWorkers <= 0 defaults to
// runtime.NumCPU().
func New(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	p := &Pool{
		taskChan:     make(chan func(), maxWorkers*2),
		shutdownChan: make(chan struct{}),
		maxWorkers:   maxWorkers,
	}
	for i := 0; i < maxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.workerWg.Done()
	for {
		select {
		case task := <-p.taskChan:
			if task != nil {
				task()
			}
		case <-p.shutdownChan:
			for task := range p.taskChan {
				if task != nil {
					task()
				}
			}
			return
		}
	}
}

// Submit enqueues task, blocking until a slot frees up, ctx is cancelled, or
// the pool is shut down.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case <-p.shutdownChan:
		return ErrPoolShutdown
	default:
	}
	select {
	case p.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown stops all workers, waiting for in-flight and already queued tasks
// to finish. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.shutdownChan)
		close(p.taskChan)
		p.workerWg.Wait()
	})
}

// Workers returns the fixed worker count.
func (p *Pool) Workers() int { return p.maxWorkers }
