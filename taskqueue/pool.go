// Package taskqueue bounds how many renders run at once. Work is accepted
// into a fixed-size in-memory queue and executed by a fixed set of workers.
package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"manimserve/logger"
)

var (
	// ErrQueueFull is returned by Submit when every worker is busy and the
	// queue has no free slot.
	ErrQueueFull = errors.New("render queue is full")
	// ErrClosed is returned once Shutdown has begun.
	ErrClosed = errors.New("render queue is shut down")
)

// Task receives a context that is cancelled only if Shutdown gives up
// waiting.
type Task func(ctx context.Context)

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers  int `json:"workers"`
	Queued   int `json:"queued"`
	Capacity int `json:"capacity"`
}

type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan Task

	g       *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	workers int
}

// NewPool starts workers goroutines reading from a queue of queueSize.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:   make(chan Task, queueSize),
		g:       &errgroup.Group{},
		ctx:     ctx,
		cancel:  cancel,
		workers: workers,
	}
	for i := 0; i < workers; i++ {
		p.g.Go(func() error {
			for task := range p.tasks {
				p.runTask(task)
			}
			return nil
		})
	}
	logger.Infof("render pool started: %d workers, queue size %d", workers, queueSize)
	return p
}

func (p *Pool) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("render task panicked: %v", r)
		}
	}()
	task(p.ctx)
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run waits for a free slot, runs fn on a worker with ctx and returns its
// error. If ctx ends first Run returns ctx.Err(); fn is then skipped if it
// had not started, or left to finish on its own.
func (p *Pool) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	task := func(context.Context) {
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		done <- fn(ctx)
	}

	if err := p.enqueueWait(ctx, task); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) enqueueWait(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) Stats() Stats {
	return Stats{Workers: p.workers, Queued: len(p.tasks), Capacity: cap(p.tasks)}
}

// Shutdown stops accepting work and waits for queued and running tasks to
// finish. If ctx ends first, the context handed to tasks is cancelled so
// the rest of the queue winds down quickly, and the ctx error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		_ = p.g.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-drained
		return fmt.Errorf("render queue drain interrupted: %w", ctx.Err())
	}
}
