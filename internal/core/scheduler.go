/*
unirun — batch recon automation and root-domain extraction in Go
Copyright (C) 2026  trinity999

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package core

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
	"golang.org/x/time/rate"
)

// Scheduler manages a pool of worker goroutines and dispatches WorkItems
// to them based on a hash of the item key. Each worker owns a dedicated
// queue, so items sharing a key are processed by the same worker in
// submission order.
type Scheduler struct {
	numWorkers   int
	workers      []*worker
	ctx          context.Context
	cancel       context.CancelFunc
	shutdown     atomic.Bool
	workItemPool sync.Pool
	activeWork   sync.WaitGroup // Tracks actively processing work items.
}

// worker encapsulates a single worker goroutine and its state.
type worker struct {
	id          int
	cpuAffinity int
	queue       chan *WorkItem
	scheduler   *Scheduler
	ctx         context.Context
	limiter     *rate.Limiter
}

// NewScheduler creates, configures and starts the scheduler and its worker
// pool. On Linux each worker is pinned to a CPU core, best effort.
func NewScheduler(parentCtx context.Context, maxWorkers int) (*Scheduler, error) {
	numWorkers := maxWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU() * WorkerMultiplier
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}

	sctx, cancel := context.WithCancel(parentCtx)

	s := &Scheduler{
		numWorkers: numWorkers,
		workers:    make([]*worker, numWorkers),
		ctx:        sctx,
		cancel:     cancel,
		workItemPool: sync.Pool{
			New: func() interface{} {
				return &WorkItem{}
			},
		},
	}

	for i := 0; i < numWorkers; i++ {
		w := &worker{
			id:          i,
			cpuAffinity: i % runtime.NumCPU(),
			queue:       make(chan *WorkItem, MaxShardQueueSize),
			scheduler:   s,
			ctx:         sctx,
			limiter:     rate.NewLimiter(rate.Limit(DefaultWorkerRate), MaxShardQueueSize),
		}
		s.workers[i] = w
		go w.run()
	}

	log.Debug().Int("workers", numWorkers).Msg("scheduler initialized")
	return s, nil
}

// run is the main processing loop for a single worker goroutine.
func (w *worker) run() {
	setAffinity(w.id, w.cpuAffinity)

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case item := <-w.queue:
			w.process(item)
		}
	}
}

// drain empties the worker's queue after cancellation. Every queued item
// still holds an activeWork count taken at SubmitWork; each must pass
// through process so Wait can return. Callbacks observe the cancelled
// item context and no-op, tallying the item as skipped where the
// pipeline tracks that.
func (w *worker) drain() {
	for {
		select {
		case item := <-w.queue:
			w.process(item)
		default:
			return
		}
	}
}

// process runs one item's callback with panic recovery and returns the
// item to the pool.
func (w *worker) process(item *WorkItem) {
	if item == nil {
		return
	}

	func() {
		defer w.scheduler.activeWork.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Int("worker", w.id).
					Str("key", item.Key).
					Interface("panic", r).
					Msg("panic recovered in worker callback")
			}
		}()

		if err := item.Callback(item); err != nil {
			log.Debug().
				Int("worker", w.id).
				Str("key", item.Key).
				Err(err).
				Msg("work item reported error")
		}
	}()

	// Reset fields before returning the item to the pool so no state
	// leaks between uses.
	item.Callback = nil
	item.Key = ""
	item.Path = ""
	item.Ctx = nil
	w.scheduler.workItemPool.Put(item)
}

// WaitForSlot blocks on the rate limiter of the worker that would receive
// an item with the given key. Callers wait here before SubmitWork so that
// submission itself stays non-blocking.
func (s *Scheduler) WaitForSlot(ctx context.Context, key string) error {
	return s.workerFor(key).limiter.Wait(ctx)
}

// SubmitWork routes a work item to a specific worker queue based on
// hashing the key. The send is non-blocking: a full queue returns
// ErrQueueFull so the caller can apply backpressure.
func (s *Scheduler) SubmitWork(ctx context.Context, key, path string, callback WorkCallback) error {
	if s.shutdown.Load() || s.ctx.Err() != nil {
		return ErrWorkerShutdown
	}
	targetWorker := s.workerFor(key)

	item := s.workItemPool.Get().(*WorkItem)
	item.Key = key
	item.Path = path
	item.Attempt = 0
	item.Callback = callback
	item.Ctx = ctx
	s.activeWork.Add(1)

	select {
	case targetWorker.queue <- item:
		return nil
	default:
		s.activeWork.Done()
		s.workItemPool.Put(item)
		return ErrQueueFull
	}
}

// Wait blocks until all submitted work items have been processed.
func (s *Scheduler) Wait() {
	s.activeWork.Wait()
}

// Shutdown initiates a graceful shutdown of the scheduler and its workers.
// It returns immediately; workers exit as they observe the cancelled
// context.
func (s *Scheduler) Shutdown() {
	if s.shutdown.CompareAndSwap(false, true) {
		s.cancel()
		log.Debug().Msg("scheduler shutdown signal sent")
	}
}

func (s *Scheduler) workerFor(key string) *worker {
	shardIndex := int(xxh3.HashString(key) % uint64(s.numWorkers))
	return s.workers[shardIndex]
}
