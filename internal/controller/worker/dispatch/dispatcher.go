package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/andreyxaxa/Resource-Service/internal/usecase"
	"github.com/andreyxaxa/Resource-Service/pkg/logger"
)

type task struct {
	name string
	run  func(ctx context.Context) error
}

// Dispatcher runs immediate deliveries on a fixed set of workers behind a bounded queue.
// Work that does not fit into the queue is dropped; the sweeper picks it up later.
type Dispatcher struct {
	publisher usecase.OutboxPublisher
	logger    logger.Interface

	workers     int
	taskTimeout time.Duration

	tasks   chan task
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	publisher usecase.OutboxPublisher,
	l logger.Interface,
	workers int,
	queueSize int,
	taskTimeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		publisher:   publisher,
		logger:      l,
		workers:     workers,
		taskTimeout: taskTimeout,
		tasks:       make(chan task, queueSize),
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Dispatcher - Start - dispatcher already started")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	// запускаем воркеры
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return nil
}

func (d *Dispatcher) DispatchCreate(entityID int64, md *entity.SongMetadata) {
	d.submit(task{
		name: fmt.Sprintf("CREATE entity_id=%d", entityID),
		run: func(ctx context.Context) error {
			return d.publisher.ProcessCreateEvent(ctx, entityID, md)
		},
	})
}

func (d *Dispatcher) DispatchDeletes(entityIDs []int64) {
	if len(entityIDs) == 0 {
		return
	}

	ids := append([]int64(nil), entityIDs...)

	d.submit(task{
		name: fmt.Sprintf("DELETE %d entities", len(ids)),
		run: func(ctx context.Context) error {
			return d.publisher.ProcessDeleteEvents(ctx, ids)
		},
	})
}

// Dropped returns how many tasks were discarded because the queue was full or closed.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *Dispatcher) submit(t task) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.logger.Warn("Dispatcher - submit - dispatcher is shut down, dropped %s", t.name)

		return
	}

	// не блокируем вызывающего: переполнение очереди = отброс задачи
	select {
	case d.tasks <- t:
	default:
		d.dropped.Add(1)
		d.logger.Warn("Dispatcher - submit - queue is full, dropped %s", t.name)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	// читаем канал, пока не закроется
	for t := range d.tasks {
		d.execute(t)
	}
}

func (d *Dispatcher) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(fmt.Errorf("panic %v", r), "Dispatcher - worker - panic")
		}
	}()

	ctx, cancel := context.WithTimeout(d.ctx, d.taskTimeout)
	defer cancel()

	err := t.run(ctx)
	if err != nil {
		d.logger.Error(err, "Dispatcher - worker - "+t.name)
	}
}

// Shutdown stops accepting work and lets the workers drain the queue.
// When ctx expires first, in-flight deliveries are cancelled and their transactions roll back.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if !d.started.Load() {
		return nil
	}

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.tasks)
	}
	d.mu.Unlock()

	done := make(chan struct{})

	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()

		return nil
	case <-ctx.Done():
		d.cancel()
		<-done

		return fmt.Errorf("Dispatcher - Shutdown - queue not drained: %w", ctx.Err())
	}
}
