package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Resource-Service/internal/usecase"
	"github.com/andreyxaxa/Resource-Service/pkg/logger"
)

// Sweeper retries ledger backlog on two fixed-delay loops, one per event type.
type Sweeper struct {
	publisher usecase.OutboxPublisher
	logger    logger.Interface

	enabled     bool
	createDelay time.Duration
	deleteDelay time.Duration
	tickTimeout time.Duration

	createRunning atomic.Bool
	deleteRunning atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	publisher usecase.OutboxPublisher,
	l logger.Interface,
	enabled bool,
	createDelay time.Duration,
	deleteDelay time.Duration,
	tickTimeout time.Duration,
) *Sweeper {
	return &Sweeper{
		publisher:   publisher,
		logger:      l,
		enabled:     enabled,
		createDelay: createDelay,
		deleteDelay: deleteDelay,
		tickTimeout: tickTimeout,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("Sweeper - Start - scheduler disabled")

		return nil
	}

	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Sweeper - Start - sweeper already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	// 1. повторная доставка CREATE
	s.worker(s.createDelay, s.sweepCreate)

	// 2. повторная доставка DELETE
	s.worker(s.deleteDelay, s.sweepDelete)

	return nil
}

func (s *Sweeper) sweepCreate() {
	s.tick("CREATE", &s.createRunning, s.publisher.ProcessCreateBatchOnce)
}

func (s *Sweeper) sweepDelete() {
	s.tick("DELETE", &s.deleteRunning, s.publisher.ProcessDeleteBatchOnce)
}

// tick runs one batch unless the previous one of the same type is still running.
// Errors and panics are logged so the loop keeps going.
func (s *Sweeper) tick(name string, running *atomic.Bool, task func(ctx context.Context) error) {
	if !running.CompareAndSwap(false, true) {
		s.logger.Debug("Sweeper - tick - %s sweep still running, tick skipped", name)

		return
	}
	defer running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(fmt.Errorf("panic %v", r), "Sweeper - tick - "+name)
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.tickTimeout)
	defer cancel()

	err := task(ctx)
	if err != nil {
		s.logger.Error(err, "Sweeper - tick - "+name)
	}
}

// worker waits delay after the end of each task, not between starts.
func (s *Sweeper) worker(delay time.Duration, task func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-timer.C:
				task()
				timer.Reset(delay)
			}
		}
	}()
}

func (s *Sweeper) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Sweeper - Shutdown: %w", ctx.Err())
	}
}
