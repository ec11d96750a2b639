package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/andreyxaxa/Resource-Service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	created []int64
	deleted [][]int64

	onCreate func(ctx context.Context, entityID int64) error
}

func (p *fakePublisher) ProcessCreateEvent(ctx context.Context, entityID int64, _ *entity.SongMetadata) error {
	if p.onCreate != nil {
		if err := p.onCreate(ctx, entityID); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.created = append(p.created, entityID)

	return nil
}

func (p *fakePublisher) ProcessDeleteEvents(_ context.Context, entityIDs []int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.deleted = append(p.deleted, entityIDs)

	return nil
}

func (p *fakePublisher) ProcessCreateBatchOnce(context.Context) error { return nil }

func (p *fakePublisher) ProcessDeleteBatchOnce(context.Context) error { return nil }

func (p *fakePublisher) createdIDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]int64(nil), p.created...)
}

func TestDispatcher_DeliversAndDrains(t *testing.T) {
	pub := &fakePublisher{}
	d := New(pub, logger.NewNop(), 2, 10, time.Second)
	require.NoError(t, d.Start(context.Background()))

	d.DispatchCreate(1, &entity.SongMetadata{})
	d.DispatchCreate(2, &entity.SongMetadata{})
	d.DispatchDeletes([]int64{3, 4})
	d.DispatchDeletes(nil)

	require.NoError(t, d.Shutdown(context.Background()))

	assert.ElementsMatch(t, []int64{1, 2}, pub.createdIDs())
	require.Len(t, pub.deleted, 1)
	assert.Equal(t, []int64{3, 4}, pub.deleted[0])
	assert.Zero(t, d.Dropped())
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	pub := &fakePublisher{}
	d := New(pub, logger.NewNop(), 1, 1, time.Second)

	// воркеры еще не запущены, в очередь помещается одна задача
	d.DispatchCreate(1, &entity.SongMetadata{})
	d.DispatchCreate(2, &entity.SongMetadata{})
	d.DispatchCreate(3, &entity.SongMetadata{})

	assert.Equal(t, int64(2), d.Dropped())

	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, []int64{1}, pub.createdIDs())
}

func TestDispatcher_DropsAfterShutdown(t *testing.T) {
	pub := &fakePublisher{}
	d := New(pub, logger.NewNop(), 1, 10, time.Second)
	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Shutdown(context.Background()))

	d.DispatchCreate(1, &entity.SongMetadata{})

	assert.Equal(t, int64(1), d.Dropped())
	assert.Empty(t, pub.createdIDs())
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	pub := &fakePublisher{
		onCreate: func(_ context.Context, entityID int64) error {
			if entityID == 1 {
				panic("boom")
			}

			return nil
		},
	}
	d := New(pub, logger.NewNop(), 1, 10, time.Second)
	require.NoError(t, d.Start(context.Background()))

	d.DispatchCreate(1, &entity.SongMetadata{})
	d.DispatchCreate(2, &entity.SongMetadata{})

	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, []int64{2}, pub.createdIDs())
}

func TestDispatcher_TaskTimeout(t *testing.T) {
	var hasDeadline bool
	pub := &fakePublisher{
		onCreate: func(ctx context.Context, _ int64) error {
			_, hasDeadline = ctx.Deadline()
			<-ctx.Done()

			return ctx.Err()
		},
	}
	d := New(pub, logger.NewNop(), 1, 10, 20*time.Millisecond)
	require.NoError(t, d.Start(context.Background()))

	d.DispatchCreate(1, &entity.SongMetadata{})

	require.NoError(t, d.Shutdown(context.Background()))

	assert.True(t, hasDeadline)
	assert.Empty(t, pub.createdIDs())
}

func TestDispatcher_ShutdownTimeoutCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	pub := &fakePublisher{
		onCreate: func(ctx context.Context, _ int64) error {
			close(started)
			<-ctx.Done()

			return ctx.Err()
		},
	}
	d := New(pub, logger.NewNop(), 1, 10, time.Minute)
	require.NoError(t, d.Start(context.Background()))

	d.DispatchCreate(1, &entity.SongMetadata{})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Shutdown(ctx)
	assert.Error(t, err)
}

func TestDispatcher_StartTwice(t *testing.T) {
	d := New(&fakePublisher{}, logger.NewNop(), 1, 1, time.Second)
	require.NoError(t, d.Start(context.Background()))

	assert.Error(t, d.Start(context.Background()))
	require.NoError(t, d.Shutdown(context.Background()))
}
