package outbox

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
)

type ledgerKey struct {
	eventType entity.EventType
	entityID  int64
}

type memTxKey struct{}

type memTx struct {
	hooks []func()
}

// memLedger keeps rows in memory and emulates row locks that skip rows held by another transaction.
// Writes are applied immediately, there is no rollback.
type memLedger struct {
	mu     sync.Mutex
	rows   map[ledgerKey]*entity.OutboxEvent
	locks  map[ledgerKey]*memTx
	nextID int64
	now    time.Time
}

func newMemLedger() *memLedger {
	return &memLedger{
		rows:  make(map[ledgerKey]*entity.OutboxEvent),
		locks: make(map[ledgerKey]*memTx),
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)

	return tx
}

func (l *memLedger) insert(eventType entity.EventType, entityID int64, payload []byte) {
	l.nextID++
	l.now = l.now.Add(time.Second)
	l.rows[ledgerKey{eventType, entityID}] = &entity.OutboxEvent{
		ID:        l.nextID,
		Type:      eventType,
		EntityID:  entityID,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: l.now,
	}
}

func (l *memLedger) UpsertCreate(_ context.Context, entityID int64, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.rows[ledgerKey{entity.CreateMetadata, entityID}]
	if !ok {
		l.insert(entity.CreateMetadata, entityID, payload)

		return nil
	}

	row.Payload = append([]byte(nil), payload...)
	row.Attempts = 0
	row.LastError = nil

	return nil
}

func (l *memLedger) InsertDeletes(_ context.Context, entityIDs []int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range entityIDs {
		if _, ok := l.rows[ledgerKey{entity.DeleteMetadata, id}]; ok {
			continue
		}
		l.insert(entity.DeleteMetadata, id, []byte("{}"))
	}

	return nil
}

func (l *memLedger) claimable(ctx context.Context, k ledgerKey, maxAttempts int) bool {
	row, ok := l.rows[k]
	if !ok || row.Exhausted(maxAttempts) {
		return false
	}

	owner, locked := l.locks[k]

	return !locked || owner == txFrom(ctx)
}

func (l *memLedger) Claim(ctx context.Context, eventType entity.EventType, entityIDs []int64, maxAttempts int) ([]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var claimed []int64
	for _, id := range entityIDs {
		k := ledgerKey{eventType, id}
		if !l.claimable(ctx, k, maxAttempts) {
			continue
		}
		l.locks[k] = txFrom(ctx)
		claimed = append(claimed, id)
	}

	return claimed, nil
}

func (l *memLedger) ClaimBatch(ctx context.Context, eventType entity.EventType, maxAttempts, limit int) ([]*entity.OutboxEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var candidates []*entity.OutboxEvent
	for k, row := range l.rows {
		if k.eventType == eventType && l.claimable(ctx, k, maxAttempts) {
			candidates = append(candidates, row)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID < candidates[j].ID
		}

		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	events := make([]*entity.OutboxEvent, 0, len(candidates))
	for _, row := range candidates {
		l.locks[ledgerKey{eventType, row.EntityID}] = txFrom(ctx)
		cp := *row
		events = append(events, &cp)
	}

	return events, nil
}

func (l *memLedger) DeleteEvents(_ context.Context, eventType entity.EventType, entityIDs []int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for _, id := range entityIDs {
		k := ledgerKey{eventType, id}
		if _, ok := l.rows[k]; ok {
			delete(l.rows, k)
			n++
		}
	}

	return n, nil
}

func (l *memLedger) MarkFailed(_ context.Context, eventType entity.EventType, entityIDs []int64, lastError string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for _, id := range entityIDs {
		if row, ok := l.rows[ledgerKey{eventType, id}]; ok {
			row.Attempts++
			msg := lastError
			row.LastError = &msg
			n++
		}
	}

	return n, nil
}

func (l *memLedger) MarkExhausted(_ context.Context, eventType entity.EventType, entityIDs []int64, lastError string, maxAttempts int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for _, id := range entityIDs {
		if row, ok := l.rows[ledgerKey{eventType, id}]; ok {
			row.Attempts = maxAttempts
			msg := lastError
			row.LastError = &msg
			n++
		}
	}

	return n, nil
}

func (l *memLedger) release(tx *memTx) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, owner := range l.locks {
		if owner == tx {
			delete(l.locks, k)
		}
	}
}

func (l *memLedger) row(eventType entity.EventType, entityID int64) (entity.OutboxEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.rows[ledgerKey{eventType, entityID}]
	if !ok {
		return entity.OutboxEvent{}, false
	}

	return *row, true
}

func (l *memLedger) setPayload(eventType entity.EventType, entityID int64, payload string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rows[ledgerKey{eventType, entityID}].Payload = []byte(payload)
}

func (l *memLedger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.rows)
}

type memTransactor struct {
	ledger *memLedger
}

func (t *memTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	if t.InTransaction(ctx) {
		return f(ctx)
	}

	tx := &memTx{}
	err := f(context.WithValue(ctx, memTxKey{}, tx))
	t.ledger.release(tx)
	if err != nil {
		return err
	}

	for _, hook := range tx.hooks {
		hook()
	}

	return nil
}

func (t *memTransactor) InTransaction(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

func (t *memTransactor) AfterCommit(ctx context.Context, fn func()) error {
	tx := txFrom(ctx)
	tx.hooks = append(tx.hooks, fn)

	return nil
}

type fakeCatalog struct {
	mu sync.Mutex

	createErr     error
	bulkCreateErr error
	deleteErr     error
	bulkDeleteErr error

	// вызываются внутри соответствующего метода, до возврата
	onCreate     func()
	onBulkCreate func()

	created     []json.RawMessage
	bulkCreated [][]json.RawMessage
	deleted     [][]int64
	bulkDeleted [][]int64
}

func (c *fakeCatalog) CreateSong(_ context.Context, payload json.RawMessage) error {
	if c.onCreate != nil {
		c.onCreate()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.created = append(c.created, payload)

	return c.createErr
}

func (c *fakeCatalog) CreateSongsBulk(_ context.Context, songs []json.RawMessage) error {
	if c.onBulkCreate != nil {
		c.onBulkCreate()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.bulkCreated = append(c.bulkCreated, songs)

	return c.bulkCreateErr
}

func (c *fakeCatalog) DeleteSongs(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleted = append(c.deleted, append([]int64(nil), ids...))

	return c.deleteErr
}

func (c *fakeCatalog) DeleteSongsBulk(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bulkDeleted = append(c.bulkDeleted, append([]int64(nil), ids...))

	return c.bulkDeleteErr
}

func (c *fakeCatalog) createCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.created)
}

func (c *fakeCatalog) bulkCreateCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.bulkCreated)
}
