package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterCommit_OutsideTransaction(t *testing.T) {
	p := &Postgres{}

	err := p.AfterCommit(context.Background(), func() {})

	assert.True(t, errors.Is(err, errs.ErrNoTransaction))
	assert.False(t, p.InTransaction(context.Background()))
}

func TestCommitHooks_RunInOrderOnce(t *testing.T) {
	hooks := &commitHooks{}
	ctx := context.WithValue(context.Background(), hooksKey{}, hooks)

	var order []int
	require.NoError(t, registerAfterCommit(ctx, func() { order = append(order, 1) }))
	require.NoError(t, registerAfterCommit(ctx, func() { order = append(order, 2) }))

	hooks.run()
	hooks.run()

	assert.Equal(t, []int{1, 2}, order)
}
