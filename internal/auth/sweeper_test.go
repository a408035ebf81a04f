package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"findspot-server/internal/observability"
)

type fakeExpiredSweeper struct {
	deleted int64
	err     error
	calls   int
}

func (f *fakeExpiredSweeper) SweepExpired(_ context.Context, _ int) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func TestSweeperDeletesOnTick(t *testing.T) {
	store := &fakeExpiredSweeper{deleted: 3}
	sweeper := NewSweeper(store, observability.NewLogger(), time.Millisecond, 500)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sweeper.Run(ctx)

	assert.Greater(t, store.calls, 0)
}

func TestSweeperSurvivesStoreErrors(t *testing.T) {
	store := &fakeExpiredSweeper{err: errors.New("connection reset")}
	sweeper := NewSweeper(store, observability.NewLogger(), time.Millisecond, 500)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sweeper.Run(ctx)

	// Errors are logged, not fatal: the loop keeps ticking.
	assert.Greater(t, store.calls, 1)
}

func TestSweeperStopsOnCancel(t *testing.T) {
	store := &fakeExpiredSweeper{}
	sweeper := NewSweeper(store, observability.NewLogger(), time.Hour, 500)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancelled context")
	}
	assert.Equal(t, 0, store.calls)
}

func TestSweeperDefaultsInterval(t *testing.T) {
	sweeper := NewSweeper(&fakeExpiredSweeper{}, observability.NewLogger(), 0, 500)
	assert.Equal(t, time.Hour, sweeper.interval)
}
