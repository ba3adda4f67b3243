package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/usecase"
	"github.com/xllucky21/xllucky/pkg/cache"
	"github.com/xllucky21/xllucky/pkg/config"
)

func TestExclusiveHonoursCacheLock(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	defer c.Close()
	a := New(Deps{Config: config.Default(), Cache: c})

	key := cache.GenerateKey("lock:job", "bond")
	ok, err := c.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ran := false
	err = a.Exclusive(ctx, "bond", func(context.Context) error { ran = true; return nil })
	assert.ErrorIs(t, err, ErrBusy)
	assert.False(t, ran)

	require.NoError(t, c.Unlock(ctx, key))
	err = a.Exclusive(ctx, "bond", func(context.Context) error { ran = true; return nil })
	require.NoError(t, err)
	assert.True(t, ran)

	ok, err = c.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock released after the run")
}

func TestExclusivePassesErrorsThrough(t *testing.T) {
	a := New(Deps{Config: config.Default()})
	boom := errors.New("boom")
	err := a.Exclusive(context.Background(), "lof", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

type stuckPublisher struct{ err error }

func (p stuckPublisher) PublishScores(context.Context, []models.ScoreEvent) error { return nil }
func (p stuckPublisher) Close() error { return p.err }

func TestCloseReportsProcessorErrors(t *testing.T) {
	flushErr := errors.New("flush timeout")
	a := New(Deps{
		Config:    config.Default(),
		Processor: usecase.NewScoreProcessor(stuckPublisher{err: flushErr}, nil, nil),
	})
	assert.ErrorIs(t, a.Close(context.Background()), flushErr)
}

func TestTasksDependOnWebhook(t *testing.T) {
	cfg := config.Default()
	names := func(ts []Task) []string {
		out := make([]string, 0, len(ts))
		for _, t := range ts {
			out = append(out, t.Name)
		}
		return out
	}

	a := New(Deps{Config: cfg})
	assert.Equal(t, []string{"bond", "dividend", "lof"}, names(a.Tasks()))

	cfg.Push.WebhookURL = "https://example.invalid/hook"
	assert.Equal(t, []string{"bond", "dividend", "lof", "push-daily", "push-alert"}, names(a.Tasks()))
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	cfg := config.Default()
	cfg.Schedule.Dividend = ""
	a := New(Deps{Config: cfg})

	c, err := a.scheduler(context.Background())
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2, "empty spec disables the task")

	cfg.Schedule.Bond = "every tuesday"
	_, err = a.scheduler(context.Background())
	assert.Error(t, err)
}
