package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"postgres", "redis", "http_server"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	m.Register("ignored", nil)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http_server", "redis", "postgres"}, order)
}

func TestShutdownJoinsErrorsAndContinues(t *testing.T) {
	m := New(time.Second, nil)
	first := errors.New("close pool")
	second := errors.New("close redis")

	ran := false
	m.Register("postgres", func(context.Context) error { return first })
	m.Register("monitor", func(context.Context) error { ran = true; return nil })
	m.Register("redis", func(context.Context) error { return second })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.True(t, ran)
}

func TestShutdownAppliesTimeout(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, m.Shutdown(context.Background()), context.DeadlineExceeded)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownRunsOnce(t *testing.T) {
	m := New(time.Second, nil)
	calls := 0
	m.RegisterCloser("redis", closerFunc(func() error {
		calls++
		return errors.New("already closed")
	}))
	m.RegisterCloser("none", nil)

	first := m.Shutdown(context.Background())
	second := m.Shutdown(context.Background())

	assert.Equal(t, 1, calls)
	require.Error(t, first)
	assert.Equal(t, first, second)
	assert.Contains(t, first.Error(), "redis: already closed")
}
