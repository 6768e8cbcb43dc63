package shutdown

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverseOnce(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	m.Register("server", func(ctx context.Context) error {
		order = append(order, "server")
		return nil
	})
	m.Register("textfile", func(ctx context.Context) error {
		order = append(order, "textfile")
		return errors.New("disk full")
	})

	errs := m.Shutdown()
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "textfile: disk full")
	assert.Equal(t, []string{"textfile", "server"}, order)

	assert.Empty(t, m.Shutdown())
	assert.Len(t, order, 2)
}

func TestNotifyContextCancelsOnSignal(t *testing.T) {
	m := New(time.Second, nil)
	ctx, cancel := m.NotifyContext(context.Background())
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not canceled by SIGTERM")
	}
}
