package context

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func eventually(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestInterruptCancellation(t *testing.T) {
	var exited int32
	exit = func(code int) {
		atomic.StoreInt32(&exited, int32(code))
	}
	defer func() { exit = os.Exit }()
	atomic.StoreInt32(&interrupts, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	AddInterruptCancellation(ctx, cancel)
	assert.False(t, Interrupted(ctx))

	p, err := os.FindProcess(os.Getpid())
	assert.Nil(t, err)

	assert.Nil(t, p.Signal(syscall.SIGTERM))
	eventually(t, func() bool { return Interrupted(ctx) })
	assert.Equal(t, 1, Interrupts())
	assert.Equal(t, int32(0), atomic.LoadInt32(&exited))

	assert.Nil(t, p.Signal(syscall.SIGTERM))
	eventually(t, func() bool { return atomic.LoadInt32(&exited) == 1 })
	assert.Equal(t, 2, Interrupts())
}

func TestInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, Interrupted(ctx))
	cancel()
	assert.True(t, Interrupted(ctx))
}

func TestGlobalContext(t *testing.T) {
	a := Context()
	assert.Equal(t, a, Context())
}
