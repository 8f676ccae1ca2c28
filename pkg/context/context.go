package context

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/assetnote/kitefetch/pkg/log"
)

var (
	ctx            context.Context
	cancel         context.CancelFunc
	ctxInitialized sync.Once

	interrupts int32
	// exit is invoked on the second interrupt
	exit = os.Exit
)

// AddInterruptCancellation will add an interrupt handler that will catch the first SIGTERM and cancel the context.
// In flight requests are then cancelled by their host loop and still report back.
// Upon a second SIGTERM, the program will exit immediately
func AddInterruptCancellation(ctx context.Context, cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		// done is dropped once seen, we still wait for a second interrupt after that
		done := ctx.Done()
		for {
			select {
			case <-c:
				if atomic.AddInt32(&interrupts, 1) > 1 {
					log.Info().Msg("Received multiple interrupt signals. Exiting")
					exit(1)
					return
				}
				log.Info().Msg("Received interrupt signal. cancelling in flight requests")
				cancel()
			case <-done:
				done = nil
			}
		}
	}()
}

// Interrupts returns how many interrupt signals were caught so far
func Interrupts() int {
	return int(atomic.LoadInt32(&interrupts))
}

// Interrupted polls ctx without blocking. Host loops call this once per tick rather than selecting on Done
func Interrupted(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// InitContext will initialize the global context used to catch interrupts. This is automatically called
// by Context and Cancel
func InitContext() {
	ctxInitialized.Do(func() {
		ctx, cancel = context.WithCancel(context.Background())
		AddInterruptCancellation(ctx, cancel)
	})
}

// Context will initialize the global context and attach the interrupt handler that will cancel the context
// upon SIGTERM. This is safe to call from multiple goroutines and will always return the same context
func Context() context.Context {
	InitContext()
	return ctx
}

// Cancel will cancel the global context. Calling this multiple times is the equivalent of cancelling
// the same context multiple times
func Cancel() {
	InitContext()
	cancel()
}
