package benchmark

import (
	"sync"
	"sync/atomic"
	"testing"
)

// The benchmarks below compare the ways a worker goroutine can hand its result back to a host that
// polls once per tick and must never block

type result struct {
	code int
}

func BenchmarkWaitGroup(b *testing.B) {
	for n := 0; n < b.N; n++ {
		var (
			wg  sync.WaitGroup
			res *result
		)
		wg.Add(1)
		go func() {
			res = &result{}
			wg.Done()
		}()
		wg.Wait()
		_ = res
	}
}

// BenchmarkBufferedResult is the pattern used by the transfer worker: a buffered result channel
// drained with a non blocking select, and a closed channel marking the goroutine exit
func BenchmarkBufferedResult(b *testing.B) {
	for n := 0; n < b.N; n++ {
		var (
			done   = make(chan *result, 1)
			exited = make(chan struct{})
		)
		go func() {
			defer close(exited)
			done <- &result{}
		}()
		for polled := false; !polled; {
			select {
			case res := <-done:
				_ = res
				polled = true
			default:
			}
		}
		<-exited
	}
}

func BenchmarkUnbufferedResult(b *testing.B) {
	for n := 0; n < b.N; n++ {
		done := make(chan *result)
		go func() {
			done <- &result{}
		}()
		<-done
	}
}

func BenchmarkAtomicFlag(b *testing.B) {
	for n := 0; n < b.N; n++ {
		var (
			flag int32
			res  *result
			mu   sync.Mutex
		)
		go func() {
			mu.Lock()
			res = &result{}
			mu.Unlock()
			atomic.StoreInt32(&flag, 1)
		}()
		for atomic.LoadInt32(&flag) == 0 {
		}
		mu.Lock()
		_ = res
		mu.Unlock()
	}
}
