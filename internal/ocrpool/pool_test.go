package ocrpool

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := New(4)
	var count atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
	}

	wg.Wait()
	p.Close()

	if count.Load() != 50 {
		t.Errorf("expected 50 jobs run, got %d", count.Load())
	}
}

func TestPoolZeroWorkersFallsBackToOne(t *testing.T) {
	p := New(0)
	done := make(chan struct{})
	p.Submit(func() { close(done) })
	<-done
	p.Close()
}
