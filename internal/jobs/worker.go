// Package jobs runs periodic background work, currently corpus rescans that
// keep the index in sync with the manual directory.
package jobs

import (
	"context"
	"log"
	"time"
)

// Processor performs one unit of periodic work.
type Processor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker invokes a Processor on a fixed interval until stopped. A failing
// run is logged and the schedule continues.
type Worker struct {
	processor Processor
	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
}

func NewWorker(processor Processor, interval time.Duration) *Worker {
	return &Worker{
		processor: processor,
		interval:  interval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start runs the polling loop. It blocks until the context is cancelled or
// Stop is called, so callers usually run it in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("jobs: worker started (interval %v)", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("jobs: worker stopped, context cancelled")
			return
		case <-w.stopChan:
			log.Println("jobs: worker stopped")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("jobs: run failed: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for it to finish.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}
