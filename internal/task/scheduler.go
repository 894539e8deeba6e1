// Package task runs the console's periodic maintenance work.
package task

import (
	"context"
	"sync"
	"time"
)

// JobFunc is one unit of periodic work.
type JobFunc func(context.Context)

// Scheduler runs a job at a fixed interval until stopped. Start and Stop
// are safe to call from any goroutine; Start is idempotent.
type Scheduler struct {
	interval     time.Duration
	job          JobFunc
	controlMutex sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewScheduler builds a Scheduler. A non-positive interval falls back to
// one hour.
func NewScheduler(interval time.Duration, job JobFunc) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{interval: interval, job: job}
}

// Start launches the periodic loop. The job also runs once immediately so
// a long interval does not delay the first pass.
func (scheduler *Scheduler) Start(parentContext context.Context) {
	if scheduler == nil || scheduler.job == nil {
		return
	}
	scheduler.controlMutex.Lock()
	if scheduler.cancel != nil {
		scheduler.controlMutex.Unlock()
		return
	}
	runtimeContext, cancel := context.WithCancel(parentContext)
	scheduler.cancel = cancel
	done := make(chan struct{})
	scheduler.done = done
	scheduler.controlMutex.Unlock()

	go scheduler.loop(runtimeContext, done)
}

// Stop halts the loop and waits for an in-flight run to finish.
func (scheduler *Scheduler) Stop() {
	if scheduler == nil {
		return
	}
	scheduler.controlMutex.Lock()
	cancel := scheduler.cancel
	done := scheduler.done
	scheduler.cancel = nil
	scheduler.done = nil
	scheduler.controlMutex.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (scheduler *Scheduler) loop(runtimeContext context.Context, done chan struct{}) {
	defer close(done)

	scheduler.job(runtimeContext)

	ticker := time.NewTicker(scheduler.interval)
	defer ticker.Stop()
	for {
		select {
		case <-runtimeContext.Done():
			return
		case <-ticker.C:
			scheduler.job(runtimeContext)
		}
	}
}
