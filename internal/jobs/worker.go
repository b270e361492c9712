package jobs

import (
	"context"
	"log"
	"time"
)

// Task defines the interface for one unit of recurring background work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Worker drives registered maintenance tasks on a fixed interval
type Worker struct {
	tasks    []Task
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(interval time.Duration, tasks ...Task) *Worker {
	return &Worker{
		tasks:    tasks,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the worker's ticking loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("Maintenance worker started with interval: %v", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Maintenance worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("Maintenance worker stopped: stop signal received")
			return
		case <-ticker.C:
			w.runTasks(ctx)
		}
	}
}

func (w *Worker) runTasks(ctx context.Context) {
	for _, task := range w.tasks {
		if err := task.Run(ctx); err != nil {
			log.Printf("Error running task %s: %v", task.Name(), err)
		}
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("Maintenance worker shutdown complete")
}
