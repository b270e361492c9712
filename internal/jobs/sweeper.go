package jobs

import (
	"context"
	"log"
)

// Sweepable defines the interface for stores that can evict their expired
// entries
type Sweepable interface {
	Sweep() int
}

// SweepTask evicts expired entries from one store on each worker tick
type SweepTask struct {
	name   string
	target Sweepable
}

// NewSweepTask creates a new SweepTask instance
func NewSweepTask(name string, target Sweepable) *SweepTask {
	return &SweepTask{
		name:   name,
		target: target,
	}
}

// Name implements the Task interface
func (t *SweepTask) Name() string {
	return t.name
}

// Run implements the Task interface
func (t *SweepTask) Run(_ context.Context) error {
	if evicted := t.target.Sweep(); evicted > 0 {
		log.Printf("Swept %d expired entries from %s", evicted, t.name)
	}
	return nil
}
