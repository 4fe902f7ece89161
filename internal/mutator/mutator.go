// Package mutator runs the periodic randomize pass that simulates a live
// station feed.
package mutator

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Randomizer perturbs every station in one pass.
type Randomizer interface {
	RandomizeAll(ctx context.Context) (int, error)
}

// Service calls RandomizeAll on a fixed interval until its context ends.
type Service struct {
	engine      Randomizer
	interval    atomic.Int64
	passTimeout time.Duration
}

// NewService creates a mutator ticking every interval. A pass is bounded by
// passTimeout; zero means unbounded.
func NewService(engine Randomizer, interval, passTimeout time.Duration) *Service {
	s := &Service{engine: engine, passTimeout: passTimeout}
	s.SetInterval(interval)
	return s
}

// SetInterval changes the delay before the next pass. Non-positive values
// are ignored.
func (s *Service) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	if old := time.Duration(s.interval.Swap(int64(d))); old != 0 && old != d {
		log.Printf("Mutator interval changed from %s to %s", old, d)
	}
}

// Interval returns the current delay between passes.
func (s *Service) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// Run executes a pass immediately and then one per interval. Cancellation
// is observed between passes; a pass in flight runs to completion.
func (s *Service) Run(ctx context.Context) {
	log.Println("Starting live mutator...")

	s.RunOnce(ctx)

	timer := time.NewTimer(s.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Live mutator shutting down.")
			return
		case <-timer.C:
			s.RunOnce(ctx)
			timer.Reset(s.Interval())
		}
	}
}

// RunOnce performs a single randomize pass. Failures are logged and
// reported; the schedule is not affected.
func (s *Service) RunOnce(ctx context.Context) error {
	passCtx := context.WithoutCancel(ctx)
	if s.passTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(passCtx, s.passTimeout)
		defer cancel()
	}

	n, err := s.engine.RandomizeAll(passCtx)
	if err != nil {
		log.Printf("Randomize pass failed: %v", err)
		return err
	}
	log.Printf("Randomized %d stations", n)
	return nil
}
