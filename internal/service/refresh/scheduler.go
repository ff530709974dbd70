package refresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sweepTimeout bounds a single scheduled sweep run.
const sweepTimeout = 5 * time.Minute

// Scheduler triggers periodic sweeps. A zero interval disables the loop
// entirely; the internal trigger endpoint stays available either way.
type Scheduler struct {
	sweeper  *Sweeper
	interval time.Duration
	logger   *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewScheduler wires the sweep scheduler.
func NewScheduler(sweeper *Sweeper, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop in the background.
func (s *Scheduler) Start() {
	if s.interval <= 0 {
		s.log().Info("sweep scheduler disabled, refresh runs on demand only")
		close(s.done)
		return
	}
	s.log().Info("sweep scheduler started", zap.Duration("interval", s.interval))
	go s.run()
}

func (s *Scheduler) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if _, err := s.sweeper.Run(ctx); err != nil {
				s.log().Error("scheduled refresh sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// Stop terminates the loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Scheduler) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
