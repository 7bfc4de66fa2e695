package internal

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats periodically logs how many items were handled
// and how many of them failed since the last report.
type Stats struct {
	l *Logger

	interval time.Duration

	itemCount   atomic.Uint64
	failedCount atomic.Uint64
}

func NewStats(l *Logger, interval time.Duration) *Stats {
	if interval <= 0 {
		interval = time.Second
	}

	return &Stats{
		l: l,

		interval: interval,
	}
}

// Run logs the rates until ctx is done. Silent periods are not logged.
func (s *Stats) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			itemCount, failedCount := s.swap()
			if itemCount == 0 && failedCount == 0 {
				continue
			}

			seconds := s.interval.Seconds()
			s.l.Info("stats",
				"items_per_sec", float64(itemCount)/seconds,
				"failed_per_sec", float64(failedCount)/seconds,
			)
		}
	}
}

func (s *Stats) swap() (uint64, uint64) {
	return s.itemCount.Swap(0), s.failedCount.Swap(0)
}

func (s *Stats) IncrementItemCount() {
	s.itemCount.Add(1)
}

func (s *Stats) IncrementFailedCount() {
	s.failedCount.Add(1)
}
