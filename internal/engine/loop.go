package engine

import (
	"context"
	"log/slog"
	"time"
)

// Loop drives a session forward in real time.
type Loop struct {
	Interval time.Duration // Base tick interval
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused

	running bool
	stop    chan struct{}
}

// NewLoop creates a loop with default settings.
func NewLoop() *Loop {
	return &Loop{
		Interval: 2 * time.Second,
		Speed:    1.0,
		stop:     make(chan struct{}),
	}
}

// Run ticks the session until it ends or Stop is called. Blocks.
func (l *Loop) Run(ctx context.Context, s *Session) {
	l.running = true
	slog.Info("game loop started", "session", s.ID, "interval", l.Interval)

	for l.running {
		if l.Speed <= 0 {
			// Paused.
			select {
			case <-l.stop:
				l.running = false
			case <-ctx.Done():
				l.running = false
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		start := time.Now()
		s.Tick(ctx)

		if ended, reason := s.Ended(); ended {
			slog.Info("game over", "session", s.ID, "reason", reason)
			break
		}

		elapsed := time.Since(start)
		target := time.Duration(float64(l.Interval) / l.Speed)
		wait := target - elapsed
		if wait < 0 {
			wait = 0
		}
		select {
		case <-l.stop:
			l.running = false
		case <-ctx.Done():
			l.running = false
		case <-time.After(wait):
		}
	}

	slog.Info("game loop stopped", "session", s.ID, "game_time", s.State.GameTime)
}

// Stop halts the loop.
func (l *Loop) Stop() {
	close(l.stop)
}
