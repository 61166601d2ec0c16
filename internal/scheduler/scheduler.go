package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
	"github.com/tasktrack-dev/tasktrack/internal/services"
)

// Reminder is the slice of the notification dispatcher the sweeper needs.
type Reminder interface {
	DueForReminder(ctx context.Context, window time.Duration) ([]uint, error)
	SweepDeadlineReminder(ctx context.Context, taskID uint, window time.Duration) (services.DispatchResult, error)
}

// Scheduler periodically sends deadline reminders for tasks due within the window.
type Scheduler struct {
	reminder Reminder
	interval time.Duration
	window   time.Duration

	mu      sync.RWMutex
	lastRun time.Time
	sent    int
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(reminder Reminder, interval, window time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		reminder: reminder,
		interval: interval,
		window:   window,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval until Stop. Calls on a
// running or stopped scheduler do nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	logging.Logger.WithFields(logrus.Fields{
		"interval": s.interval.String(),
		"window":   s.window.String(),
	}).Info("starting reminder scheduler")

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(s.ctx)
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(s.ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	s.cancel()
	if wasRunning {
		<-s.done
	}
	logging.Logger.Info("reminder scheduler stopped")
}

// RunOnce sweeps every due task and returns how many tasks reminded at least one
// assignee. A failing task is logged and skipped.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	ids, err := s.reminder.DueForReminder(ctx, s.window)
	if err != nil {
		logging.Logger.WithError(err).Error("failed to list tasks due for reminder")
		return 0
	}

	sent := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		result, err := s.reminder.SweepDeadlineReminder(ctx, id, s.window)
		if err != nil {
			logging.Logger.WithError(err).WithField("task_id", id).Warn("deadline reminder failed")
			continue
		}

		logging.Logger.WithFields(logrus.Fields{
			"task_id":  id,
			"notified": result.Notified,
			"failed":   result.Failed,
		}).Debug("deadline reminder swept")
		if result.Notified > 0 {
			sent++
		}
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.sent += sent
	s.mu.Unlock()

	return sent
}

// GetStatus returns current scheduler status
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"running":        s.running && s.ctx.Err() == nil,
		"last_run":       s.lastRun,
		"reminders_sent": s.sent,
	}
}
