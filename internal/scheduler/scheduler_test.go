package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/services"
)

type fakeReminder struct {
	mu      sync.Mutex
	due     []uint
	listErr error
	fail    map[uint]bool
	skipped map[uint]bool // nobody left to remind
	sent    []uint
}

func (f *fakeReminder) DueForReminder(context.Context, time.Duration) ([]uint, error) {
	return f.due, f.listErr
}

func (f *fakeReminder) SweepDeadlineReminder(_ context.Context, taskID uint, _ time.Duration) (services.DispatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail[taskID] {
		return services.DispatchResult{}, errors.New("boom")
	}
	if f.skipped[taskID] {
		return services.DispatchResult{}, nil
	}
	f.sent = append(f.sent, taskID)
	return services.DispatchResult{Notified: 1, Attempted: 1}, nil
}

func (f *fakeReminder) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name    string
		due     []uint
		listErr error
		fail    map[uint]bool
		want    int
	}{
		{"nothing due", nil, nil, nil, 0},
		{"all sent", []uint{1, 2, 3}, nil, nil, 3},
		{"failure skipped", []uint{1, 2, 3}, nil, map[uint]bool{2: true}, 2},
		{"listing fails", []uint{1}, errors.New("db down"), nil, 0},
		{"nobody left to remind", []uint{1, 4}, nil, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reminder := &fakeReminder{due: tt.due, listErr: tt.listErr, fail: tt.fail, skipped: map[uint]bool{4: true}}
			s := NewScheduler(reminder, time.Hour, 24*time.Hour)

			if got := s.RunOnce(context.Background()); got != tt.want {
				t.Errorf("RunOnce() = %d, want %d", got, tt.want)
			}
			if status := s.GetStatus(); status["reminders_sent"] != tt.want {
				t.Errorf("reminders_sent = %v, want %d", status["reminders_sent"], tt.want)
			}
		})
	}
}

func TestRunOnceStopsOnCancel(t *testing.T) {
	reminder := &fakeReminder{due: []uint{1, 2}}
	s := NewScheduler(reminder, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := s.RunOnce(ctx); got != 0 {
		t.Errorf("RunOnce() on a cancelled context = %d, want 0", got)
	}
}

func TestStartStop(t *testing.T) {
	reminder := &fakeReminder{due: []uint{7}}
	s := NewScheduler(reminder, time.Hour, time.Hour)

	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for reminder.sentCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if reminder.sentCount() == 0 {
		t.Fatal("expected an immediate sweep on Start")
	}

	s.Stop()
	if running := s.GetStatus()["running"]; running != false {
		t.Errorf("running after Stop = %v", running)
	}
}

func TestStartTwice(t *testing.T) {
	reminder := &fakeReminder{due: []uint{7}}
	s := NewScheduler(reminder, time.Hour, time.Hour)

	s.Start()
	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for reminder.sentCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()

	if got := reminder.sentCount(); got != 1 {
		t.Errorf("sweeps = %d, want one loop", got)
	}

	s.Start()
	if running := s.GetStatus()["running"]; running != false {
		t.Errorf("running after restart of a stopped scheduler = %v", running)
	}
}
