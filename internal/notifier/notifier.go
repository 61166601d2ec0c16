// Package notifier delivers outbound task notifications.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/config"
)

// Notifier sends one rendered message to one address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Message struct {
	Subject string
	Body    string
}

const dateLayout = "January 02, 2006"

func TaskAssigned(title string, taskID uint) Message {
	return Message{
		Subject: "Task Assigned: " + title,
		Body: fmt.Sprintf(`<h2>You have been assigned a new task</h2>
<p><strong>Task:</strong> %s</p>
<p><strong>Task ID:</strong> %d</p>
<p>Please log in to view the task details.</p>`, title, taskID),
	}
}

func StatusChanged(title, status string) Message {
	return Message{
		Subject: "Task Status Updated: " + title,
		Body: fmt.Sprintf(`<h2>Task Status Changed</h2>
<p><strong>Task:</strong> %s</p>
<p><strong>New Status:</strong> %s</p>
<p>Please log in to view the task details.</p>`, title, status),
	}
}

func DeadlineReminder(title string, due time.Time) Message {
	return Message{
		Subject: "Deadline Reminder: " + title,
		Body: fmt.Sprintf(`<h2>Task Deadline Reminder</h2>
<p><strong>Task:</strong> %s</p>
<p><strong>Due Date:</strong> %s</p>
<p>Please make sure to complete the task before the deadline.</p>`, title, due.Format(dateLayout)),
	}
}

// FormatDue renders a due date the way messages show it.
func FormatDue(due time.Time) string {
	return due.Format(dateLayout)
}

// New builds the configured notifier wrapped in a circuit breaker.
func New(cfg config.NotifierConfig) (Notifier, error) {
	var base Notifier

	switch cfg.Kind {
	case "log", "":
		base = Log{}
	case "smtp":
		base = NewSMTP(cfg.SMTP)
	case "slack":
		base = NewWebhook(cfg.WebhookURL, FlavorSlack)
	case "discord":
		base = NewWebhook(cfg.WebhookURL, FlavorDiscord)
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", cfg.Kind)
	}

	return NewBreaker(base, cfg.Timeout, cfg.BreakerFailures, cfg.BreakerCooldown), nil
}
