package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Flavor string

const (
	FlavorSlack   Flavor = "slack"
	FlavorDiscord Flavor = "discord"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorBlue = 3447003

	Username = "TaskTrack"
)

// Webhook posts every message to one chat webhook, naming the recipient in the payload.
type Webhook struct {
	url    string
	flavor Flavor
	client *http.Client
}

func NewWebhook(url string, flavor Flavor) *Webhook {
	return &Webhook{url: url, flavor: flavor, client: &http.Client{}}
}

func (w *Webhook) Send(ctx context.Context, to, subject, body string) error {
	var payload any

	switch w.flavor {
	case FlavorDiscord:
		payload = DiscordWebhookRequest{
			Username: Username,
			Embeds: []DiscordEmbed{
				{
					Title:       subject,
					Description: body,
					Color:       ColorBlue,
					Fields:      []DiscordWebhookField{{Name: "Recipient", Value: to, Inline: true}},
					Timestamp:   time.Now().Format(time.RFC3339),
				},
			},
		}
	default:
		payload = SlackWebhookRequest{
			Username: Username,
			Text:     subject,
			Attachments: []SlackAttachment{
				{
					Color:     "good",
					Title:     subject,
					Text:      body,
					Fields:    []SlackField{{Title: "Recipient", Value: to, Short: true}},
					Timestamp: time.Now().Unix(),
				},
			},
		}
	}

	return w.post(ctx, payload)
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", w.flavor, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s webhook request: %w", w.flavor, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s webhook: %w", w.flavor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s webhook returned status %d", w.flavor, resp.StatusCode)
	}

	return nil
}
