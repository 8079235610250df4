// Package notify delivers alert payloads to a Slack incoming webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/siteops/metrics-sentinel/internal/domain"
)

// Notifier is the notification transport consumed by the engine.
type Notifier interface {
	// Send posts a plain-text message with an optional Block Kit block list.
	Send(ctx context.Context, message string, blocks []Block) error
}

// TextObject is a Block Kit text element.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block is one Block Kit layout block. Only the shapes the engine emits are
// modeled: header, section (text or fields), and context.
type Block struct {
	Type     string       `json:"type"`
	Text     *TextObject  `json:"text,omitempty"`
	Fields   []TextObject `json:"fields,omitempty"`
	Elements []TextObject `json:"elements,omitempty"`
}

func mrkdwn(text string) TextObject {
	return TextObject{Type: "mrkdwn", Text: text}
}

func plainText(text string) TextObject {
	return TextObject{Type: "plain_text", Text: text}
}

type webhookPayload struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// SlackNotifier posts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier validates the webhook URL and returns a notifier.
func NewSlackNotifier(webhookURL string) (*SlackNotifier, error) {
	if !strings.Contains(webhookURL, "hooks.slack.com/services/") {
		return nil, domain.ErrInvalidWebhook
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (n *SlackNotifier) Send(ctx context.Context, message string, blocks []Block) error {
	body, err := json.Marshal(webhookPayload{Text: message, Blocks: blocks})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
