package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook event names.
const (
	EventBinFull = "bin_full"
	EventToast   = "toast"
)

// WebhookNotifier posts toasts as flat JSON events to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier. If secret is non-empty, the
// body is signed with HMAC-SHA256 in the X-Binwatch-Signature header.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// binEvent is the wire shape of one delivery. FillID doubles as the
// delivery key, so receivers can drop retries of the same full-bin event.
type binEvent struct {
	Event      string     `json:"event"`
	Level      AlertLevel `json:"level"`
	Title      string     `json:"title"`
	Message    string     `json:"message,omitempty"`
	Bin        string     `json:"bin,omitempty"`
	FillID     string     `json:"fill_id,omitempty"`
	OccurredAt string     `json:"occurred_at,omitempty"`
	SentAt     string     `json:"sent_at"`
}

func newBinEvent(alert Alert, now time.Time) binEvent {
	ev := binEvent{
		Event:   EventToast,
		Level:   alert.Level,
		Title:   alert.Title,
		Message: alert.Message,
		Bin:     alert.BinID,
		FillID:  alert.FillID,
		SentAt:  now.UTC().Format(time.RFC3339),
	}
	if alert.FillID != "" {
		ev.Event = EventBinFull
	}
	if !alert.Timestamp.IsZero() {
		ev.OccurredAt = alert.Timestamp.UTC().Format(time.RFC3339)
	}
	return ev
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	ev := newBinEvent(alert, time.Now())

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "binwatch/1.0")
	req.Header.Set("X-Binwatch-Event", ev.Event)
	if ev.FillID != "" {
		req.Header.Set("X-Binwatch-Delivery", ev.FillID)
	}
	if w.secret != "" {
		req.Header.Set("X-Binwatch-Signature", "sha256="+Sign(body, w.secret))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s event for %q: %w", ev.Event, ev.Bin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected %s event: status %d", ev.Event, resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
