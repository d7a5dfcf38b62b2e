package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for webhook delivery
var (
	// ErrNotConfigured means no webhook URL is set
	ErrNotConfigured = errors.New("chat: webhook url not configured")
	// ErrTimeout means the webhook did not respond within the deadline
	ErrTimeout = errors.New("chat: webhook request timed out")
)

// DeliveryError is a non-2xx response from the webhook endpoint
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("chat: webhook returned status %d: %s", e.StatusCode, e.Body)
}

// Notification is the payload delivered to the outbound webhook when a
// quote is sent to a client over chat.
type Notification struct {
	Phone     string `json:"phone"`
	PdfURL    string `json:"pdf_url"`
	DealID    string `json:"deal_id"`
	Timestamp string `json:"timestamp"`
}

// Notifier posts quote notifications to a configured webhook
type Notifier struct {
	webhookURL string
	http       *http.Client
	logger     *zap.Logger
}

// NewNotifier creates a webhook notifier. A zero timeout falls back to
// 15s.
func NewNotifier(webhookURL string, timeout time.Duration, logger *zap.Logger) *Notifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Notifier{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SendQuote posts a quote notification. The phone number must already
// be normalized; Timestamp is filled in here.
func (n *Notifier) SendQuote(ctx context.Context, phone, pdfURL, dealID string) error {
	if n.webhookURL == "" {
		return ErrNotConfigured
	}

	payload := Notification{
		Phone:     phone,
		PdfURL:    pdfURL,
		DealID:    dealID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return ErrTimeout
		}
		return fmt.Errorf("calling webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		n.logger.Warn("webhook delivery failed",
			zap.String("deal_id", dealID),
			zap.Int("status", resp.StatusCode))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	n.logger.Info("quote notification delivered", zap.String("deal_id", dealID))
	return nil
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
