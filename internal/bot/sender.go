package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Sender delivers a reply back to a WhatsApp user. Telegram needs no sender:
// its webhook answer carries the reply inline.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// CloudSender posts outbound messages through the Meta Graph API.
type CloudSender struct {
	graphBaseURL  string
	phoneNumberID string
	token         string
	http          *http.Client
}

// NewCloudSender constructs the sender for one business phone number.
func NewCloudSender(graphBaseURL, phoneNumberID, token string) *CloudSender {
	return &CloudSender{
		graphBaseURL:  graphBaseURL,
		phoneNumberID: phoneNumberID,
		token:         token,
		http:          &http.Client{Timeout: 10 * time.Second},
	}
}

type cloudTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// SendText posts one text message to a wa_id recipient.
func (s *CloudSender) SendText(ctx context.Context, to, body string) error {
	msg := cloudTextMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	msg.Text.Body = body

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode whatsapp message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", s.graphBaseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp send rejected: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// LoggingSender wraps a Sender so delivery failures are logged instead of
// propagated. Webhook handlers must always acknowledge, or the platform
// retries the same message.
type LoggingSender struct {
	Sender Sender
	Logger *slog.Logger
}

func (s LoggingSender) SendText(ctx context.Context, to, body string) error {
	if err := s.Sender.SendText(ctx, to, body); err != nil {
		s.Logger.ErrorContext(ctx, "outbound whatsapp delivery failed", "error", err)
	}
	return nil
}
