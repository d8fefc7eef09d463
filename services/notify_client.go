package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hireflow/backend/apperrors"
)

// Notifier delivers a message to a destination over email or SMS. Dispatch
// failures are reported to the caller but never block the primary operation.
type Notifier interface {
	Send(ctx context.Context, destination, message string) error
}

type NotifyClient struct {
	apiKey  string
	baseURL string
	channel string
	client  *http.Client
}

func NewNotifyClient(apiKey, baseURL, channel string) *NotifyClient {
	return &NotifyClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		channel: channel,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (n *NotifyClient) Send(ctx context.Context, destination, message string) error {
	payload := map[string]string{
		"channel": n.channel,
		"to":      destination,
		"message": message,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, "notification sender unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.Wrap(apperrors.KindUpstream, "notification dispatch failed",
			fmt.Errorf("notify API error: %d - %s", resp.StatusCode, string(body)))
	}

	slog.Info("Notification dispatched", "channel", n.channel)
	return nil
}
