package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nicholas-0101/event-management-api/internal/domain"
)

// StatusNotification is the webhook payload sent on every applied transition
type StatusNotification struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	EventID       string `json:"event_id"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	Reason        string `json:"reason,omitempty"`
	TotalPrice    int64  `json:"total_price"`
	OccurredAt    string `json:"occurred_at"`
}

// Notifier delivers transaction status notifications. Delivery is best effort;
// a failed notification never fails the transition that produced it.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, reason string) error
}

// WebhookNotifier posts notifications to a configured HTTP endpoint
type WebhookNotifier struct {
	client     *resty.Client
	webhookURL string
}

// NewWebhookNotifier creates a Notifier posting to webhookURL
func NewWebhookNotifier(webhookURL string, timeout time.Duration) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	return &WebhookNotifier{client: client, webhookURL: webhookURL}
}

// NotifyStatusChange posts the transition to the webhook endpoint
func (n *WebhookNotifier) NotifyStatusChange(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, reason string) error {
	payload := StatusNotification{
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		EventID:       txn.EventID,
		FromStatus:    string(from),
		ToStatus:      string(txn.Status),
		Reason:        reason,
		TotalPrice:    txn.TotalPrice,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(n.webhookURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}

// NoOpNotifier discards every notification, used when no webhook is configured
type NoOpNotifier struct{}

// NotifyStatusChange does nothing
func (NoOpNotifier) NotifyStatusChange(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, reason string) error {
	return nil
}
