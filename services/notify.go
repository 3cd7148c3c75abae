package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"redforge/models"
)

// Notifier is told about every newly stored customer.
type Notifier interface {
	CustomerCreated(record models.CustomerRecord)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) CustomerCreated(models.CustomerRecord) {}

type NotificationsConfig struct {
	SlackWebhookURL string

	SendGridAPIKey string
	// SendGridHost overrides the API host; empty means the public API.
	SendGridHost string
	FromEmail    string

	Timeout time.Duration
}

// Notifications fans a new customer out to Slack and a SendGrid welcome
// email. Delivery is best effort and never blocks the caller.
type Notifications struct {
	log *zap.Logger
	cfg NotificationsConfig

	wg sync.WaitGroup
}

func NewNotifications(log *zap.Logger, cfg NotificationsConfig) *Notifications {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Notifications{log: log, cfg: cfg}
}

func (n *Notifications) CustomerCreated(record models.CustomerRecord) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("notification panic recovered", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
		defer cancel()

		n.sendSlack(ctx, record)
		n.sendWelcomeEmail(ctx, record)
	}()
}

// Wait blocks until in-flight notifications have finished.
func (n *Notifications) Wait() {
	n.wg.Wait()
}
