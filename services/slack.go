package services

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"redforge/models"
)

func slackCustomerText(record models.CustomerRecord) string {
	text := fmt.Sprintf("New RedForge customer\n\nEmail: %s\nTier: %s\nSource: %s",
		record.Email, record.Tier, record.Source)
	if record.StripeCustomerID != "" {
		text += "\nStripe customer: " + record.StripeCustomerID
	}
	return text
}

func (n *Notifications) sendSlack(ctx context.Context, record models.CustomerRecord) {
	if n.cfg.SlackWebhookURL == "" {
		n.log.Debug("slack skipped: SLACK_WEBHOOK_URL not set")
		return
	}

	msg := &slack.WebhookMessage{Text: slackCustomerText(record)}
	if err := slack.PostWebhookContext(ctx, n.cfg.SlackWebhookURL, msg); err != nil {
		n.log.Warn("slack notification failed", zap.String("email", record.Email), zap.Error(err))
		return
	}
	n.log.Info("slack notification sent", zap.String("email", record.Email))
}
