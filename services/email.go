package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"redforge/models"
)

const sendGridMailEndpoint = "/v3/mail/send"

func welcomeEmail(from string, record models.CustomerRecord) *mail.SGMailV3 {
	tier := record.Tier
	if tier == "" {
		tier = DefaultTier
	}
	tierName := strings.ToUpper(tier[:1]) + tier[1:]
	subject := fmt.Sprintf("Welcome to RedForge %s", tierName)

	plainTextContent := fmt.Sprintf(`Thanks for subscribing to RedForge.

Plan: %s
Account email: %s

Your subscription is active. Reply to this email if you need help getting started.`,
		tierName, record.Email)
	htmlContent := fmt.Sprintf("<p>Thanks for subscribing to RedForge.</p><p>Plan: <strong>%s</strong><br>Account email: %s</p><p>Your subscription is active.</p>",
		tierName, record.Email)

	return mail.NewSingleEmail(
		mail.NewEmail("RedForge", from),
		subject,
		mail.NewEmail("", record.Email),
		plainTextContent,
		htmlContent,
	)
}

func (n *Notifications) sendWelcomeEmail(ctx context.Context, record models.CustomerRecord) {
	if n.cfg.SendGridAPIKey == "" || n.cfg.FromEmail == "" {
		n.log.Debug("welcome email skipped: SendGrid not configured")
		return
	}

	request := sendgrid.GetRequest(n.cfg.SendGridAPIKey, sendGridMailEndpoint, n.cfg.SendGridHost)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(welcomeEmail(n.cfg.FromEmail, record))

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		n.log.Warn("welcome email failed", zap.String("email", record.Email), zap.Error(err))
		return
	}
	if response.StatusCode >= 400 {
		n.log.Warn("welcome email rejected", zap.String("email", record.Email), zap.Int("status", response.StatusCode))
		return
	}
	n.log.Info("welcome email sent", zap.String("email", record.Email), zap.Int("status", response.StatusCode))
}
