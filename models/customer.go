package models

import (
	"time"
)

const (
	StatusActive = "active"

	SourceWebhook = "webhook"
	SourceTest    = "test"
)

// CustomerRecord is one completed checkout, appended once and never changed.
type CustomerRecord struct {
	Email                string    `json:"email" validate:"required,email"`
	Tier                 string    `json:"tier" validate:"required,oneof=starter pro enterprise"`
	Status               string    `json:"status" validate:"required"`
	CreatedAt            time.Time `json:"created_at"`
	Source               string    `json:"source"`
	StripeCustomerID     string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string    `json:"stripe_subscription_id,omitempty"`
}
