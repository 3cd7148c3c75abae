package models

import "time"

// StatusResponse is served on GET /.
type StatusResponse struct {
	Status                  string `json:"status"`
	Service                 string `json:"service"`
	Version                 string `json:"version"`
	StripeConfigured        bool   `json:"stripe_configured"`
	WebhookSecretConfigured bool   `json:"webhook_secret_configured"`
	WebhooksReceived        int64  `json:"webhooks_received"`
	CustomersCreated        int64  `json:"customers_created"`
}

// HealthResponse is served on GET /health.
type HealthResponse struct {
	Status           string    `json:"status"`
	StripeKeySet     bool      `json:"stripe_key_set"`
	WebhookSecretSet bool      `json:"webhook_secret_set"`
	Store            string    `json:"store"`
	Timestamp        time.Time `json:"timestamp"`
}

// WebhookResponse acknowledges a verified event. Email and Tier are only
// set when a customer record was created.
type WebhookResponse struct {
	Status    string `json:"status"`
	EventType string `json:"event_type,omitempty"`
	Email     string `json:"email,omitempty"`
	Tier      string `json:"tier,omitempty"`
}

type CustomersResponse struct {
	Customers []CustomerRecord `json:"customers"`
	Count     int              `json:"count"`
}

// ErrorResponse carries the request ID so a failed call can be found in the logs.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	WebhookStatusSuccess = "success"
	WebhookStatusHandled = "handled"
)
