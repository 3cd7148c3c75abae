package services

import (
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"

	"redforge/models"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

// Intake turns verified provider events into customer records.
type Intake struct {
	log *zap.Logger
}

func NewIntake(log *zap.Logger) *Intake {
	return &Intake{log: log}
}

// Handles reports whether an event of this type creates a customer record.
func (i *Intake) Handles(eventType string) bool {
	return eventType == EventCheckoutSessionCompleted
}

// CustomerFromEvent extracts a record from a checkout.session.completed
// event. CreatedAt is left zero; the store stamps it on append.
func (i *Intake) CustomerFromEvent(event stripe.Event) (models.CustomerRecord, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return models.CustomerRecord{}, ErrMalformedPayload.New("event %q has no data object", event.ID)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return models.CustomerRecord{}, ErrMalformedPayload.Wrap(err)
	}

	email := strings.TrimSpace(session.CustomerEmail)
	if email == "" && session.CustomerDetails != nil {
		email = strings.TrimSpace(session.CustomerDetails.Email)
	}
	if email == "" {
		return models.CustomerRecord{}, ErrMalformedPayload.New("checkout session %q has no customer email", session.ID)
	}

	rawTier := session.Metadata["tier"]
	tier, ok := NormalizeTier(rawTier)
	if !ok {
		i.log.Warn("unknown tier in checkout metadata, using default",
			zap.String("session_id", session.ID),
			zap.String("tier", rawTier),
			zap.String("default", DefaultTier))
	}

	record := models.CustomerRecord{
		Email:  email,
		Tier:   tier,
		Status: models.StatusActive,
		Source: models.SourceWebhook,
	}
	if session.Customer != nil {
		record.StripeCustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		record.StripeSubscriptionID = session.Subscription.ID
	}

	return record, nil
}
