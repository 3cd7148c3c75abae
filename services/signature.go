package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"github.com/zeebo/errs"
)

const SignatureHeader = "Stripe-Signature"

var (
	// ErrAuthentication marks requests whose signature could not be verified.
	ErrAuthentication = errs.Class("authentication failure")
	// ErrMalformedPayload marks verified requests whose body is not a usable event.
	ErrMalformedPayload = errs.Class("malformed payload")
)

// Verifier checks provider signatures of the form t=<unix>,v1=<hex>.
//
// The signed string is "<t>.<body>" and the MAC is HMAC-SHA256 keyed with
// the signing secret. With Tolerance zero the timestamp age is not checked.
type Verifier struct {
	secret    string
	Tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: secret, Tolerance: tolerance}
}

// Configured reports whether a signing secret is present. Without one every
// request fails verification.
func (v *Verifier) Configured() bool {
	return v.secret != ""
}

// Verify returns nil when one of the header's v1 signatures matches payload.
func (v *Verifier) Verify(payload []byte, header string) error {
	// stripe-go happily computes an HMAC with an empty key.
	if !v.Configured() {
		return ErrAuthentication.New("signing secret not configured")
	}

	header = strings.TrimSpace(header)

	var err error
	if v.Tolerance > 0 {
		err = webhook.ValidatePayloadWithTolerance(payload, header, v.secret, v.Tolerance)
	} else {
		err = webhook.ValidatePayloadIgnoringTolerance(payload, header, v.secret)
	}
	if err != nil {
		return ErrAuthentication.Wrap(err)
	}
	return nil
}

// ConstructEvent verifies payload and decodes it. The event is only returned
// when the signature is valid.
func (v *Verifier) ConstructEvent(payload []byte, header string) (stripe.Event, error) {
	if err := v.Verify(payload, header); err != nil {
		return stripe.Event{}, err
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, ErrMalformedPayload.Wrap(err)
	}
	if event.Type == "" {
		return stripe.Event{}, ErrMalformedPayload.New("event has no type")
	}

	return event, nil
}

// Sign builds a header that Verify accepts for payload at time t.
func (v *Verifier) Sign(payload []byte, t time.Time) string {
	return fmt.Sprintf("t=%d,v1=%x", t.Unix(), webhook.ComputeSignature(t, payload, v.secret))
}
