package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"redforge/middleware"
	"redforge/models"
	"redforge/services"
	"redforge/store"
)

const (
	msgInvalidSignature = "Invalid signature"
	msgInvalidPayload   = "Invalid payload"
	msgInternalError    = "Internal error"
)

// Webhook receives signed provider events. Only checkout.session.completed
// writes to the store; every other verified event is acknowledged so the
// provider does not retry it.
func (h *Handler) Webhook(c *gin.Context) {
	l := middleware.Logger(c, h.log)
	h.webhooksReceived.Add(1)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		l.Warn("webhook body unreadable", zap.Error(err))
		c.JSON(http.StatusBadRequest, middleware.ErrorBody(c, msgInvalidPayload))
		return
	}

	signature := c.GetHeader(services.SignatureHeader)
	if signature == "" {
		l.Warn("webhook rejected: missing signature header")
		c.JSON(http.StatusBadRequest, middleware.ErrorBody(c, msgInvalidSignature))
		return
	}

	event, err := h.verifier.ConstructEvent(payload, signature)
	if err != nil {
		if services.ErrMalformedPayload.Has(err) {
			l.Warn("webhook rejected: malformed event", zap.Error(err))
			c.JSON(http.StatusBadRequest, middleware.ErrorBody(c, msgInvalidPayload))
			return
		}
		l.Warn("webhook rejected: signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, middleware.ErrorBody(c, msgInvalidSignature))
		return
	}

	eventType := string(event.Type)
	l = l.With(zap.String("event_id", event.ID), zap.String("event_type", eventType))

	if !h.intake.Handles(eventType) {
		l.Info("webhook acknowledged (unhandled type)")
		c.JSON(http.StatusOK, models.WebhookResponse{
			Status:    models.WebhookStatusHandled,
			EventType: eventType,
		})
		return
	}

	record, err := h.intake.CustomerFromEvent(event)
	if err != nil {
		l.Warn("webhook rejected: checkout session unusable", zap.Error(err))
		c.JSON(http.StatusBadRequest, middleware.ErrorBody(c, msgInvalidPayload))
		return
	}

	if err := h.store.Append(c.Request.Context(), record); err != nil {
		if store.ErrInvalidRecord.Has(err) {
			l.Warn("webhook rejected: invalid customer record", zap.Error(err))
			c.JSON(http.StatusBadRequest, middleware.ErrorBody(c, msgInvalidPayload))
			return
		}
		l.Error("customer record could not be persisted", zap.String("email", record.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, middleware.ErrorBody(c, msgInternalError))
		return
	}

	h.customersCreated.Add(1)
	l.Info("customer created", zap.String("email", record.Email), zap.String("tier", record.Tier))

	h.notifier.CustomerCreated(record)

	c.JSON(http.StatusOK, models.WebhookResponse{
		Status:    models.WebhookStatusSuccess,
		EventType: eventType,
		Email:     record.Email,
		Tier:      record.Tier,
	})
}
