package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"redforge/models"
)

// Status reports liveness and whether secrets are configured.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{
		Status:                  "running",
		Service:                 ServiceName,
		Version:                 h.version,
		StripeConfigured:        h.stripeConfigured,
		WebhookSecretConfigured: h.verifier.Configured(),
		WebhooksReceived:        h.webhooksReceived.Load(),
		CustomersCreated:        h.customersCreated.Load(),
	})
}

// Health adds the state of the customer store. It always answers 200.
func (h *Handler) Health(c *gin.Context) {
	res := h.store.List(c.Request.Context())

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           "healthy",
		StripeKeySet:     h.stripeConfigured,
		WebhookSecretSet: h.verifier.Configured(),
		Store:            res.Status.String(),
		Timestamp:        h.now().UTC(),
	})
}
