package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"redforge/middleware"
	"redforge/models"
	"redforge/store"
)

func (h *Handler) ListCustomers(c *gin.Context) {
	res := h.store.List(c.Request.Context())

	switch res.Status {
	case store.ReadCorrupt, store.ReadFailed:
		middleware.Logger(c, h.log).Warn("customer store unreadable, listing as empty",
			zap.Stringer("status", res.Status), zap.Error(res.Err))
	}

	customers := res.Records
	if customers == nil {
		customers = []models.CustomerRecord{}
	}

	c.JSON(http.StatusOK, models.CustomersResponse{
		Customers: customers,
		Count:     len(customers),
	})
}
