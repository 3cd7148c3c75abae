package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"redforge/config"
	"redforge/services"
)

const CtxAdminSubjectKey = "adminSubject"

// AdminRequired guards read endpoints behind an admin bearer token when the
// feature is on. With the feature off every request passes.
func AdminRequired(log *zap.Logger, features config.Features, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !features.AdminAuthEnabled {
			c.Next()
			return
		}

		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody(c, "Authentication required"))
			return
		}

		claims, err := services.ParseAdminToken(secret, tokenString)
		if err != nil {
			log.Info("admin token rejected", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody(c, "Invalid token"))
			return
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Set(CtxAdminSubjectKey, sub)
		}
		c.Next()
	}
}
