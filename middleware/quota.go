package middleware

import (
	"errors"
	"net/http"

	"agentcrm-backend/services"
	"agentcrm-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SMSQuota rejects the request before any send is attempted once the user's
// monthly SMS allowance is used up.
func SMSQuota(gate services.QuotaChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetString(utils.ContextUserID))
		if err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
			return
		}

		usage, err := gate.Check(c.Request.Context(), userID)
		if errors.Is(err, services.ErrQuotaExceeded) {
			log.Info("sms quota exceeded",
				zap.String("userId", userID.String()),
				zap.Int("smsSent", usage.SMSSent))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":        "SMS quota exceeded for this month. Please upgrade your plan.",
				"currentUsage": usage.SMSSent,
				"smsQuota":     usage.QuotaLimit,
			})
			return
		}
		if err != nil {
			log.Error("sms quota check failed", zap.String("userId", userID.String()), zap.Error(err))
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to check SMS quota")
			return
		}

		c.Next()
	}
}
