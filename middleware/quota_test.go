package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"agentcrm-backend/services"
	"agentcrm-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockQuota struct {
	mock.Mock
}

func (m *mockQuota) Check(ctx context.Context, userID uuid.UUID) (*services.Usage, error) {
	args := m.Called(ctx, userID)
	usage, _ := args.Get(0).(*services.Usage)
	return usage, args.Error(1)
}

func quotaRouter(gate services.QuotaChecker, userID string) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	r := gin.New()
	r.POST("/send", func(c *gin.Context) {
		if userID != "" {
			c.Set(utils.ContextUserID, userID)
		}
		c.Next()
	}, SMSQuota(gate, zap.NewNop()), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})
	return r, &reached
}

func serve(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/send", nil))
	return w
}

func TestSMSQuota_AllowsUnderLimit(t *testing.T) {
	userID := uuid.New()
	limit := 10
	gate := &mockQuota{}
	gate.On("Check", mock.Anything, userID).Return(&services.Usage{SMSSent: 9, QuotaLimit: &limit}, nil)

	r, reached := quotaRouter(gate, userID.String())
	w := serve(r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, *reached)
	gate.AssertExpectations(t)
}

func TestSMSQuota_RejectsWhenExceeded(t *testing.T) {
	userID := uuid.New()
	limit := 10
	gate := &mockQuota{}
	gate.On("Check", mock.Anything, userID).
		Return(&services.Usage{SMSSent: 10, QuotaLimit: &limit}, services.ErrQuotaExceeded)

	r, reached := quotaRouter(gate, userID.String())
	w := serve(r)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, *reached)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "SMS quota exceeded")
	assert.EqualValues(t, 10, body["currentUsage"])
	assert.EqualValues(t, 10, body["smsQuota"])
}

func TestSMSQuota_CheckFailure(t *testing.T) {
	userID := uuid.New()
	gate := &mockQuota{}
	gate.On("Check", mock.Anything, userID).Return(nil, errors.New("db down"))

	r, reached := quotaRouter(gate, userID.String())
	w := serve(r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, *reached)
}

func TestSMSQuota_RequiresUser(t *testing.T) {
	gate := &mockQuota{}

	r, reached := quotaRouter(gate, "")
	w := serve(r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *reached)
	gate.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimit(2, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
