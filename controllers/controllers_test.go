package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"agentcrm-backend/models"
	"agentcrm-backend/services"
	"agentcrm-backend/store"
	"agentcrm-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type mockReminderRepo struct {
	mock.Mock
}

func (m *mockReminderRepo) ListReminders(ctx context.Context, userID uuid.UUID, f store.ReminderFilter) ([]models.Reminder, int64, error) {
	args := m.Called(ctx, userID, f)
	rows, _ := args.Get(0).([]models.Reminder)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *mockReminderRepo) GetReminder(ctx context.Context, userID, id uuid.UUID) (*models.Reminder, error) {
	args := m.Called(ctx, userID, id)
	r, _ := args.Get(0).(*models.Reminder)
	return r, args.Error(1)
}

func (m *mockReminderRepo) DeleteReminder(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockReminderRepo) ReminderStatistics(ctx context.Context, userID uuid.UUID, monthStart time.Time) (*store.ReminderStatistics, error) {
	args := m.Called(ctx, userID, monthStart)
	s, _ := args.Get(0).(*store.ReminderStatistics)
	return s, args.Error(1)
}

func (m *mockReminderRepo) ListActivity(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	args := m.Called(ctx, userID, limit)
	rows, _ := args.Get(0).([]models.ActivityLog)
	return rows, args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, userID uuid.UUID, req services.SendRequest) (*services.SendResult, error) {
	args := m.Called(ctx, userID, req)
	r, _ := args.Get(0).(*services.SendResult)
	return r, args.Error(1)
}

type mockUsage struct {
	mock.Mock
}

func (m *mockUsage) GetUsage(ctx context.Context, userID uuid.UUID) (*services.Usage, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*services.Usage)
	return u, args.Error(1)
}

type mockClientRepo struct {
	mock.Mock
}

func (m *mockClientRepo) ListClients(ctx context.Context, userID uuid.UUID, f store.ClientFilter) ([]models.Client, int64, error) {
	args := m.Called(ctx, userID, f)
	rows, _ := args.Get(0).([]models.Client)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *mockClientRepo) GetClient(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, userID, clientID)
	c, _ := args.Get(0).(*models.Client)
	return c, args.Error(1)
}

func (m *mockClientRepo) CreateClient(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *mockClientRepo) SaveClient(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *mockClientRepo) DeleteClient(ctx context.Context, userID, clientID uuid.UUID) error {
	return m.Called(ctx, userID, clientID).Error(0)
}

func (m *mockClientRepo) FindClientByPhone(ctx context.Context, userID uuid.UUID, phone string) (*models.Client, error) {
	args := m.Called(ctx, userID, phone)
	c, _ := args.Get(0).(*models.Client)
	return c, args.Error(1)
}

// testRouter authenticates every request as userID.
func testRouter(userID uuid.UUID, register func(r gin.IRoutes)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(utils.ContextUserID, userID.String())
		c.Next()
	})
	register(r)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func discardLogger() *zap.Logger { return zap.NewNop() }

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serveRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
