// controllers/reminder.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"agentcrm-backend/models"
	"agentcrm-backend/services"
	"agentcrm-backend/store"
	"agentcrm-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReminderRepository interface {
	ListReminders(ctx context.Context, userID uuid.UUID, f store.ReminderFilter) ([]models.Reminder, int64, error)
	GetReminder(ctx context.Context, userID, id uuid.UUID) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, userID, id uuid.UUID) error
	ReminderStatistics(ctx context.Context, userID uuid.UUID, monthStart time.Time) (*store.ReminderStatistics, error)
	ListActivity(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityLog, error)
}

type ReminderSender interface {
	Send(ctx context.Context, userID uuid.UUID, req services.SendRequest) (*services.SendResult, error)
}

// ReminderController serves reminder history, scheduling and manual sends.
type ReminderController struct {
	repo   ReminderRepository
	sender ReminderSender
	usage  services.UsageReader
	clock  services.Clock
	log    *zap.Logger
}

func NewReminderController(repo ReminderRepository, sender ReminderSender, usage services.UsageReader, clock services.Clock, log *zap.Logger) *ReminderController {
	return &ReminderController{repo: repo, sender: sender, usage: usage, clock: clock, log: log}
}

// SendRemindersInput is the manual send request from the mobile client
type SendRemindersInput struct {
	ClientIDs      []string   `json:"clientIds" binding:"required,min=1"`
	Message        string     `json:"message"`
	DeliveryMethod string     `json:"deliveryMethod" binding:"omitempty,oneof=sms whatsapp email"`
	ScheduledDate  *time.Time `json:"scheduledDate"`
}

// CreateReminderInput schedules one reminder for one client
type CreateReminderInput struct {
	ClientID       string    `json:"clientId" binding:"required"`
	Message        string    `json:"message"`
	DeliveryMethod string    `json:"deliveryMethod" binding:"omitempty,oneof=sms whatsapp email"`
	ScheduledDate  time.Time `json:"scheduledDate" binding:"required"`
}

// GetReminders lists the user's reminders, newest first
func (rc *ReminderController) GetReminders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := store.ReminderFilter{
		Status:         c.Query("status"),
		DeliveryMethod: c.Query("deliveryMethod"),
		Limit:          queryInt(c, "limit", 50),
		Offset:         queryInt(c, "offset", 0),
	}
	if raw := c.Query("clientId"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		filter.ClientID = &clientID
	}

	reminders, total, err := rc.repo.ListReminders(c.Request.Context(), userID, filter)
	if err != nil {
		rc.log.Error("list reminders", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminders")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders, "total": total})
}

// GetReminder retrieves a specific reminder by ID
func (rc *ReminderController) GetReminder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "reminder")
	if !ok {
		return
	}

	reminder, err := rc.repo.GetReminder(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Reminder not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// CreateReminder schedules a reminder for the hourly flush
func (rc *ReminderController) CreateReminder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input CreateReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	clientID, err := uuid.Parse(input.ClientID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}
	if !input.ScheduledDate.After(rc.clock.Now()) {
		utils.RespondWithError(c, http.StatusBadRequest, "scheduledDate must be in the future")
		return
	}

	result, err := rc.sender.Send(c.Request.Context(), userID, services.SendRequest{
		ClientIDs:      []uuid.UUID{clientID},
		Message:        input.Message,
		DeliveryMethod: input.DeliveryMethod,
		ScheduledDate:  &input.ScheduledDate,
	})
	if err != nil {
		rc.respondSendError(c, err)
		return
	}

	entry := result.Results[0]
	if entry.Status == models.ReminderFailed {
		status := http.StatusInternalServerError
		if errors.Is(entry.Err, services.ErrClientNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondWithError(c, status, entry.Error)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// SendReminders sends (or schedules) a message to a set of clients
func (rc *ReminderController) SendReminders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input SendRemindersInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	clientIDs := make([]uuid.UUID, 0, len(input.ClientIDs))
	for _, raw := range input.ClientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format: "+raw)
			return
		}
		clientIDs = append(clientIDs, id)
	}
	if input.ScheduledDate != nil && !input.ScheduledDate.After(rc.clock.Now()) {
		utils.RespondWithError(c, http.StatusBadRequest, "scheduledDate must be in the future")
		return
	}

	result, err := rc.sender.Send(c.Request.Context(), userID, services.SendRequest{
		ClientIDs:      clientIDs,
		Message:        input.Message,
		DeliveryMethod: input.DeliveryMethod,
		ScheduledDate:  input.ScheduledDate,
	})
	if err != nil {
		rc.respondSendError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (rc *ReminderController) respondSendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnsupportedMethod), errors.Is(err, services.ErrNoClients):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	default:
		rc.log.Error("send reminders", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send reminders")
	}
}

// DeleteReminder removes a reminder record
func (rc *ReminderController) DeleteReminder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "reminder")
	if !ok {
		return
	}

	if err := rc.repo.DeleteReminder(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Reminder not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete reminder")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted successfully"})
}

// GetStatistics summarises reminder outcomes and this month's SMS usage
func (rc *ReminderController) GetStatistics(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	stats, err := rc.repo.ReminderStatistics(ctx, userID, utils.BeginningOfMonth(rc.clock.Now()))
	if err != nil {
		rc.log.Error("reminder statistics", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get reminder statistics")
		return
	}
	usage, err := rc.usage.GetUsage(ctx, userID)
	if err != nil {
		rc.log.Error("sms usage", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get SMS usage")
		return
	}

	c.JSON(http.StatusOK, gin.H{"statistics": stats, "smsUsage": usage})
}

// GetUsage returns this month's SMS usage
func (rc *ReminderController) GetUsage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	usage, err := rc.usage.GetUsage(c.Request.Context(), userID)
	if err != nil {
		rc.log.Error("sms usage", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get SMS usage")
		return
	}

	c.JSON(http.StatusOK, usage)
}

// GetActivity returns the latest scheduler and channel audit entries
func (rc *ReminderController) GetActivity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	entries, err := rc.repo.ListActivity(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		rc.log.Error("activity log", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve activity")
		return
	}

	c.JSON(http.StatusOK, entries)
}
