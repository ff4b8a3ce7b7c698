package controllers

import (
	"context"
	"errors"
	"net/http"

	"agentcrm-backend/models"
	"agentcrm-backend/services"
	"agentcrm-backend/store"
	"agentcrm-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type ClientRepository interface {
	ListClients(ctx context.Context, userID uuid.UUID, f store.ClientFilter) ([]models.Client, int64, error)
	GetClient(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error)
	CreateClient(ctx context.Context, client *models.Client) error
	SaveClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, userID, clientID uuid.UUID) error
	FindClientByPhone(ctx context.Context, userID uuid.UUID, phone string) (*models.Client, error)
}

// CreateClientInput defines the expected JSON structure for creating a client
type CreateClientInput struct {
	Name             string  `json:"name" binding:"required"`
	Phone            string  `json:"phone" binding:"required"`
	Email            string  `json:"email"`
	CarMake          string  `json:"carMake"`
	CarModel         string  `json:"carModel"`
	PlateNumber      string  `json:"plateNumber"`
	InsuranceType    string  `json:"insuranceType"`
	PolicyNumber     string  `json:"policyNumber"`
	ExpiryDate       *string `json:"expiryDate"` // YYYY-MM-DD
	ReminderTimings  []int64 `json:"reminderTimings"`
	DeliveryMethod   string  `json:"deliveryMethod" binding:"omitempty,oneof=sms whatsapp email"`
	CustomMessage    *string `json:"customMessage"`
	RemindersEnabled *bool   `json:"remindersEnabled"`
	Notes            string  `json:"notes"`
}

// UpdateClientInput only touches the fields that are present
type UpdateClientInput struct {
	Name             *string `json:"name"`
	Phone            *string `json:"phone"`
	Email            *string `json:"email"`
	CarMake          *string `json:"carMake"`
	CarModel         *string `json:"carModel"`
	PlateNumber      *string `json:"plateNumber"`
	InsuranceType    *string `json:"insuranceType"`
	PolicyNumber     *string `json:"policyNumber"`
	ExpiryDate       *string `json:"expiryDate"`
	ReminderTimings  []int64 `json:"reminderTimings"`
	DeliveryMethod   *string `json:"deliveryMethod" binding:"omitempty,oneof=sms whatsapp email"`
	CustomMessage    *string `json:"customMessage"`
	RemindersEnabled *bool   `json:"remindersEnabled"`
	Status           *string `json:"status" binding:"omitempty,oneof=active inactive"`
	Notes            *string `json:"notes"`
}

type ClientController struct {
	clients ClientRepository
	log     *zap.Logger
}

func NewClientController(clients ClientRepository, log *zap.Logger) *ClientController {
	return &ClientController{clients: clients, log: log}
}

// CreateClient adds a policy holder to the agent's book
func (cc *ClientController) CreateClient(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	if input.Email != "" && !utils.ValidateEmail(input.Email) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid email format")
		return
	}
	if !validTimings(input.ReminderTimings) {
		utils.RespondWithError(c, http.StatusBadRequest, "reminderTimings must be positive day counts")
		return
	}
	ctx := c.Request.Context()

	if !cc.phoneAvailable(c, userID, input.Phone) {
		return
	}

	client := models.Client{
		UserID:           userID,
		Name:             input.Name,
		Phone:            input.Phone,
		Email:            input.Email,
		CarMake:          input.CarMake,
		CarModel:         input.CarModel,
		PlateNumber:      input.PlateNumber,
		InsuranceType:    input.InsuranceType,
		PolicyNumber:     input.PolicyNumber,
		ReminderTimings:  pq.Int64Array(input.ReminderTimings),
		DeliveryMethod:   input.DeliveryMethod,
		CustomMessage:    input.CustomMessage,
		RemindersEnabled: true,
		Status:           models.ClientActive,
		Notes:            input.Notes,
	}
	if len(client.ReminderTimings) == 0 {
		client.ReminderTimings = pq.Int64Array(models.DefaultReminderTimings)
	}
	if client.DeliveryMethod == "" {
		client.DeliveryMethod = models.DeliverySMS
	}
	if input.RemindersEnabled != nil {
		client.RemindersEnabled = *input.RemindersEnabled
	}
	if input.ExpiryDate != nil {
		expiry, err := utils.ParseDate(*input.ExpiryDate)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid expiryDate, expected YYYY-MM-DD")
			return
		}
		client.ExpiryDate = &expiry
	}

	if err := cc.clients.CreateClient(ctx, &client); err != nil {
		cc.log.Error("create client", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, client)
}

// GetClients lists the agent's clients with optional status and search filters
func (cc *ClientController) GetClients(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	clients, total, err := cc.clients.ListClients(c.Request.Context(), userID, store.ClientFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	})
	if err != nil {
		cc.log.Error("list clients", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	c.JSON(http.StatusOK, gin.H{"clients": clients, "total": total})
}

// GetClient retrieves a specific client by ID
func (cc *ClientController) GetClient(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "client")
	if !ok {
		return
	}

	client, err := cc.clients.GetClient(c.Request.Context(), userID, clientID)
	if err != nil {
		cc.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

// UpdateClient updates an existing client
func (cc *ClientController) UpdateClient(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "client")
	if !ok {
		return
	}

	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	client, err := cc.clients.GetClient(ctx, userID, clientID)
	if err != nil {
		cc.respondLookupError(c, err)
		return
	}

	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		// Check if phone is being changed to another existing client
		if client.Phone != *input.Phone && !cc.phoneAvailable(c, userID, *input.Phone) {
			return
		}
		client.Phone = *input.Phone
	}
	if input.Email != nil {
		if *input.Email != "" && !utils.ValidateEmail(*input.Email) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid email format")
			return
		}
		client.Email = *input.Email
	}
	if input.ReminderTimings != nil {
		if !validTimings(input.ReminderTimings) {
			utils.RespondWithError(c, http.StatusBadRequest, "reminderTimings must be positive day counts")
			return
		}
		client.ReminderTimings = pq.Int64Array(input.ReminderTimings)
	}
	if input.ExpiryDate != nil {
		if *input.ExpiryDate == "" {
			client.ExpiryDate = nil
		} else {
			expiry, err := utils.ParseDate(*input.ExpiryDate)
			if err != nil {
				utils.RespondWithError(c, http.StatusBadRequest, "Invalid expiryDate, expected YYYY-MM-DD")
				return
			}
			client.ExpiryDate = &expiry
		}
	}
	setString(&client.Name, input.Name)
	setString(&client.CarMake, input.CarMake)
	setString(&client.CarModel, input.CarModel)
	setString(&client.PlateNumber, input.PlateNumber)
	setString(&client.InsuranceType, input.InsuranceType)
	setString(&client.PolicyNumber, input.PolicyNumber)
	setString(&client.DeliveryMethod, input.DeliveryMethod)
	setString(&client.Status, input.Status)
	setString(&client.Notes, input.Notes)
	if input.CustomMessage != nil {
		client.CustomMessage = input.CustomMessage
	}
	if input.RemindersEnabled != nil {
		client.RemindersEnabled = *input.RemindersEnabled
	}

	if err := cc.clients.SaveClient(ctx, client); err != nil {
		cc.log.Error("update client", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient soft deletes a client
func (cc *ClientController) DeleteClient(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "client")
	if !ok {
		return
	}

	if err := cc.clients.DeleteClient(c.Request.Context(), userID, clientID); err != nil {
		cc.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

func (cc *ClientController) phoneAvailable(c *gin.Context, userID uuid.UUID, phone string) bool {
	_, err := cc.clients.FindClientByPhone(c.Request.Context(), userID, phone)
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Client with this phone number already exists")
		return false
	}
	if !errors.Is(err, services.ErrNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return false
	}
	return true
}

func (cc *ClientController) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}
	cc.log.Error("client lookup", zap.Error(err))
	utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
}

func validTimings(timings []int64) bool {
	for _, d := range timings {
		if d <= 0 {
			return false
		}
	}
	return true
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
