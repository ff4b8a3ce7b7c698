package services

import (
	"strconv"
	"strings"

	"agentcrm-backend/models"
	"agentcrm-backend/utils"
)

const (
	tomorrowTemplate = "Hi {client_name}, your {insurance_type} policy for {car_model} ({plate_number}) expires TOMORROW on {expiry_date}. Please renew immediately to stay covered."
	upcomingTemplate = "Hi {client_name}, your {insurance_type} policy for {car_model} ({plate_number}) expires in {days} days on {expiry_date}. Please renew on time."

	plateFallback         = "your vehicle"
	insuranceTypeFallback = "insurance"
)

// DefaultTemplate picks the built-in template for a day count.
func DefaultTemplate(daysUntilExpiry int) string {
	if daysUntilExpiry == 1 {
		return tomorrowTemplate
	}
	return upcomingTemplate
}

// RenderMessage substitutes the client placeholders in template. Unknown
// placeholders are left as they are and nothing is escaped.
func RenderMessage(template string, client *models.Client, daysUntilExpiry int) string {
	plate := client.PlateNumber
	if plate == "" {
		plate = plateFallback
	}
	insuranceType := client.InsuranceType
	if insuranceType == "" {
		insuranceType = insuranceTypeFallback
	}
	expiry := ""
	if client.ExpiryDate != nil {
		expiry = utils.USDate(*client.ExpiryDate)
	}

	r := strings.NewReplacer(
		"{client_name}", client.Name,
		"{car_model}", strings.TrimSpace(client.CarMake+" "+client.CarModel),
		"{plate_number}", plate,
		"{expiry_date}", expiry,
		"{days}", strconv.Itoa(daysUntilExpiry),
		"{insurance_type}", insuranceType,
		"{policy_number}", client.PolicyNumber,
	)
	return r.Replace(template)
}

// MessageFor renders the client's custom message, or the default template when none is set.
func MessageFor(client *models.Client, daysUntilExpiry int) string {
	template := DefaultTemplate(daysUntilExpiry)
	if client.CustomMessage != nil && strings.TrimSpace(*client.CustomMessage) != "" {
		template = *client.CustomMessage
	}
	return RenderMessage(template, client, daysUntilExpiry)
}
