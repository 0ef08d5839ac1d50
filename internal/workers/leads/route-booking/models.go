package routebooking

import (
	"context"
	"time"

	"marketing-api/internal/common/logger"
	"marketing-api/internal/leads"
)

type Input struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	MeetingType string    `json:"meetingType,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime,omitempty"`
	MeetingLink string    `json:"meetingLink,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

type Output struct {
	ContactID     string         `json:"contactId"`
	OpportunityID string         `json:"opportunityId"`
	AppointmentID string         `json:"appointmentId"`
	WorkflowID    string         `json:"workflowId"`
	Score         int            `json:"score"`
	Priority      leads.Priority `json:"priority"`
	DealValue     int            `json:"dealValue"`
}

// Variables is what the job completes with.
func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"leadRouted":        true,
		"leadContactId":     o.ContactID,
		"leadOpportunityId": o.OpportunityID,
		"leadAppointmentId": o.AppointmentID,
		"leadWorkflowId":    o.WorkflowID,
		"leadScore":         o.Score,
		"leadPriority":      string(o.Priority),
		"leadDealValue":     o.DealValue,
	}
}

// BookingRouter is satisfied by *leads.Router.
type BookingRouter interface {
	HandleBooking(ctx context.Context, b leads.Booking) (*leads.Result, error)
}

type ServiceDependencies struct {
	Router BookingRouter
	Logger logger.Logger
}
