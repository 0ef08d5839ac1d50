package leads

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Label is the capitalized form used in CRM tags and the urgency field.
func (p Priority) Label() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Escalated reports whether the lead goes to the urgent-lead automation.
func (p Priority) Escalated() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

// Mode selects the scoring bonus applied to a submission.
type Mode string

const (
	ModeDemo    Mode = "demo"
	ModeContact Mode = "contact"
)

// Kind names the two lead intake paths in metrics, ledger rows and events.
const (
	KindBooking = "booking"
	KindContact = "contact"
)

// Booking is a meeting booked through the website calendar.
type Booking struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	MeetingType string    `json:"meeting_type,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time,omitempty"`
	MeetingLink string    `json:"meeting_link,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// ContactForm is a website contact form submission.
type ContactForm struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone,omitempty"`
	Company          string   `json:"company,omitempty"`
	Subject          string   `json:"subject,omitempty"`
	Message          string   `json:"message,omitempty"`
	BudgetRange      string   `json:"budget_range,omitempty"`
	Timeline         string   `json:"timeline,omitempty"`
	InterestedAgents []string `json:"interested_agents,omitempty"`
}

// ScoreInput carries every field the scoring rules look at.
type ScoreInput struct {
	Name             string
	Phone            string
	Company          string
	Message          string
	Subject          string
	BudgetRange      string
	Timeline         string
	InterestedAgents []string
}

func (f ContactForm) ScoreInput() ScoreInput {
	return ScoreInput{
		Name:             f.Name,
		Phone:            f.Phone,
		Company:          f.Company,
		Message:          f.Message,
		Subject:          f.Subject,
		BudgetRange:      f.BudgetRange,
		Timeline:         f.Timeline,
		InterestedAgents: f.InterestedAgents,
	}
}

func (b Booking) ScoreInput() ScoreInput {
	return ScoreInput{
		Name:    b.Name,
		Phone:   b.Phone,
		Company: b.Company,
	}
}

// Result identifies what a routing run created in the CRM.
type Result struct {
	ContactID      string   `json:"contactId"`
	OpportunityID  string   `json:"opportunityId"`
	AppointmentID  string   `json:"appointmentId,omitempty"`
	WorkflowID     string   `json:"workflowId"`
	Score          int      `json:"score"`
	Priority       Priority `json:"priority"`
	DealValue      int      `json:"dealValue"`
	ContactCreated bool     `json:"contactCreated"`
}

// LeadEvent is published once a lead has been fully routed.
type LeadEvent struct {
	Type          string    `json:"type"`
	ContactID     string    `json:"contactId"`
	OpportunityID string    `json:"opportunityId"`
	Score         int       `json:"score"`
	Priority      Priority  `json:"priority"`
	WorkflowID    string    `json:"workflowId"`
	DealValue     int       `json:"dealValue"`
	OccurredAt    time.Time `json:"occurredAt"`
}
