package routecontactform

import (
	"context"

	"marketing-api/internal/common/logger"
	"marketing-api/internal/leads"
)

type Input struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone,omitempty"`
	Company          string   `json:"company,omitempty"`
	Subject          string   `json:"subject,omitempty"`
	Message          string   `json:"message,omitempty"`
	BudgetRange      string   `json:"budgetRange,omitempty"`
	Timeline         string   `json:"timeline,omitempty"`
	InterestedAgents []string `json:"interestedAgents,omitempty"`
}

type Output struct {
	Result *leads.Result
}

func (o *Output) Variables() map[string]interface{} {
	r := o.Result
	return map[string]interface{}{
		"leadRouted":        true,
		"leadContactId":     r.ContactID,
		"leadOpportunityId": r.OpportunityID,
		"leadWorkflowId":    r.WorkflowID,
		"leadScore":         r.Score,
		"leadPriority":      string(r.Priority),
		"leadEscalated":     r.Priority.Escalated(),
		"leadDealValue":     r.DealValue,
	}
}

type ContactFormRouter interface {
	HandleContactForm(ctx context.Context, f leads.ContactForm) (*leads.Result, error)
}

type ServiceDependencies struct {
	Router ContactFormRouter
	Logger logger.Logger
}
