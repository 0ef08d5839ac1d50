package routecontactform

import (
	"context"

	"marketing-api/internal/common/errors"
	"marketing-api/internal/common/logger"
	"marketing-api/internal/leads"
)

type Service struct {
	router ContactFormRouter
	logger logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{router: deps.Router, logger: deps.Logger}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if s.router == nil {
		return nil, errors.NewCRMNotConfiguredError("lead router is not configured")
	}

	res, err := s.router.HandleContactForm(ctx, leads.ContactForm{
		Name:             input.Name,
		Email:            input.Email,
		Phone:            input.Phone,
		Company:          input.Company,
		Subject:          input.Subject,
		Message:          input.Message,
		BudgetRange:      input.BudgetRange,
		Timeline:         input.Timeline,
		InterestedAgents: input.InterestedAgents,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Contact form routed", map[string]interface{}{
		"contactId": res.ContactID,
		"priority":  string(res.Priority),
		"score":     res.Score,
	})
	return &Output{Result: res}, nil
}
