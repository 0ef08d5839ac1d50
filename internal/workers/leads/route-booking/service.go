package routebooking

import (
	"context"

	"marketing-api/internal/common/errors"
	"marketing-api/internal/common/logger"
	"marketing-api/internal/leads"
)

type Service struct {
	router BookingRouter
	logger logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{router: deps.Router, logger: deps.Logger}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if s.router == nil {
		return nil, errors.NewCRMNotConfiguredError("lead router is not configured")
	}

	s.logger.Info("Routing booking", map[string]interface{}{
		"email":     input.Email,
		"startTime": input.StartTime,
	})

	res, err := s.router.HandleBooking(ctx, leads.Booking{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Company:     input.Company,
		MeetingType: input.MeetingType,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		MeetingLink: input.MeetingLink,
		Notes:       input.Notes,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		ContactID:     res.ContactID,
		OpportunityID: res.OpportunityID,
		AppointmentID: res.AppointmentID,
		WorkflowID:    res.WorkflowID,
		Score:         res.Score,
		Priority:      res.Priority,
		DealValue:     res.DealValue,
	}, nil
}
