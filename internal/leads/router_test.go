package leads

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"marketing-api/internal/common/errors"
	"marketing-api/internal/common/ghl"
	"marketing-api/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) UpsertContact(ctx context.Context, c ghl.Contact) (string, bool, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCRM) CreateOpportunity(ctx context.Context, o ghl.Opportunity) (string, error) {
	args := m.Called(ctx, o)
	return args.String(0), args.Error(1)
}

func (m *MockCRM) TriggerWorkflow(ctx context.Context, w ghl.WorkflowTrigger) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockCRM) CreateAppointment(ctx context.Context, a ghl.Appointment) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Record(ctx context.Context, d Dispatch) error {
	return m.Called(ctx, d).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyLead(ctx context.Context, a Alert) error {
	return m.Called(ctx, a).Error(0)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) Send(ctx context.Context, key string, event any) error {
	return m.Called(ctx, key, event).Error(0)
}

// ==========================
// Helpers
// ==========================

var fixedNow = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

func testGHLConfig() ghl.Config {
	return ghl.Config{
		LocationID: "loc-1",
		APIKey:     "key",
		BaseURL:    "https://services.leadconnectorhq.com",
		APIVersion: ghl.DefaultAPIVersion,
		Timeout:    time.Second,
		Automations: ghl.Automations{
			DemoBookedWorkflow:  "wf-demo",
			ContactFormWorkflow: "wf-contact",
			UrgentLeadWorkflow:  "wf-urgent",
		},
		Pipelines: ghl.Pipelines{
			DemosPipeline:    "pipe-demos",
			ContactsPipeline: "pipe-contacts",
		},
		CustomFields: ghl.CustomFieldKeys{
			LeadScore: "cf-score",
			Source:    "cf-source",
			Urgency:   "cf-urgency",
		},
	}
}

type routerMocks struct {
	crm      *MockCRM
	ledger   *MockLedger
	notifier *MockNotifier
	events   *MockEvents
}

func newTestRouter(t *testing.T) (*Router, *routerMocks) {
	m := &routerMocks{
		crm:      new(MockCRM),
		ledger:   new(MockLedger),
		notifier: new(MockNotifier),
		events:   new(MockEvents),
	}
	r := NewRouter(Dependencies{
		CRM:      m.crm,
		Config:   testGHLConfig(),
		Ledger:   m.ledger,
		Notifier: m.notifier,
		Events:   m.events,
		Logger:   logger.NewTestLogger(t),
		Now:      func() time.Time { return fixedNow },
	})
	return r, m
}

func fieldByID(fields []ghl.CustomField, id string) interface{} {
	for _, f := range fields {
		if f.ID == id || f.Key == id {
			return f.Value
		}
	}
	return nil
}

// ==========================
// Contact form
// ==========================

func TestRouter_HandleContactForm_UrgentEnterpriseLead(t *testing.T) {
	r, m := newTestRouter(t)
	form := ContactForm{
		Name:        "Jo Smith",
		Email:       "jo@x.com",
		Company:     "Acme",
		Subject:     "demo",
		Message:     "need this immediately for our enterprise rollout",
		BudgetRange: "100k-500k",
		Timeline:    "immediate",
	}

	m.crm.On("UpsertContact", mock.Anything, mock.MatchedBy(func(c ghl.Contact) bool {
		return c.FirstName == "Jo" && c.LastName == "Smith" && c.Email == "jo@x.com" &&
			c.CompanyName == "Acme" && c.Source == ContactSource &&
			assert.Subset(t, c.Tags, []string{"Contact Form", "Priority: Urgent", "Hot Lead",
				"Inquiry: demo", "Has Company", "Budget: 100k-500k", "Timeline: immediate"}) &&
			assert.NotContains(t, c.Tags, "Has Phone") &&
			fieldByID(c.CustomFields, "cf-score") == 100 &&
			fieldByID(c.CustomFields, "cf-urgency") == "Urgent" &&
			fieldByID(c.CustomFields, "message") == form.Message &&
			fieldByID(c.CustomFields, "budget") == "100k-500k"
	})).Return("contact-1", true, nil).Once()

	m.crm.On("CreateOpportunity", mock.Anything, mock.MatchedBy(func(o ghl.Opportunity) bool {
		return o.PipelineID == "pipe-contacts" && o.ContactID == "contact-1" && o.MonetaryValue == 300000
	})).Return("opp-1", nil).Once()

	m.crm.On("TriggerWorkflow", mock.Anything, mock.MatchedBy(func(w ghl.WorkflowTrigger) bool {
		return w.WorkflowID == "wf-urgent" && w.ContactID == "contact-1" && w.Payload["leadScore"] == 100
	})).Return(nil).Once()

	m.ledger.On("Record", mock.Anything, mock.MatchedBy(func(d Dispatch) bool {
		return d.Status == StatusCompleted && d.Kind == KindContact && d.WorkflowID == "wf-urgent" &&
			d.ContactID == "contact-1" && d.OpportunityID == "opp-1" && d.Score == 100
	})).Return(nil).Once()

	m.notifier.On("NotifyLead", mock.Anything, mock.MatchedBy(func(a Alert) bool {
		return a.Kind == KindContact && a.Priority == PriorityUrgent && a.DealValue == 300000 && a.ContactID == "contact-1"
	})).Return(nil).Once()

	m.events.On("Send", mock.Anything, "contact-1", mock.MatchedBy(func(e LeadEvent) bool {
		return e.Type == "lead.contact.routed" && e.Priority == PriorityUrgent && e.OccurredAt.Equal(fixedNow)
	})).Return(nil).Once()

	res, err := r.HandleContactForm(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Score)
	assert.Equal(t, PriorityUrgent, res.Priority)
	assert.Equal(t, 300000, res.DealValue)
	assert.Equal(t, "contact-1", res.ContactID)
	assert.Equal(t, "opp-1", res.OpportunityID)
	assert.Equal(t, "wf-urgent", res.WorkflowID)
	assert.True(t, res.ContactCreated)

	m.crm.AssertExpectations(t)
	m.ledger.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
	m.events.AssertExpectations(t)
}

func TestRouter_HandleContactForm_MediumPriorityUsesStandardWorkflow(t *testing.T) {
	r, m := newTestRouter(t)

	m.crm.On("UpsertContact", mock.Anything, mock.Anything).Return("contact-2", false, nil)
	m.crm.On("CreateOpportunity", mock.Anything, mock.MatchedBy(func(o ghl.Opportunity) bool {
		return o.MonetaryValue == 10000
	})).Return("opp-2", nil)
	m.crm.On("TriggerWorkflow", mock.Anything, mock.MatchedBy(func(w ghl.WorkflowTrigger) bool {
		return w.WorkflowID == "wf-contact"
	})).Return(nil)
	m.ledger.On("Record", mock.Anything, mock.Anything).Return(nil)
	m.events.On("Send", mock.Anything, "contact-2", mock.Anything).Return(nil)

	res, err := r.HandleContactForm(context.Background(), ContactForm{
		Name:    "Sam",
		Email:   "sam@example.com",
		Subject: "support",
		Message: "How do I reset my password?",
	})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, PriorityMedium, res.Priority)
	assert.Equal(t, "wf-contact", res.WorkflowID)
	assert.False(t, res.ContactCreated)

	m.notifier.AssertNotCalled(t, "NotifyLead", mock.Anything, mock.Anything)
}

func TestRouter_HandleContactForm_StopsAtFailedStep(t *testing.T) {
	r, m := newTestRouter(t)
	crmErr := errors.NewCRMAPIError("create opportunity", 502, stderrors.New("bad gateway"))

	m.crm.On("UpsertContact", mock.Anything, mock.Anything).Return("contact-3", true, nil)
	m.crm.On("CreateOpportunity", mock.Anything, mock.Anything).Return("", crmErr)
	m.ledger.On("Record", mock.Anything, mock.MatchedBy(func(d Dispatch) bool {
		return d.Status == StatusFailed && d.FailedStep == StepOpportunity &&
			d.ContactID == "contact-3" && d.OpportunityID == "" && d.Error != ""
	})).Return(nil).Once()

	res, err := r.HandleContactForm(context.Background(), ContactForm{Name: "Ann Lee", Email: "ann@example.com"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Same(t, crmErr, err)

	m.crm.AssertNotCalled(t, "TriggerWorkflow", mock.Anything, mock.Anything)
	m.events.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	m.notifier.AssertNotCalled(t, "NotifyLead", mock.Anything, mock.Anything)
	m.ledger.AssertExpectations(t)
}

func TestRouter_HandleContactForm_BestEffortTail(t *testing.T) {
	r, m := newTestRouter(t)

	m.crm.On("UpsertContact", mock.Anything, mock.Anything).Return("contact-4", true, nil)
	m.crm.On("CreateOpportunity", mock.Anything, mock.Anything).Return("opp-4", nil)
	m.crm.On("TriggerWorkflow", mock.Anything, mock.Anything).Return(nil)
	m.ledger.On("Record", mock.Anything, mock.Anything).Return(stderrors.New("db down"))
	m.notifier.On("NotifyLead", mock.Anything, mock.Anything).Return(stderrors.New("ses throttled"))
	m.events.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("broker unreachable"))

	res, err := r.HandleContactForm(context.Background(), ContactForm{
		Name:    "Lee Park",
		Email:   "lee@example.com",
		Message: "urgent: production is down",
	})
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, res.Priority)
	assert.Equal(t, "wf-urgent", res.WorkflowID)
}

func TestRouter_Validation(t *testing.T) {
	r, m := newTestRouter(t)

	_, err := r.HandleContactForm(context.Background(), ContactForm{Name: "No Email"})
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeLeadValidation, stdErr.Code)

	_, err = r.HandleBooking(context.Background(), Booking{Name: "Jane", Email: "jane@example.com"})
	stdErr, ok = errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeLeadValidation, stdErr.Code)

	m.crm.AssertNotCalled(t, "UpsertContact", mock.Anything, mock.Anything)
}

func TestRouter_WithoutCRM(t *testing.T) {
	r := NewRouter(Dependencies{Config: testGHLConfig()})

	_, err := r.HandleContactForm(context.Background(), ContactForm{Name: "A B", Email: "a@b.co"})
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCRMNotConfigured, stdErr.Code)
}

// ==========================
// Booking
// ==========================

func TestRouter_HandleBooking(t *testing.T) {
	r, m := newTestRouter(t)
	start := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	m.crm.On("UpsertContact", mock.Anything, mock.MatchedBy(func(c ghl.Contact) bool {
		return c.FirstName == "Jane" && c.LastName == "Doe" &&
			c.Phone == "+12015550123" &&
			assert.Equal(t, []string{"Demo Booked", "High Intent", "Calendar Lead"}, c.Tags) &&
			fieldByID(c.CustomFields, "cf-score") == 100 &&
			fieldByID(c.CustomFields, "cf-source") == "Calendar Booking" &&
			fieldByID(c.CustomFields, "cf-urgency") == "High"
	})).Return("contact-9", true, nil).Once()

	m.crm.On("CreateOpportunity", mock.Anything, mock.MatchedBy(func(o ghl.Opportunity) bool {
		return o.PipelineID == "pipe-demos" && o.MonetaryValue == 50000 &&
			fieldByID(o.CustomFields, "meeting_date") == "2026-03-10T15:00:00Z" &&
			fieldByID(o.CustomFields, "meeting_link") == "https://meet.example.com/abc"
	})).Return("opp-9", nil).Once()

	m.crm.On("TriggerWorkflow", mock.Anything, mock.MatchedBy(func(w ghl.WorkflowTrigger) bool {
		return w.WorkflowID == "wf-demo" && w.Payload["opportunityId"] == "opp-9" && w.EventStartTime.Equal(start)
	})).Return(nil).Once()

	m.crm.On("CreateAppointment", mock.Anything, mock.MatchedBy(func(a ghl.Appointment) bool {
		return a.ContactID == "contact-9" && a.StartTime.Equal(start) &&
			a.EndTime.Equal(start.Add(DefaultMeetingLength)) &&
			a.Address == "https://meet.example.com/abc"
	})).Return("appt-9", nil).Once()

	m.ledger.On("Record", mock.Anything, mock.MatchedBy(func(d Dispatch) bool {
		return d.Status == StatusCompleted && d.AppointmentID == "appt-9"
	})).Return(nil).Once()
	m.notifier.On("NotifyLead", mock.Anything, mock.MatchedBy(func(a Alert) bool {
		return a.Kind == KindBooking && a.MeetingTime.Equal(start) && a.DealValue == 50000
	})).Return(nil).Once()
	m.events.On("Send", mock.Anything, "contact-9", mock.Anything).Return(nil).Once()

	res, err := r.HandleBooking(context.Background(), Booking{
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Phone:       "201-555-0123",
		Company:     "Initech",
		StartTime:   start,
		MeetingLink: "https://meet.example.com/abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "contact-9", res.ContactID)
	assert.Equal(t, "opp-9", res.OpportunityID)
	assert.Equal(t, "appt-9", res.AppointmentID)
	assert.Equal(t, "wf-demo", res.WorkflowID)
	assert.Equal(t, 50000, res.DealValue)
	assert.Equal(t, PriorityUrgent, res.Priority)

	m.crm.AssertExpectations(t)
	m.ledger.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
	m.events.AssertExpectations(t)
}

func TestRouter_HandleBooking_AppointmentFailureKeepsEarlierSteps(t *testing.T) {
	r, m := newTestRouter(t)

	m.crm.On("UpsertContact", mock.Anything, mock.Anything).Return("contact-5", true, nil)
	m.crm.On("CreateOpportunity", mock.Anything, mock.Anything).Return("opp-5", nil)
	m.crm.On("TriggerWorkflow", mock.Anything, mock.Anything).Return(nil)
	m.crm.On("CreateAppointment", mock.Anything, mock.Anything).
		Return("", errors.NewCRMAPIError("create appointment", 422, stderrors.New("slot taken")))
	m.ledger.On("Record", mock.Anything, mock.MatchedBy(func(d Dispatch) bool {
		return d.Status == StatusFailed && d.FailedStep == StepAppointment &&
			d.ContactID == "contact-5" && d.OpportunityID == "opp-5" && d.WorkflowID == "wf-demo"
	})).Return(nil).Once()

	_, err := r.HandleBooking(context.Background(), Booking{
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		StartTime: fixedNow.Add(24 * time.Hour),
	})

	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCRMRejected, stdErr.Code)
	m.ledger.AssertExpectations(t)
	m.events.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}
