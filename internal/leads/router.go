package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketing-api/internal/common/errors"
	"marketing-api/internal/common/ghl"
	"marketing-api/internal/common/logger"
	"marketing-api/internal/common/metrics"
	"marketing-api/internal/common/phone"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMeetingLength applies when a booking has no end time.
const DefaultMeetingLength = 30 * time.Minute

// CRM is the part of the HighLevel client the router drives.
type CRM interface {
	UpsertContact(ctx context.Context, contact ghl.Contact) (string, bool, error)
	CreateOpportunity(ctx context.Context, opp ghl.Opportunity) (string, error)
	TriggerWorkflow(ctx context.Context, trigger ghl.WorkflowTrigger) error
	CreateAppointment(ctx context.Context, appt ghl.Appointment) (string, error)
}

// EventPublisher is satisfied by the Kafka producer.
type EventPublisher interface {
	Send(ctx context.Context, key string, event any) error
}

// Dependencies for NewRouter. Only CRM is required.
type Dependencies struct {
	CRM         CRM
	Config      ghl.Config
	Ledger      Ledger
	Notifier    Notifier
	Events      EventPublisher
	Logger      logger.Logger
	Tracer      trace.Tracer
	Now         func() time.Time
	PhoneRegion string
}

// Router scores leads and pushes them into the CRM. Steps run in order and
// stop at the first failure; earlier steps are not undone.
type Router struct {
	crm      CRM
	cfg      ghl.Config
	ledger   Ledger
	notifier Notifier
	events   EventPublisher
	logger   logger.Logger
	tracer   trace.Tracer
	now      func() time.Time
	region   string
}

func NewRouter(deps Dependencies) *Router {
	r := &Router{
		crm:      deps.CRM,
		cfg:      deps.Config,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
		events:   deps.Events,
		logger:   deps.Logger,
		tracer:   deps.Tracer,
		now:      deps.Now,
		region:   deps.PhoneRegion,
	}
	if r.logger == nil {
		r.logger = logger.NewNoOpLogger()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("marketing-api/leads")
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.logger = r.logger.WithFields(map[string]interface{}{"component": "lead-router"})
	return r
}

// attempt tracks one routing run for the ledger and metrics.
type attempt struct {
	kind     string
	dispatch Dispatch
}

// HandleBooking routes a calendar booking: contact, demo opportunity,
// demo-booked workflow, calendar appointment.
func (r *Router) HandleBooking(ctx context.Context, b Booking) (*Result, error) {
	if r.crm == nil {
		return nil, errors.NewCRMNotConfiguredError("crm client is not configured")
	}
	if strings.TrimSpace(b.Email) == "" || strings.TrimSpace(b.Name) == "" {
		return nil, errors.NewLeadValidationFailedError("name and email are required")
	}
	if b.StartTime.IsZero() {
		return nil, errors.NewLeadValidationFailedError("start_time is required")
	}
	if b.EndTime.IsZero() || !b.EndTime.After(b.StartTime) {
		b.EndTime = b.StartTime.Add(DefaultMeetingLength)
	}

	ctx, span := r.tracer.Start(ctx, "leads.HandleBooking")
	defer span.End()

	score := LeadScore(b.ScoreInput(), ModeDemo)
	priority := DeterminePriority(score, "", "")
	att := r.begin(KindBooking, b.Email, score, priority)
	res := &Result{Score: score, Priority: priority, DealValue: BookingDealValue}

	first, last := SplitName(b.Name)
	contactID, created, err := r.upsertContact(ctx, ghl.Contact{
		FirstName:    first,
		LastName:     last,
		Email:        strings.TrimSpace(b.Email),
		Phone:        phone.NormalizeE164(b.Phone, r.region),
		CompanyName:  strings.TrimSpace(b.Company),
		Source:       BookingSource,
		Tags:         bookingTags(),
		CustomFields: r.contactFields(score, BookingSource, BookingUrgency),
	})
	if err != nil {
		return nil, r.fail(ctx, att, StepContact, err)
	}
	res.ContactID, res.ContactCreated = contactID, created
	att.dispatch.ContactID = contactID

	meeting := []ghl.CustomField{
		{Key: "meeting_date", Value: b.StartTime.UTC().Format(time.RFC3339)},
		{Key: "meeting_type", Value: orDefault(b.MeetingType, "Demo")},
	}
	if b.MeetingLink != "" {
		meeting = append(meeting, ghl.CustomField{Key: "meeting_link", Value: b.MeetingLink})
	}
	oppID, err := r.createOpportunity(ctx, ghl.Opportunity{
		PipelineID:    r.cfg.Pipelines.DemosPipeline,
		ContactID:     contactID,
		Name:          fmt.Sprintf("Demo: %s", strings.TrimSpace(b.Name)),
		MonetaryValue: BookingDealValue,
		Source:        BookingSource,
		CustomFields:  meeting,
	})
	if err != nil {
		return nil, r.fail(ctx, att, StepOpportunity, err)
	}
	res.OpportunityID = oppID
	att.dispatch.OpportunityID = oppID

	workflowID := r.cfg.Automations.DemoBookedWorkflow
	if err := r.triggerWorkflow(ctx, ghl.WorkflowTrigger{
		ContactID:      contactID,
		WorkflowID:     workflowID,
		EventStartTime: b.StartTime,
		Payload: map[string]interface{}{
			"contactId":     contactID,
			"opportunityId": oppID,
			"meetingDate":   b.StartTime.UTC().Format(time.RFC3339),
			"meetingType":   orDefault(b.MeetingType, "Demo"),
			"meetingLink":   b.MeetingLink,
		},
	}); err != nil {
		return nil, r.fail(ctx, att, StepWorkflow, err)
	}
	res.WorkflowID = workflowID
	att.dispatch.WorkflowID = workflowID

	notes := fmt.Sprintf("Booked from the website. CRM contact: %s", contactID)
	if b.Notes != "" {
		notes = b.Notes + "\n\n" + notes
	}
	apptID, err := r.createAppointment(ctx, ghl.Appointment{
		ContactID: contactID,
		Title:     fmt.Sprintf("%s with %s", orDefault(b.MeetingType, "Demo"), strings.TrimSpace(b.Name)),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Address:   b.MeetingLink,
		Notes:     notes,
	})
	if err != nil {
		return nil, r.fail(ctx, att, StepAppointment, err)
	}
	res.AppointmentID = apptID
	att.dispatch.AppointmentID = apptID

	r.complete(ctx, att, res, Alert{
		Kind:        KindBooking,
		Name:        b.Name,
		Email:       b.Email,
		Phone:       b.Phone,
		Company:     b.Company,
		MeetingTime: b.StartTime,
	})
	return res, nil
}

// HandleContactForm routes a contact form: contact, contacts-pipeline
// opportunity, then the urgent-lead or contact-form workflow by priority.
func (r *Router) HandleContactForm(ctx context.Context, f ContactForm) (*Result, error) {
	if r.crm == nil {
		return nil, errors.NewCRMNotConfiguredError("crm client is not configured")
	}
	if strings.TrimSpace(f.Email) == "" || strings.TrimSpace(f.Name) == "" {
		return nil, errors.NewLeadValidationFailedError("name and email are required")
	}

	ctx, span := r.tracer.Start(ctx, "leads.HandleContactForm")
	defer span.End()

	score := LeadScore(f.ScoreInput(), ModeContact)
	priority := DeterminePriority(score, f.Message, f.Subject)
	value := EstimateDealValue(f.BudgetRange, f.Subject)
	span.SetAttributes(attribute.Int("lead.score", score), attribute.String("lead.priority", string(priority)))

	att := r.begin(KindContact, f.Email, score, priority)
	res := &Result{Score: score, Priority: priority, DealValue: value}

	fields := r.contactFields(score, ContactSource, priority.Label())
	fields = append(fields,
		ghl.CustomField{Key: "message", Value: f.Message},
		ghl.CustomField{Key: "interested_agents", Value: strings.Join(f.InterestedAgents, ", ")},
		ghl.CustomField{Key: "budget", Value: f.BudgetRange},
		ghl.CustomField{Key: "timeline", Value: f.Timeline},
	)

	first, last := SplitName(f.Name)
	contactID, created, err := r.upsertContact(ctx, ghl.Contact{
		FirstName:    first,
		LastName:     last,
		Email:        strings.TrimSpace(f.Email),
		Phone:        phone.NormalizeE164(f.Phone, r.region),
		CompanyName:  strings.TrimSpace(f.Company),
		Source:       ContactSource,
		Tags:         contactFormTags(f, priority, score),
		CustomFields: fields,
	})
	if err != nil {
		return nil, r.fail(ctx, att, StepContact, err)
	}
	res.ContactID, res.ContactCreated = contactID, created
	att.dispatch.ContactID = contactID

	subject := orDefault(strings.TrimSpace(f.Subject), "general")
	oppID, err := r.createOpportunity(ctx, ghl.Opportunity{
		PipelineID:    r.cfg.Pipelines.ContactsPipeline,
		ContactID:     contactID,
		Name:          fmt.Sprintf("Inquiry (%s): %s", subject, strings.TrimSpace(f.Name)),
		MonetaryValue: value,
		Source:        ContactSource,
		CustomFields: []ghl.CustomField{
			{Key: "inquiry_subject", Value: subject},
			{Key: "inquiry_message", Value: f.Message},
			{Key: "lead_priority", Value: string(priority)},
		},
	})
	if err != nil {
		return nil, r.fail(ctx, att, StepOpportunity, err)
	}
	res.OpportunityID = oppID
	att.dispatch.OpportunityID = oppID

	workflowID := r.cfg.Automations.ContactFormWorkflow
	if priority.Escalated() {
		workflowID = r.cfg.Automations.UrgentLeadWorkflow
	}
	if err := r.triggerWorkflow(ctx, ghl.WorkflowTrigger{
		ContactID:      contactID,
		WorkflowID:     workflowID,
		EventStartTime: r.now(),
		Payload: map[string]interface{}{
			"contactId":     contactID,
			"opportunityId": oppID,
			"leadScore":     score,
			"priority":      string(priority),
			"subject":       subject,
		},
	}); err != nil {
		return nil, r.fail(ctx, att, StepWorkflow, err)
	}
	res.WorkflowID = workflowID
	att.dispatch.WorkflowID = workflowID

	var alert Alert
	if priority.Escalated() {
		alert = Alert{
			Kind:    KindContact,
			Name:    f.Name,
			Email:   f.Email,
			Phone:   f.Phone,
			Company: f.Company,
			Subject: f.Subject,
			Message: f.Message,
		}
	}
	r.complete(ctx, att, res, alert)
	return res, nil
}

func (r *Router) begin(kind, email string, score int, priority Priority) *attempt {
	metrics.LeadScores.WithLabelValues(kind).Observe(float64(score))
	return &attempt{
		kind: kind,
		dispatch: Dispatch{
			ID:        uuid.New(),
			Kind:      kind,
			Email:     strings.TrimSpace(email),
			Score:     score,
			Priority:  priority,
			CreatedAt: r.now(),
		},
	}
}

func (r *Router) fail(ctx context.Context, att *attempt, step string, err error) error {
	metrics.LeadRoutingFailures.WithLabelValues(att.kind, step).Inc()
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, step+" failed")

	att.dispatch.Status = StatusFailed
	att.dispatch.FailedStep = step
	att.dispatch.Error = err.Error()
	r.record(ctx, att.dispatch)

	r.logger.Error("Lead routing stopped", map[string]interface{}{
		"kind":          att.kind,
		"step":          step,
		"contactId":     att.dispatch.ContactID,
		"opportunityId": att.dispatch.OpportunityID,
		"dispatchId":    att.dispatch.ID.String(),
		"error":         err.Error(),
	})
	return err
}

// complete runs the best-effort tail: ledger, sales alert, lead event. A
// zero alert Kind means no alert.
func (r *Router) complete(ctx context.Context, att *attempt, res *Result, alert Alert) {
	metrics.LeadsRouted.WithLabelValues(att.kind, string(res.Priority)).Inc()

	att.dispatch.Status = StatusCompleted
	r.record(ctx, att.dispatch)

	if r.notifier != nil && alert.Kind != "" {
		alert.Score = res.Score
		alert.Priority = res.Priority
		alert.DealValue = res.DealValue
		alert.ContactID = res.ContactID
		alert.OpportunityID = res.OpportunityID
		if err := r.notifier.NotifyLead(ctx, alert); err != nil {
			r.logger.Warn("Failed to alert sales team", map[string]interface{}{
				"contactId": res.ContactID,
				"error":     err.Error(),
			})
		}
	}

	if r.events != nil {
		event := LeadEvent{
			Type:          "lead." + att.kind + ".routed",
			ContactID:     res.ContactID,
			OpportunityID: res.OpportunityID,
			Score:         res.Score,
			Priority:      res.Priority,
			WorkflowID:    res.WorkflowID,
			DealValue:     res.DealValue,
			OccurredAt:    r.now().UTC(),
		}
		if err := r.events.Send(ctx, res.ContactID, event); err != nil {
			r.logger.Warn("Failed to publish lead event", map[string]interface{}{
				"contactId": res.ContactID,
				"error":     errors.NewEventPublishFailedError("lead-events", err).Error(),
			})
		}
	}

	r.logger.Info("Lead routed", map[string]interface{}{
		"kind":          att.kind,
		"contactId":     res.ContactID,
		"opportunityId": res.OpportunityID,
		"workflowId":    res.WorkflowID,
		"score":         res.Score,
		"priority":      string(res.Priority),
	})
}

func (r *Router) record(ctx context.Context, d Dispatch) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.Record(ctx, d); err != nil {
		r.logger.Warn("Failed to record lead dispatch", map[string]interface{}{
			"dispatchId": d.ID.String(),
			"error":      err.Error(),
		})
	}
}

// contactFields fills the configured custom field IDs; unconfigured ones
// are left out.
func (r *Router) contactFields(score int, source, urgency string) []ghl.CustomField {
	keys := r.cfg.CustomFields
	var fields []ghl.CustomField
	if keys.LeadScore != "" {
		fields = append(fields, ghl.CustomField{ID: keys.LeadScore, Value: score})
	}
	if keys.Source != "" {
		fields = append(fields, ghl.CustomField{ID: keys.Source, Value: source})
	}
	if keys.Urgency != "" {
		fields = append(fields, ghl.CustomField{ID: keys.Urgency, Value: urgency})
	}
	return fields
}

func (r *Router) upsertContact(ctx context.Context, c ghl.Contact) (string, bool, error) {
	ctx, span := r.tracer.Start(ctx, "crm.upsert_contact")
	defer span.End()
	id, created, err := r.crm.UpsertContact(ctx, c)
	endStep(span, err)
	return id, created, err
}

func (r *Router) createOpportunity(ctx context.Context, o ghl.Opportunity) (string, error) {
	ctx, span := r.tracer.Start(ctx, "crm.create_opportunity",
		trace.WithAttributes(attribute.String("crm.pipeline", o.PipelineID)))
	defer span.End()
	id, err := r.crm.CreateOpportunity(ctx, o)
	endStep(span, err)
	return id, err
}

func (r *Router) triggerWorkflow(ctx context.Context, w ghl.WorkflowTrigger) error {
	ctx, span := r.tracer.Start(ctx, "crm.trigger_workflow",
		trace.WithAttributes(attribute.String("crm.workflow", w.WorkflowID)))
	defer span.End()
	err := r.crm.TriggerWorkflow(ctx, w)
	endStep(span, err)
	return err
}

func (r *Router) createAppointment(ctx context.Context, a ghl.Appointment) (string, error) {
	ctx, span := r.tracer.Start(ctx, "crm.create_appointment")
	defer span.End()
	id, err := r.crm.CreateAppointment(ctx, a)
	endStep(span, err)
	return id, err
}

func endStep(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
