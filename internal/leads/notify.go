package leads

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"marketing-api/internal/common/errors"
)

// EmailSender is satisfied by the SES client.
type EmailSender interface {
	SendText(ctx context.Context, to []string, subject, body string) error
}

// SMSSender is satisfied by the SNS client.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// Notifier tells the sales team about a routed lead.
type Notifier interface {
	NotifyLead(ctx context.Context, alert Alert) error
}

type Alert struct {
	Kind          string
	Name          string
	Email         string
	Phone         string
	Company       string
	Subject       string
	Message       string
	Score         int
	Priority      Priority
	DealValue     int
	MeetingTime   time.Time
	ContactID     string
	OpportunityID string
}

// SalesNotifier sends an email to the sales team and a text to the on-call
// sales phone. Either channel may be nil.
type SalesNotifier struct {
	email      EmailSender
	sms        SMSSender
	salesTeam  []string
	salesPhone string
}

func NewSalesNotifier(email EmailSender, salesTeam []string, sms SMSSender, salesPhone string) *SalesNotifier {
	return &SalesNotifier{
		email:      email,
		sms:        sms,
		salesTeam:  salesTeam,
		salesPhone: salesPhone,
	}
}

func (n *SalesNotifier) NotifyLead(ctx context.Context, a Alert) error {
	var errs []error

	if n.email != nil && len(n.salesTeam) > 0 {
		if err := n.email.SendText(ctx, n.salesTeam, alertSubject(a), alertBody(a)); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}
	if n.sms != nil && n.salesPhone != "" {
		if err := n.sms.SendSMS(ctx, n.salesPhone, alertSMS(a)); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.NewNotificationSendFailedError("sales_alert", stderrors.Join(errs...))
	}
	return nil
}

func alertSubject(a Alert) string {
	if a.Kind == KindBooking {
		return fmt.Sprintf("Demo booked: %s", a.Name)
	}
	return fmt.Sprintf("[%s] New lead: %s", a.Priority.Label(), a.Name)
}

func alertBody(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\n", a.Name, a.Email)
	if a.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", a.Phone)
	}
	if a.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", a.Company)
	}
	fmt.Fprintf(&b, "Score: %d\nPriority: %s\nEstimated value: $%d\n", a.Score, a.Priority.Label(), a.DealValue)
	if !a.MeetingTime.IsZero() {
		fmt.Fprintf(&b, "Meeting: %s\n", a.MeetingTime.UTC().Format(time.RFC1123))
	}
	if a.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", a.Subject)
	}
	if a.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", a.Message)
	}
	fmt.Fprintf(&b, "\nContact: %s\nOpportunity: %s\n", a.ContactID, a.OpportunityID)
	return b.String()
}

func alertSMS(a Alert) string {
	if a.Kind == KindBooking {
		return fmt.Sprintf("Demo booked: %s (%s) at %s", a.Name, a.Email, a.MeetingTime.UTC().Format("Jan 2 15:04 MST"))
	}
	return fmt.Sprintf("%s lead: %s (%s), score %d", a.Priority.Label(), a.Name, a.Email, a.Score)
}
