package ghl

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketing-api/internal/common/errors"
	httpclient "marketing-api/internal/common/http"
)

// Client talks to the HighLevel (LeadConnector) REST API.
type Client struct {
	cfg  Config
	http *httpclient.Client
}

type CustomField struct {
	ID    string      `json:"id,omitempty"`
	Key   string      `json:"key,omitempty"`
	Value interface{} `json:"field_value"`
}

type Contact struct {
	ID           string        `json:"id,omitempty"`
	LocationID   string        `json:"locationId"`
	FirstName    string        `json:"firstName,omitempty"`
	LastName     string        `json:"lastName,omitempty"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	CompanyName  string        `json:"companyName,omitempty"`
	Source       string        `json:"source,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	CustomFields []CustomField `json:"customFields,omitempty"`
}

type Opportunity struct {
	ID            string        `json:"id,omitempty"`
	LocationID    string        `json:"locationId"`
	PipelineID    string        `json:"pipelineId"`
	ContactID     string        `json:"contactId"`
	Name          string        `json:"name"`
	Status        string        `json:"status"`
	MonetaryValue int           `json:"monetaryValue"`
	Source        string        `json:"source,omitempty"`
	CustomFields  []CustomField `json:"customFields,omitempty"`
}

type WorkflowTrigger struct {
	ContactID      string                 `json:"-"`
	WorkflowID     string                 `json:"-"`
	EventStartTime time.Time              `json:"eventStartTime"`
	Payload        map[string]interface{} `json:"payload,omitempty"`
}

type Appointment struct {
	ID                string    `json:"id,omitempty"`
	LocationID        string    `json:"locationId"`
	CalendarID        string    `json:"calendarId,omitempty"`
	ContactID         string    `json:"contactId"`
	Title             string    `json:"title"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	AppointmentStatus string    `json:"appointmentStatus"`
	Address           string    `json:"address,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

func NewClient(cfg Config) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:  cfg,
		http: httpclient.NewClient(cfg.Timeout),
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
		"Version":       c.cfg.APIVersion,
	}
}

// UpsertContact creates the contact or updates the one already holding the
// email address. It returns the contact ID and whether it was newly created.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (string, bool, error) {
	contact.LocationID = c.cfg.LocationID

	var resp struct {
		New     bool `json:"new"`
		Contact struct {
			ID string `json:"id"`
		} `json:"contact"`
	}
	if err := c.post(ctx, "upsert contact", "/contacts/upsert", contact, &resp); err != nil {
		return "", false, err
	}
	if resp.Contact.ID == "" {
		return "", false, errors.NewCRMAPIError("upsert contact", 0, fmt.Errorf("response missing contact id"))
	}
	return resp.Contact.ID, resp.New, nil
}

// FindContactByEmail returns nil without error when no contact matches.
func (c *Client) FindContactByEmail(ctx context.Context, email string) (*Contact, error) {
	q := url.Values{}
	q.Set("locationId", c.cfg.LocationID)
	q.Set("email", email)

	raw, status, err := c.http.DoJSON(ctx, http.MethodGet, c.cfg.BaseURL+"/contacts/search/duplicate?"+q.Encode(), c.headers(), nil)
	if err != nil {
		return nil, errors.NewCRMAPIError("find contact", status, err)
	}

	var resp struct {
		Contact *Contact `json:"contact"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.NewCRMAPIError("find contact", status, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return resp.Contact, nil
}

func (c *Client) CreateOpportunity(ctx context.Context, opp Opportunity) (string, error) {
	opp.LocationID = c.cfg.LocationID
	if opp.Status == "" {
		opp.Status = "open"
	}

	var resp struct {
		Opportunity struct {
			ID string `json:"id"`
		} `json:"opportunity"`
	}
	if err := c.post(ctx, "create opportunity", "/opportunities/", opp, &resp); err != nil {
		return "", err
	}
	if resp.Opportunity.ID == "" {
		return "", errors.NewCRMAPIError("create opportunity", 0, fmt.Errorf("response missing opportunity id"))
	}
	return resp.Opportunity.ID, nil
}

func (c *Client) TriggerWorkflow(ctx context.Context, trigger WorkflowTrigger) error {
	if trigger.WorkflowID == "" {
		return errors.NewCRMNotConfiguredError("workflow id is empty")
	}
	path := fmt.Sprintf("/contacts/%s/workflow/%s", url.PathEscape(trigger.ContactID), url.PathEscape(trigger.WorkflowID))
	return c.post(ctx, "trigger workflow", path, trigger, nil)
}

func (c *Client) CreateAppointment(ctx context.Context, appt Appointment) (string, error) {
	appt.LocationID = c.cfg.LocationID
	if appt.CalendarID == "" {
		appt.CalendarID = c.cfg.CalendarID
	}
	if appt.AppointmentStatus == "" {
		appt.AppointmentStatus = "confirmed"
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "create appointment", "/calendars/events/appointments", appt, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) post(ctx context.Context, op, path string, body, out interface{}) error {
	raw, status, err := c.http.DoJSON(ctx, http.MethodPost, c.cfg.BaseURL+path, c.headers(), body)
	if err != nil {
		var netErr net.Error
		if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
			return errors.NewTimeoutError("crm", err)
		}
		return errors.NewCRMAPIError(op, status, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewCRMAPIError(op, status, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}

// Ping checks credentials with a cheap duplicate lookup. Only auth failures
// are reported; other upstream errors do not make the adapter unready.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FindContactByEmail(ctx, "healthcheck@example.com")
	if err == nil {
		return nil
	}
	if stdErr, ok := errors.As(err); ok {
		if status, _ := stdErr.Metadata["status"].(int); status == http.StatusUnauthorized || status == http.StatusForbidden {
			return fmt.Errorf("crm authentication failed: %w", err)
		}
	}
	return nil
}
