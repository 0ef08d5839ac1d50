package ghl

import (
	"fmt"
	"time"

	"marketing-api/internal/common/config"

	"github.com/go-playground/validator/v10"
)

const DefaultAPIVersion = "2021-07-28"

// Config is the HighLevel adapter configuration: credentials plus the IDs of
// the automations, pipelines and custom fields leads are routed into.
type Config struct {
	LocationID    string        `validate:"required"`
	APIKey        string        `validate:"required"`
	WebhookSecret string
	BaseURL       string        `validate:"required,url"`
	APIVersion    string        `validate:"required"`
	CalendarID    string
	Timeout       time.Duration `validate:"gt=0"`
	Automations   Automations
	Pipelines     Pipelines
	CustomFields  CustomFieldKeys
}

type Automations struct {
	DemoBookedWorkflow  string `validate:"required"`
	ContactFormWorkflow string `validate:"required"`
	UrgentLeadWorkflow  string `validate:"required"`
}

type Pipelines struct {
	DemosPipeline    string `validate:"required"`
	ContactsPipeline string `validate:"required"`
}

// CustomFieldKeys are the IDs of the contact custom fields the adapter fills.
type CustomFieldKeys struct {
	LeadScore string
	Source    string
	Urgency   string
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid crm configuration: %w", err)
	}
	return nil
}

// FromAppConfig maps the crm section of the application config.
func FromAppConfig(cfg config.CRMConfig) Config {
	return Config{
		LocationID:    cfg.LocationID,
		APIKey:        cfg.APIKey,
		WebhookSecret: cfg.WebhookSecret,
		BaseURL:       cfg.BaseURL,
		APIVersion:    cfg.APIVersion,
		CalendarID:    cfg.CalendarID,
		Timeout:       config.GetDuration(cfg.Timeout),
		Automations: Automations{
			DemoBookedWorkflow:  cfg.Automations.DemoBookedWorkflow,
			ContactFormWorkflow: cfg.Automations.ContactFormWorkflow,
			UrgentLeadWorkflow:  cfg.Automations.UrgentLeadWorkflow,
		},
		Pipelines: Pipelines{
			DemosPipeline:    cfg.Pipelines.DemosPipeline,
			ContactsPipeline: cfg.Pipelines.ContactsPipeline,
		},
		CustomFields: CustomFieldKeys{
			LeadScore: cfg.CustomFields.LeadScore,
			Source:    cfg.CustomFields.Source,
			Urgency:   cfg.CustomFields.Urgency,
		},
	}
}
