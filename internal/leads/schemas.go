package leads

import (
	"encoding/json"
	"fmt"
	"strings"

	"marketing-api/internal/common/errors"
	"marketing-api/internal/common/validation"
)

var bookingSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["name", "email", "start_time"],
  "properties": {
    "name":         {"type": "string", "minLength": 1, "maxLength": 200},
    "email":        {"type": "string", "format": "email", "maxLength": 255},
    "phone":        {"type": "string", "maxLength": 50},
    "company":      {"type": "string", "maxLength": 200},
    "meeting_type": {"type": "string", "maxLength": 100},
    "start_time":   {"type": "string", "format": "date-time"},
    "end_time":     {"type": "string", "format": "date-time"},
    "meeting_link": {"type": "string", "maxLength": 2048},
    "notes":        {"type": "string", "maxLength": 5000}
  }
}`)

var contactFormSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["name", "email"],
  "properties": {
    "name":         {"type": "string", "minLength": 1, "maxLength": 200},
    "email":        {"type": "string", "format": "email", "maxLength": 255},
    "phone":        {"type": "string", "maxLength": 50},
    "company":      {"type": "string", "maxLength": 200},
    "subject":      {"type": "string", "maxLength": 100},
    "message":      {"type": "string", "maxLength": 10000},
    "budget_range": {"type": "string", "maxLength": 50},
    "timeline":     {"type": "string", "maxLength": 50},
    "interested_agents": {
      "type": "array",
      "items": {"type": "string", "maxLength": 100},
      "maxItems": 20
    }
  }
}`)

// DecodeBooking validates raw against the booking schema and decodes it.
func DecodeBooking(raw []byte) (Booking, error) {
	var b Booking
	if err := decode(raw, bookingSchema, &b); err != nil {
		return Booking{}, err
	}
	return b, nil
}

// DecodeContactForm validates raw against the contact form schema and decodes it.
func DecodeContactForm(raw []byte) (ContactForm, error) {
	var f ContactForm
	if err := decode(raw, contactFormSchema, &f); err != nil {
		return ContactForm{}, err
	}
	return f, nil
}

func decode(raw []byte, schema *validation.Schema, out interface{}) error {
	res := schema.ValidateJSON(raw)
	if !res.Valid {
		return errors.NewLeadValidationFailedError(strings.Join(res.GetErrorMessages(), "; "))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewInputParsingError(fmt.Errorf("decode lead: %w", err))
	}
	return nil
}
