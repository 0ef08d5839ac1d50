package routebooking

import "marketing-api/internal/common/validation"

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["name", "email", "startTime"],
  "properties": {
    "name":        {"type": "string", "minLength": 1, "maxLength": 200},
    "email":       {"type": "string", "format": "email", "maxLength": 255},
    "phone":       {"type": "string", "maxLength": 50},
    "company":     {"type": "string", "maxLength": 200},
    "meetingType": {"type": "string", "maxLength": 100},
    "startTime":   {"type": "string", "format": "date-time"},
    "endTime":     {"type": "string", "format": "date-time"},
    "meetingLink": {"type": "string", "maxLength": 2048},
    "notes":       {"type": "string", "maxLength": 5000}
  }
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}
