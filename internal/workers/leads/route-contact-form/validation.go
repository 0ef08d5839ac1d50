package routecontactform

import "marketing-api/internal/common/validation"

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["name", "email"],
  "properties": {
    "name":             {"type": "string", "minLength": 1, "maxLength": 200},
    "email":            {"type": "string", "format": "email", "maxLength": 255},
    "phone":            {"type": "string", "maxLength": 50},
    "company":          {"type": "string", "maxLength": 200},
    "subject":          {"type": "string", "maxLength": 500},
    "message":          {"type": "string", "maxLength": 10000},
    "budgetRange":      {"type": "string", "maxLength": 100},
    "timeline":         {"type": "string", "maxLength": 100},
    "interestedAgents": {"type": "array", "items": {"type": "string"}, "maxItems": 20}
  }
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}
