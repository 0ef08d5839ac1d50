package refreshtrends

import "marketing-api/internal/common/validation"

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "properties": {
    "force": {"type": "boolean"}
  }
}`)
