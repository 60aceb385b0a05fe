// internal/analysis/schema.go
package analysis

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// resultsSchema constrains the results object an external processor may
// attach to a completed job. The counts/processes cross-check lives in the
// callback receiver; the schema guards shape and ranges only.
const resultsSchema = `{
	"type": "object",
	"required": ["overallScore", "totalProcesses", "alignedCount", "partialCount", "misalignedCount", "processes"],
	"properties": {
		"overallScore":    {"type": "integer", "minimum": 0, "maximum": 100},
		"totalProcesses":  {"type": "integer", "minimum": 0},
		"alignedCount":    {"type": "integer", "minimum": 0},
		"partialCount":    {"type": "integer", "minimum": 0},
		"misalignedCount": {"type": "integer", "minimum": 0},
		"processes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["processName", "status", "overallScore"],
				"properties": {
					"processName":  {"type": "string"},
					"status":       {"type": "string", "enum": ["aligned", "partial", "misaligned"]},
					"overallScore": {"type": "integer", "minimum": 0, "maximum": 100}
				}
			}
		},
		"topRecommendations": {"type": "array"},
		"executiveSummary":   {"type": "string"}
	}
}`

var resultsSchemaLoader = gojsonschema.NewStringLoader(resultsSchema)

// validateResultsPayload checks a raw callback results document against
// resultsSchema and returns a single human-readable error on failure.
func validateResultsPayload(raw []byte) error {
	result, err := gojsonschema.Validate(resultsSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("results schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("results payload invalid: %s", strings.Join(msgs, "; "))
}
