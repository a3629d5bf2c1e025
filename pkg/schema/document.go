package schema

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/aretw0/surveyflow/pkg/domain"
)

//go:embed survey.schema.json
var surveySchema []byte

var documentSchema = gojsonschema.NewBytesLoader(surveySchema)

// DocumentSchema returns the JSON Schema that survey documents must satisfy.
func DocumentSchema() []byte {
	return append([]byte(nil), surveySchema...)
}

// ValidateDocument checks a JSON survey document against the embedded schema.
// Violations are reported as a *domain.DocumentError whose Reasons list each one.
func ValidateDocument(data []byte) error {
	result, err := gojsonschema.Validate(documentSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &domain.DocumentError{Err: err}
	}
	if result.Valid() {
		return nil
	}
	reasons := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		reasons = append(reasons, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return &domain.DocumentError{Reasons: reasons}
}

// Decode validates a JSON survey document and builds the survey from it.
func Decode(source string, data []byte) (*domain.Survey, error) {
	if err := ValidateDocument(data); err != nil {
		if de, ok := err.(*domain.DocumentError); ok && source != "" {
			de.Source = source
		}
		return nil, err
	}
	s, err := domain.DecodeDocument(data)
	if err != nil {
		if de, ok := err.(*domain.DocumentError); ok && source != "" {
			de.Source = source
		}
		return nil, err
	}
	return s, nil
}
