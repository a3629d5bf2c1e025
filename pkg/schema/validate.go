package schema

import (
	"sort"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Schema is a map of field names to their expected types.
type Schema map[string]Type

// Validate checks the values present in data against the schema. Absent fields
// are not answered yet and pass; fields unknown to the schema are ignored.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		typ, ok := schema[key]
		if !ok {
			continue
		}
		value := data[key]
		if value == nil {
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ForSurvey builds the answer schema of a survey from its field-bearing blocks.
func ForSurvey(s *domain.Survey) Schema {
	out := make(Schema)
	for _, b := range s.Blocks() {
		if b.FieldName == "" {
			continue
		}
		out[b.FieldName] = ForBlock(b)
	}
	return out
}
