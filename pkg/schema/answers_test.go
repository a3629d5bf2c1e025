package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/schema"
)

func TestValidateAnswer(t *testing.T) {
	age := &domain.Block{UUID: "age", Type: "number", FieldName: "age"}
	color := &domain.Block{UUID: "color", Type: "choice", FieldName: "color", Options: []string{"red", "blue"}}
	tags := &domain.Block{UUID: "tags", Type: "checkbox", FieldName: "tags", Options: []string{"a", "b"}}
	intro := &domain.Block{UUID: "intro", Type: "statement", FieldName: "intro"}
	custom := &domain.Block{UUID: "sig", Type: "signature", FieldName: "sig"}

	assert.NoError(t, schema.ValidateAnswer(age, 42))
	assert.NoError(t, schema.ValidateAnswer(age, nil))
	assert.NoError(t, schema.ValidateAnswer(color, "blue"))
	assert.NoError(t, schema.ValidateAnswer(tags, []any{"a"}))
	assert.NoError(t, schema.ValidateAnswer(custom, map[string]any{"png": "..."}))

	err := schema.ValidateAnswer(age, "old")
	var ave *schema.AnswerValidationError
	require.ErrorAs(t, err, &ave)
	assert.Equal(t, "age", ave.BlockID)
	assert.Equal(t, "number", ave.BlockType)

	assert.Error(t, schema.ValidateAnswer(color, "green"))
	assert.Error(t, schema.ValidateAnswer(tags, []any{"a", "z"}))
	assert.Error(t, schema.ValidateAnswer(intro, "x"))
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name  string
		block domain.Block
		raw   string
		want  any
	}{
		{"number", domain.Block{Type: "number"}, " 3.5 ", 3.5},
		{"integer", domain.Block{Type: "integer"}, "7", 7},
		{"boolean yes", domain.Block{Type: "boolean"}, "yes", true},
		{"boolean false", domain.Block{Type: "boolean"}, "false", false},
		{"choice by index", domain.Block{Type: "choice", Options: []string{"red", "blue"}}, "2", "blue"},
		{"choice by text", domain.Block{Type: "radio", Options: []string{"Red"}}, "red", "Red"},
		{"multi", domain.Block{Type: "checkbox", Options: []string{"a", "b", "c"}}, "1, c", []any{"a", "c"}},
		{"text", domain.Block{Type: "text"}, "hello", "hello"},
		{"empty", domain.Block{Type: "number"}, "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schema.ParseAnswer(&tt.block, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := schema.ParseAnswer(&domain.Block{UUID: "n", Type: "number"}, "abc")
	var ave *schema.AnswerValidationError
	assert.ErrorAs(t, err, &ave)
}

func TestForSurvey(t *testing.T) {
	s := domain.NewSurvey("root")
	_, err := s.AddPage("p1", "")
	require.NoError(t, err)
	_, err = s.AddBlock("p1", domain.Block{UUID: "age", Type: "integer", FieldName: "age"})
	require.NoError(t, err)
	_, err = s.AddBlock("p1", domain.Block{UUID: "intro", Type: "statement"})
	require.NoError(t, err)

	sch := schema.ForSurvey(s)
	require.Len(t, sch, 1)
	assert.Equal(t, "int", sch["age"].Name())
	assert.Error(t, schema.Validate(sch, map[string]any{"age": "x"}))
}
