package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Block types with answer semantics. Any other type accepts any value.
const (
	BlockText        = "text"
	BlockTextarea    = "textarea"
	BlockEmail       = "email"
	BlockNumber      = "number"
	BlockInteger     = "integer"
	BlockDate        = "date"
	BlockBoolean     = "boolean"
	BlockChoice      = "choice"
	BlockRadio       = "radio"
	BlockSelect      = "select"
	BlockMultiChoice = "multichoice"
	BlockCheckbox    = "checkbox"
	BlockStatement   = "statement"
)

// ForBlock returns the answer type of a block.
func ForBlock(b *domain.Block) Type {
	switch strings.ToLower(b.Type) {
	case BlockText, BlockTextarea:
		return String()
	case BlockEmail:
		return Email()
	case BlockNumber:
		return Float()
	case BlockInteger:
		return Int()
	case BlockDate:
		return Date()
	case BlockBoolean:
		return Bool()
	case BlockChoice, BlockRadio, BlockSelect:
		return OneOf(b.Options...)
	case BlockMultiChoice, BlockCheckbox:
		return Slice(OneOf(b.Options...))
	default:
		return Any()
	}
}

// AcceptsAnswer reports whether the block collects an answer at all.
func AcceptsAnswer(b *domain.Block) bool {
	return b.FieldName != "" && !strings.EqualFold(b.Type, BlockStatement)
}

// ValidateAnswer checks value against the block's type. A nil value clears the
// answer and is always accepted.
func ValidateAnswer(b *domain.Block, value any) error {
	if value == nil {
		return nil
	}
	if !AcceptsAnswer(b) {
		return &AnswerValidationError{
			BlockID:   b.UUID,
			FieldName: b.FieldName,
			BlockType: b.Type,
			Value:     value,
			Err:       fmt.Errorf("block does not collect an answer"),
		}
	}
	if err := ForBlock(b).Validate(value); err != nil {
		return &AnswerValidationError{
			BlockID:   b.UUID,
			FieldName: b.FieldName,
			BlockType: b.Type,
			Value:     value,
			Err:       err,
		}
	}
	return nil
}

// ParseAnswer converts raw text input into the value the block type expects.
// Multi-choice input is comma separated. Empty input yields nil.
func ParseAnswer(b *domain.Block, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var (
		value any = raw
		err   error
	)
	switch strings.ToLower(b.Type) {
	case BlockNumber:
		value, err = strconv.ParseFloat(raw, 64)
	case BlockInteger:
		var n int64
		n, err = strconv.ParseInt(raw, 10, 64)
		value = int(n)
	case BlockBoolean:
		value, err = parseBool(raw)
	case BlockChoice, BlockRadio, BlockSelect:
		value = pickOption(b.Options, raw)
	case BlockMultiChoice, BlockCheckbox:
		parts := strings.Split(raw, ",")
		picked := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				picked = append(picked, pickOption(b.Options, p))
			}
		}
		value = picked
	}
	if err != nil {
		return nil, &AnswerValidationError{BlockID: b.UUID, FieldName: b.FieldName, BlockType: b.Type, Value: raw, Err: err}
	}
	return value, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "y", "yes", "sim", "s":
		return true, nil
	case "n", "no", "nao", "não":
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// pickOption accepts either the option text or its 1-based index.
func pickOption(options []string, raw string) string {
	if i, err := strconv.Atoi(raw); err == nil && i >= 1 && i <= len(options) {
		return options[i-1]
	}
	for _, o := range options {
		if strings.EqualFold(o, raw) {
			return o
		}
	}
	return raw
}
