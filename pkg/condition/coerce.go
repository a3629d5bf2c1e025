package condition

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Type hints accepted on structured rules.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeDate    = "date"
)

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = toString(e)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	default:
		return fmt.Sprint(v)
	}
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "y", "on":
			return true, true
		case "false", "0", "no", "n", "off", "":
			return false, true
		}
		return false, false
	case nil:
		return false, true
	default:
		if f, ok := toNumber(v); ok {
			return f != 0, true
		}
		return false, false
	}
}

// toSlice returns the elements of an array operand. JSON-encoded array strings
// are decoded; malformed JSON is reported as not-an-array.
func toSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case string:
		s := strings.TrimSpace(t)
		if !strings.HasPrefix(s, "[") || !gjson.Valid(s) {
			return nil, false
		}
		parsed := gjson.Parse(s)
		if !parsed.IsArray() {
			return nil, false
		}
		vals, ok := parsed.Value().([]any)
		return vals, ok
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isSlice(v any) bool {
	switch v.(type) {
	case string, nil:
		return false
	}
	_, ok := toSlice(v)
	return ok
}

// asSet promotes a scalar to a one-element list so set operators accept both.
func asSet(v any) []any {
	if s, ok := toSlice(v); ok && isSlice(v) {
		return s
	}
	if v == nil {
		return nil
	}
	return []any{v}
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case map[string]any:
		return len(t) == 0
	}
	if isSlice(v) {
		s, _ := toSlice(v)
		return len(s) == 0
	}
	return false
}

// looseEqual mirrors the historical "==" semantics: numeric strings compare with
// numbers, booleans compare as 0/1 and nil only equals nil.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	aSlice, bSlice := isSlice(a), isSlice(b)
	switch {
	case aSlice && bSlice:
		as, _ := toSlice(a)
		bs, _ := toSlice(b)
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !looseEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	case aSlice || bSlice:
		return toString(a) == toString(b)
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as == bs
	}

	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn
	}
	if aIsStr || bIsStr {
		return toString(a) == toString(b)
	}
	return reflect.DeepEqual(a, b)
}

// looseCompare orders two values: strings lexicographically, everything else
// numerically. ok is false when the pair is not comparable.
func looseCompare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		// Two numeric strings still compare as numbers; "10" > "9" is what authors mean.
		an, aok := toNumber(as)
		bn, bok := toNumber(bs)
		if aok && bok {
			return compareFloat(an, bn), true
		}
		return strings.Compare(as, bs), true
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if !aok || !bok {
		return 0, false
	}
	return compareFloat(an, bn), true
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// coerce converts a value to the hinted type. ok is false when conversion fails.
func coerce(v any, typ string) (any, bool) {
	switch typ {
	case TypeNumber:
		f, ok := toNumber(v)
		return f, ok
	case TypeBoolean:
		b, ok := toBool(v)
		return b, ok
	case TypeString:
		return toString(v), true
	case TypeDate:
		t, ok := parseDate(v)
		return t, ok
	default:
		return v, true
	}
}

// typedCompare orders two values already coerced to the same hinted type.
func typedCompare(a, b any) (int, bool) {
	switch at := a.(type) {
	case float64:
		bt, ok := b.(float64)
		return compareFloat(at, bt), ok
	case string:
		bt, ok := b.(string)
		return strings.Compare(at, bt), ok
	case bool:
		bt, ok := b.(bool)
		if !ok {
			return 0, false
		}
		ai, bi := 0, 0
		if at {
			ai = 1
		}
		if bt {
			bi = 1
		}
		return ai - bi, true
	case time.Time:
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	return 0, false
}
