package condition

import (
	"regexp"
	"strings"
	"time"
)

// Operator is the canonical name of a comparison predicate.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "notEquals"
	OpStrictEquals       Operator = "strictEquals"
	OpStrictNotEquals    Operator = "strictNotEquals"
	OpGreaterThan        Operator = "greaterThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThan           Operator = "lessThan"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"

	OpContains    Operator = "contains"
	OpNotContains Operator = "notContains"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"
	OpMatches     Operator = "matches"

	OpIn           Operator = "in"
	OpNotIn        Operator = "notIn"
	OpContainsAny  Operator = "containsAny"
	OpContainsAll  Operator = "containsAll"
	OpContainsNone Operator = "containsNone"

	OpBetween    Operator = "between"
	OpNotBetween Operator = "notBetween"

	OpIsEmpty    Operator = "isEmpty"
	OpIsNotEmpty Operator = "isNotEmpty"

	OpDateEquals             Operator = "dateEquals"
	OpDateNotEquals          Operator = "dateNotEquals"
	OpDateGreaterThan        Operator = "dateGreaterThan"
	OpDateGreaterThanOrEqual Operator = "dateGreaterThanOrEqual"
	OpDateLessThan           Operator = "dateLessThan"
	OpDateLessThanOrEqual    Operator = "dateLessThanOrEqual"
	OpDateBetween            Operator = "dateBetween"
	OpIsToday                Operator = "isToday"
	OpIsPastDate             Operator = "isPastDate"
	OpIsFutureDate           Operator = "isFutureDate"
	OpDayOfWeekEquals        Operator = "dayOfWeekEquals"
	OpAgeGreaterThan         Operator = "ageGreaterThan"
	OpAgeGreaterThanOrEqual  Operator = "ageGreaterThanOrEqual"
	OpAgeLessThan            Operator = "ageLessThan"
	OpAgeLessThanOrEqual     Operator = "ageLessThanOrEqual"
	OpAgeEquals              Operator = "ageEquals"
	OpAgeBetween             Operator = "ageBetween"
)

var operatorAliases = map[string]Operator{
	"==": OpEquals, "=": OpEquals, "eq": OpEquals, "equal": OpEquals,
	"!=": OpNotEquals, "<>": OpNotEquals, "neq": OpNotEquals, "ne": OpNotEquals, "notEqual": OpNotEquals,
	"===": OpStrictEquals, "!==": OpStrictNotEquals,
	">": OpGreaterThan, "gt": OpGreaterThan,
	">=": OpGreaterThanOrEqual, "gte": OpGreaterThanOrEqual, "greaterThanOrEquals": OpGreaterThanOrEqual,
	"<": OpLessThan, "lt": OpLessThan,
	"<=": OpLessThanOrEqual, "lte": OpLessThanOrEqual, "lessThanOrEquals": OpLessThanOrEqual,
	"doesNotContain": OpNotContains,
	"regex": OpMatches, "match": OpMatches,
	"notInList": OpNotIn, "inList": OpIn,
	"empty": OpIsEmpty, "notEmpty": OpIsNotEmpty,
	"dateAfter": OpDateGreaterThan, "dateBefore": OpDateLessThan,
	"dateOnOrAfter": OpDateGreaterThanOrEqual, "dateOnOrBefore": OpDateLessThanOrEqual,
	"isPast": OpIsPastDate, "isFuture": OpIsFutureDate,
	"dayOfWeek": OpDayOfWeekEquals,
}

var knownOperators = func() map[Operator]bool {
	ops := []Operator{
		OpEquals, OpNotEquals, OpStrictEquals, OpStrictNotEquals,
		OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual,
		OpContains, OpNotContains, OpStartsWith, OpEndsWith, OpMatches,
		OpIn, OpNotIn, OpContainsAny, OpContainsAll, OpContainsNone,
		OpBetween, OpNotBetween, OpIsEmpty, OpIsNotEmpty,
		OpDateEquals, OpDateNotEquals, OpDateGreaterThan, OpDateGreaterThanOrEqual,
		OpDateLessThan, OpDateLessThanOrEqual, OpDateBetween,
		OpIsToday, OpIsPastDate, OpIsFutureDate, OpDayOfWeekEquals,
		OpAgeGreaterThan, OpAgeGreaterThanOrEqual, OpAgeLessThan, OpAgeLessThanOrEqual,
		OpAgeEquals, OpAgeBetween,
	}
	m := make(map[Operator]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}()

// ParseOperator normalizes an operator name or symbol to its canonical form.
func ParseOperator(name string) (Operator, bool) {
	name = strings.TrimSpace(name)
	if op, ok := operatorAliases[name]; ok {
		return op, true
	}
	if knownOperators[Operator(name)] {
		return Operator(name), true
	}
	return "", false
}

// unaryOperators take no comparison value.
var unaryOperators = map[Operator]bool{
	OpIsEmpty: true, OpIsNotEmpty: true,
	OpIsToday: true, OpIsPastDate: true, OpIsFutureDate: true,
}

// rangeOperators take a [min, max] pair.
var rangeOperators = map[Operator]bool{
	OpBetween: true, OpNotBetween: true, OpDateBetween: true, OpAgeBetween: true,
}

// apply evaluates a single predicate. A missing field arrives as nil.
func (e *Evaluator) apply(op Operator, field, value any, typ string) bool {
	if field == nil {
		switch op {
		case OpIsEmpty:
			return true
		case OpIsNotEmpty:
			return false
		case OpEquals, OpStrictEquals:
			return value == nil
		case OpNotEquals, OpStrictNotEquals:
			return value != nil
		default:
			return false
		}
	}

	switch op {
	case OpIsEmpty:
		return isEmptyValue(field)
	case OpIsNotEmpty:
		return !isEmptyValue(field)

	case OpEquals, OpNotEquals:
		eq, ok := e.equal(field, value, typ)
		if !ok {
			return false
		}
		return eq == (op == OpEquals)
	case OpStrictEquals:
		return strictEqual(field, value)
	case OpStrictNotEquals:
		return !strictEqual(field, value)

	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		cmp, ok := e.compare(field, value, typ)
		if !ok {
			return false
		}
		return orderHolds(op, cmp)

	case OpContains, OpNotContains:
		var has bool
		if isSlice(field) {
			has = member(field, value)
		} else {
			has = strings.Contains(toString(field), toString(value))
		}
		return has == (op == OpContains)
	case OpStartsWith:
		return strings.HasPrefix(toString(field), toString(value))
	case OpEndsWith:
		return strings.HasSuffix(toString(field), toString(value))
	case OpMatches:
		if re, ok := value.(*regexp.Regexp); ok {
			return re.MatchString(toString(field))
		}
		re, err := compilePattern(toString(value))
		if err != nil {
			e.logger.Debug("invalid pattern in condition", "pattern", value, "err", err)
			return false
		}
		return re.MatchString(toString(field))

	case OpIn, OpNotIn:
		list, ok := toSlice(value)
		if !ok {
			return false
		}
		var found bool
		if isSlice(field) {
			found = anyIn(asSet(field), list)
		} else {
			found = member(list, field)
		}
		return found == (op == OpIn)
	case OpContainsAny, OpContainsAll, OpContainsNone:
		list, ok := toSlice(value)
		if !ok {
			return false
		}
		return setPredicate(op, asSet(field), list)

	case OpBetween, OpNotBetween:
		lo, hi, ok := bounds(value)
		if !ok {
			return false
		}
		lc, ok1 := e.compare(field, lo, typ)
		hc, ok2 := e.compare(field, hi, typ)
		if !ok1 || !ok2 {
			return false
		}
		inside := lc >= 0 && hc <= 0
		return inside == (op == OpBetween)
	}

	return e.applyDate(op, field, value)
}

func (e *Evaluator) applyDate(op Operator, field, value any) bool {
	fd, ok := parseDate(field)
	if !ok {
		return false
	}
	now := e.now().UTC()
	day := truncateDay(fd)

	switch op {
	case OpIsToday:
		return sameDay(fd, now)
	case OpIsPastDate:
		return day.Before(truncateDay(now))
	case OpIsFutureDate:
		return day.After(truncateDay(now))
	case OpDayOfWeekEquals:
		wd, ok := parseWeekday(value)
		return ok && fd.Weekday() == wd
	case OpDateBetween:
		lo, hi, ok := bounds(value)
		if !ok {
			return false
		}
		ld, ok1 := parseDate(lo)
		hd, ok2 := parseDate(hi)
		if !ok1 || !ok2 {
			return false
		}
		return !day.Before(truncateDay(ld)) && !day.After(truncateDay(hd))
	case OpAgeBetween:
		lo, hi, ok := bounds(value)
		if !ok {
			return false
		}
		ln, ok1 := toNumber(lo)
		hn, ok2 := toNumber(hi)
		if !ok1 || !ok2 {
			return false
		}
		age := float64(ageAt(fd, now))
		return age >= ln && age <= hn
	case OpAgeGreaterThan, OpAgeGreaterThanOrEqual, OpAgeLessThan, OpAgeLessThanOrEqual, OpAgeEquals:
		n, ok := toNumber(value)
		if !ok {
			return false
		}
		cmp := compareFloat(float64(ageAt(fd, now)), n)
		switch op {
		case OpAgeGreaterThan:
			return cmp > 0
		case OpAgeGreaterThanOrEqual:
			return cmp >= 0
		case OpAgeLessThan:
			return cmp < 0
		case OpAgeLessThanOrEqual:
			return cmp <= 0
		default:
			return cmp == 0
		}
	}

	vd, ok := parseDate(value)
	if !ok {
		return false
	}
	other := truncateDay(vd)
	switch op {
	case OpDateEquals:
		return day.Equal(other)
	case OpDateNotEquals:
		return !day.Equal(other)
	case OpDateGreaterThan:
		return day.After(other)
	case OpDateGreaterThanOrEqual:
		return !day.Before(other)
	case OpDateLessThan:
		return day.Before(other)
	case OpDateLessThanOrEqual:
		return !day.After(other)
	}
	return false
}

func (e *Evaluator) equal(a, b any, typ string) (bool, bool) {
	if typ == "" {
		return looseEqual(a, b), true
	}
	ca, ok1 := coerce(a, typ)
	cb, ok2 := coerce(b, typ)
	if !ok1 || !ok2 {
		return false, false
	}
	if at, ok := ca.(time.Time); ok {
		bt := cb.(time.Time)
		return at.Equal(bt), true
	}
	cmp, ok := typedCompare(ca, cb)
	return ok && cmp == 0, ok
}

func (e *Evaluator) compare(a, b any, typ string) (int, bool) {
	if typ == "" {
		return looseCompare(a, b)
	}
	ca, ok1 := coerce(a, typ)
	cb, ok2 := coerce(b, typ)
	if !ok1 || !ok2 {
		return 0, false
	}
	return typedCompare(ca, cb)
}

func orderHolds(op Operator, cmp int) bool {
	switch op {
	case OpGreaterThan:
		return cmp > 0
	case OpGreaterThanOrEqual:
		return cmp >= 0
	case OpLessThan:
		return cmp < 0
	default:
		return cmp <= 0
	}
}

func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	an, aNum := numericOnly(a)
	bn, bNum := numericOnly(b)
	if aNum || bNum {
		return aNum && bNum && an == bn
	}
	switch at := a.(type) {
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	}
	return false
}

// numericOnly converts genuine numbers, not numeric strings or booleans.
func numericOnly(v any) (float64, bool) {
	switch v.(type) {
	case string, bool, nil:
		return 0, false
	}
	return toNumber(v)
}

func member(list, v any) bool {
	items, ok := toSlice(list)
	if !ok {
		return false
	}
	for _, item := range items {
		if looseEqual(item, v) {
			return true
		}
	}
	return false
}

func anyIn(values, list []any) bool {
	for _, v := range values {
		if member(list, v) {
			return true
		}
	}
	return false
}

func setPredicate(op Operator, field, list []any) bool {
	switch op {
	case OpContainsAny:
		return anyIn(list, field)
	case OpContainsNone:
		return !anyIn(list, field)
	default:
		for _, want := range list {
			if !member(field, want) {
				return false
			}
		}
		return true
	}
}

func bounds(value any) (any, any, bool) {
	pair, ok := toSlice(value)
	if !ok || len(pair) != 2 {
		return nil, nil, false
	}
	return pair[0], pair[1], true
}

// compilePattern accepts plain patterns and the /pattern/flags literal form.
func compilePattern(p string) (*regexp.Regexp, error) {
	if len(p) >= 2 && p[0] == '/' {
		if end := strings.LastIndex(p, "/"); end > 0 {
			return compileWithFlags(p[1:end], p[end+1:])
		}
	}
	return regexp.Compile(p)
}

func compileWithFlags(pattern, flags string) (*regexp.Regexp, error) {
	var prefix strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix.WriteRune(f)
		}
	}
	if prefix.Len() > 0 {
		pattern = "(?" + prefix.String() + ")" + pattern
	}
	return regexp.Compile(pattern)
}
