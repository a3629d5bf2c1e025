package domain

// TargetSubmit is the reserved rule target that ends the survey.
const TargetSubmit = "submit"

// NavigationRule defines where the survey goes next when its Condition holds.
// Target references a block (uuid or field name), a page (uuid or name) or
// TargetSubmit. IsPage disambiguates block and page references.
type NavigationRule struct {
	Condition Condition `json:"condition" yaml:"condition"`
	Target    string    `json:"target" yaml:"target"`
	IsPage    bool      `json:"isPage,omitempty" yaml:"isPage,omitempty"`
	IsDefault bool      `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`
}

// Signature identifies the rule slot a graph edit replaces: same condition and
// same default flag means same rule.
func (r NavigationRule) Signature() string {
	if r.IsDefault {
		return "default|" + r.Condition.String()
	}
	return "rule|" + r.Condition.String()
}

// Clone returns a deep copy of the rule.
func (r NavigationRule) Clone() NavigationRule {
	r.Condition = r.Condition.Clone()
	return r
}

// CloneRules deep-copies a rule list, preserving nil.
func CloneRules(rules []NavigationRule) []NavigationRule {
	if rules == nil {
		return nil
	}
	out := make([]NavigationRule, len(rules))
	for i, r := range rules {
		out[i] = r.Clone()
	}
	return out
}

// DestinationKind classifies a resolved destination.
type DestinationKind string

const (
	DestinationBlock  DestinationKind = "block"
	DestinationPage   DestinationKind = "page"
	DestinationSubmit DestinationKind = "submit"
)

// Destination is the outcome of resolving a rule list.
type Destination struct {
	Kind   DestinationKind `json:"kind"`
	Target string          `json:"target,omitempty"`
}

// DestinationOf converts a matched rule into its Destination.
func DestinationOf(rule NavigationRule) Destination {
	switch {
	case rule.Target == TargetSubmit:
		return Destination{Kind: DestinationSubmit}
	case rule.IsPage:
		return Destination{Kind: DestinationPage, Target: rule.Target}
	default:
		return Destination{Kind: DestinationBlock, Target: rule.Target}
	}
}
