package layout

import (
	"math"
	"unicode/utf8"

	"github.com/aretw0/surveyflow/pkg/domain"
)

const (
	charWidth     = 7.5
	minBlockWidth = 180
	maxNodeWidth  = 320
	optionHeight  = 22
	maxOptions    = 8
	rulesBadge    = 18
)

// EstimateSize guesses the box of a node from its content: label length, the
// number of choice options and whether it carries navigation rules.
func EstimateSize(n domain.FlowNode) domain.Size {
	switch n.Kind {
	case domain.NodeStart, domain.NodeSubmit:
		return domain.Size{Width: 120, Height: 44}
	case domain.NodePage:
		w := math.Max(220, textWidth(n.DisplayName())+48)
		return domain.Size{Width: math.Min(w, maxNodeWidth), Height: 52}
	}

	w := math.Max(minBlockWidth, textWidth(n.DisplayName())+40)
	h := 60.0
	if opts := len(n.Data.Options); opts > 0 {
		h += float64(min(opts, maxOptions)) * optionHeight
		for _, o := range n.Data.Options {
			w = math.Max(w, textWidth(o)+56)
		}
	}
	if n.Data.HasRules {
		h += rulesBadge
	}
	return domain.Size{Width: math.Min(w, maxNodeWidth), Height: h}
}

func textWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * charWidth
}
