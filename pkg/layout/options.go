package layout

import "github.com/aretw0/surveyflow/pkg/domain"

// Direction is the axis ranks advance along.
type Direction string

const (
	TopBottom Direction = "TB"
	LeftRight Direction = "LR"
)

// Options tune the layered layout.
type Options struct {
	Direction      Direction   `json:"direction" yaml:"direction" mapstructure:"direction"`
	RankSpacing    float64     `json:"rankSpacing" yaml:"rank_spacing" mapstructure:"rank_spacing"`
	NodeSpacing    float64     `json:"nodeSpacing" yaml:"node_spacing" mapstructure:"node_spacing"`
	BranchSpacing  float64     `json:"branchSpacing" yaml:"branch_spacing" mapstructure:"branch_spacing"`
	Padding        float64     `json:"padding" yaml:"padding" mapstructure:"padding"`
	MaxIterations  int         `json:"maxIterations" yaml:"max_iterations" mapstructure:"max_iterations"`
	DimensionAware bool        `json:"dimensionAware" yaml:"dimension_aware" mapstructure:"dimension_aware"`
	DefaultSize    domain.Size `json:"defaultSize" yaml:"-" mapstructure:"-"`
}

// DefaultOptions returns the settings used when a caller passes the zero Options.
func DefaultOptions() Options {
	return Options{
		Direction:      TopBottom,
		RankSpacing:    80,
		NodeSpacing:    40,
		BranchSpacing:  60,
		Padding:        10,
		MaxIterations:  200,
		DimensionAware: true,
		DefaultSize:    domain.Size{Width: 180, Height: 60},
	}
}

// normalized fills unset fields from DefaultOptions.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o == (Options{}) {
		return d
	}
	if o.Direction != LeftRight {
		o.Direction = TopBottom
	}
	if o.RankSpacing <= 0 {
		o.RankSpacing = d.RankSpacing
	}
	if o.NodeSpacing <= 0 {
		o.NodeSpacing = d.NodeSpacing
	}
	if o.BranchSpacing < 0 {
		o.BranchSpacing = 0
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.DefaultSize.Width <= 0 || o.DefaultSize.Height <= 0 {
		o.DefaultSize = d.DefaultSize
	}
	return o
}
