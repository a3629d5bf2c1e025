package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition_JSONShapes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantStr string
		isExpr  bool
	}{
		{"expression", `"age < 18"`, "age < 18", true},
		{"single rule", `{"field":"age","operator":">","value":3}`, "age > 3", false},
		{"rule list", `[{"field":"a","operator":"isEmpty"},{"field":"b","operator":"==","value":"x"}]`, `a isEmpty && b == "x"`, false},
		{"bare boolean", `true`, "true", true},
		{"null", `null`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Condition
			require.NoError(t, json.Unmarshal([]byte(tt.input), &c))
			assert.Equal(t, tt.wantStr, c.String())
			assert.Equal(t, tt.isExpr, c.IsExpression())
		})
	}
}

func TestCondition_MarshalKeepsShape(t *testing.T) {
	for _, input := range []string{
		`"age < 18"`,
		`{"field":"age","operator":">","value":3}`,
		`[{"field":"a","operator":"isEmpty"}]`,
	} {
		var c Condition
		require.NoError(t, json.Unmarshal([]byte(input), &c))
		out, err := json.Marshal(c)
		require.NoError(t, err)
		assert.JSONEq(t, input, string(out))
	}
}

func TestCondition_RejectsNumbers(t *testing.T) {
	var c Condition
	assert.Error(t, json.Unmarshal([]byte(`42`), &c))
}

func TestCondition_CloneIsDeep(t *testing.T) {
	c := Rule("color", "in", []any{"red", "blue"})
	cp := c.Clone()
	cp.Rules[0].Value.([]any)[0] = "green"
	assert.Equal(t, "red", c.Rules[0].Value.([]any)[0])
}

func TestDestinationOf(t *testing.T) {
	assert.Equal(t, Destination{Kind: DestinationSubmit}, DestinationOf(NavigationRule{Target: TargetSubmit}))
	assert.Equal(t, Destination{Kind: DestinationPage, Target: "p2"}, DestinationOf(NavigationRule{Target: "p2", IsPage: true}))
	assert.Equal(t, Destination{Kind: DestinationBlock, Target: "b2"}, DestinationOf(NavigationRule{Target: "b2"}))
}

func TestNavigationRule_Signature(t *testing.T) {
	a := NavigationRule{Condition: Expr("x == 1"), Target: "p1"}
	b := NavigationRule{Condition: Expr(" x == 1 "), Target: "p2"}
	d := NavigationRule{Condition: Expr("x == 1"), Target: "p1", IsDefault: true}
	assert.Equal(t, a.Signature(), b.Signature())
	assert.NotEqual(t, a.Signature(), d.Signature())
}
