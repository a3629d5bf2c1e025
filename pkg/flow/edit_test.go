package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/flow"
)

func TestRetargetEdge(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)

	g2, s2, err := flow.RetargetEdge(g, s, "e-rule-age-0", "job")
	require.NoError(t, err)

	b, _ := s2.Block("age")
	require.Len(t, b.NavigationRules, 3)
	assert.Equal(t, "job", b.NavigationRules[0].Target)
	assert.False(t, b.NavigationRules[0].IsPage)
	assert.Equal(t, "age < 18", b.NavigationRules[0].Condition.String())
	assert.Equal(t, "job", g2.Edge("e-rule-age-0").Target)

	orig, _ := s.Block("age")
	assert.Equal(t, "Minor", orig.NavigationRules[0].Target, "input survey untouched")
	assert.Equal(t, "minor", g.Edge("e-rule-age-0").Target, "input graph untouched")

	g3, s3, err := flow.RetargetEdge(g2, s2, "e-rule-age-0", "job")
	require.NoError(t, err)
	assert.Equal(t, g2, g3, "idempotent")
	assert.Equal(t, s2.String(), s3.String())
}

func TestRetargetEdge_KeepsPositions(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)
	g.Node("age").Position = domain.Position{X: 42, Y: 7}

	g2, _, err := flow.RetargetEdge(g, s, "e-rule-age-0", domain.SubmitNodeID)
	require.NoError(t, err)
	assert.Equal(t, domain.Position{X: 42, Y: 7}, g2.Node("age").Position)
}

func TestRetargetEdge_Errors(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)

	_, _, err := flow.RetargetEdge(g, s, "nope", "job")
	assert.ErrorIs(t, err, domain.ErrEdgeNotFound)

	_, _, err = flow.RetargetEdge(g, s, "e-seq-age-intro-block-1", "job")
	assert.ErrorIs(t, err, domain.ErrStructuralEdge)

	_, _, err = flow.RetargetEdge(g, s, "e-rule-age-0", "missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, _, err = flow.RetargetEdge(g, s, "e-rule-age-0", domain.StartNodeID)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestConnectEdge(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)

	g2, s2, err := flow.ConnectEdge(g, s, "job", domain.SubmitNodeID, domain.Rule("job", "==", "ops"), false)
	require.NoError(t, err)

	job, _ := s2.Block("job")
	require.Len(t, job.NavigationRules, 1)
	e := g2.Edge("e-rule-job-0")
	require.NotNil(t, e)
	assert.Equal(t, domain.SubmitNodeID, e.Target)
	assert.True(t, g2.Node("job").Data.HasRules)
	assert.True(t, g2.Edge("e-seq-job-submit").Data.Dashed)

	_, _, err = flow.ConnectEdge(g, s, "intro", "job", domain.Condition{}, true)
	assert.ErrorIs(t, err, domain.ErrInvalidRuleSource)
}

func TestConnectEdge_UpsertsSameSignature(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)

	g2, s2, err := flow.ConnectEdge(g, s, "age", "job", domain.Condition{}, true)
	require.NoError(t, err)

	b, _ := s2.Block("age")
	require.Len(t, b.NavigationRules, 3, "default replaced, not appended")
	assert.Equal(t, "job", b.NavigationRules[2].Target)
	assert.Equal(t, "job", g2.Edge("e-rule-age-2").Target)
}

func TestRemoveEdge(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)

	g2, s2, err := flow.RemoveEdge(g, s, "e-rule-guardian-0")
	require.NoError(t, err)

	b, _ := s2.Block("guardian")
	assert.Empty(t, b.NavigationRules)
	assert.Nil(t, g2.Edge("e-rule-guardian-0"))
	assert.False(t, g2.Node("guardian").Data.HasRules)

	_, _, err = flow.RemoveEdge(g, s, "e-entry-intro-age")
	assert.ErrorIs(t, err, domain.ErrStructuralEdge)
}
