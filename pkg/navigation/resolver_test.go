package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/navigation"
)

func ageSurvey(t *testing.T) *domain.Survey {
	t.Helper()
	s := domain.NewSurvey("root")
	for _, p := range []struct{ id, name string }{{"p1", "intro"}, {"minor-page", "minor"}, {"adult-page", "adult"}} {
		_, err := s.AddPage(p.id, p.name)
		require.NoError(t, err)
	}
	_, err := s.AddBlock("p1", domain.Block{
		UUID: "age", Type: "number", FieldName: "age",
		NavigationRules: []domain.NavigationRule{
			{Condition: domain.Expr("age < 18"), Target: "minor-page", IsPage: true},
			{Target: "adult-page", IsPage: true, IsDefault: true},
		},
	})
	require.NoError(t, err)
	_, err = s.AddBlock("p1", domain.Block{UUID: "name", Type: "text", FieldName: "name"})
	require.NoError(t, err)
	_, err = s.AddBlock("minor-page", domain.Block{UUID: "guardian", Type: "text", FieldName: "guardian"})
	require.NoError(t, err)
	_, err = s.AddBlock("adult-page", domain.Block{UUID: "job", Type: "text", FieldName: "job"})
	require.NoError(t, err)
	return s
}

func TestResolve_AgeBranching(t *testing.T) {
	s := ageSurvey(t)
	b, _ := s.Block("age")

	minor := navigation.Resolve(b.NavigationRules, domain.Answers{"age": 16})
	require.NotNil(t, minor)
	assert.Equal(t, domain.Destination{Kind: domain.DestinationPage, Target: "minor-page"}, *minor)

	adult := navigation.Resolve(b.NavigationRules, domain.Answers{"age": 30})
	require.NotNil(t, adult)
	assert.Equal(t, domain.Destination{Kind: domain.DestinationPage, Target: "adult-page"}, *adult)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	rules := []domain.NavigationRule{
		{Condition: domain.Rule("score", ">", 5), Target: "high"},
		{Condition: domain.Rule("score", ">", 1), Target: "mid"},
		{Target: "submit", IsDefault: true},
		{Target: "other", IsDefault: true},
	}

	assert.Equal(t, "high", navigation.Resolve(rules, domain.Answers{"score": 9}).Target)
	assert.Equal(t, "mid", navigation.Resolve(rules, domain.Answers{"score": 3}).Target)
	assert.Equal(t, domain.DestinationSubmit, navigation.Resolve(rules, domain.Answers{"score": 0}).Kind, "first default wins")

	reordered := []domain.NavigationRule{rules[1], rules[0]}
	assert.Equal(t, "mid", navigation.Resolve(reordered, domain.Answers{"score": 9}).Target, "author order decides")
}

func TestResolve_NoMatch(t *testing.T) {
	rules := []domain.NavigationRule{{Condition: domain.Expr("x == 1"), Target: "b"}}
	assert.Nil(t, navigation.Resolve(rules, domain.Answers{"x": 2}))
	assert.Nil(t, navigation.Resolve(nil, domain.Answers{}))
}

func TestResolve_Deterministic(t *testing.T) {
	s := ageSurvey(t)
	b, _ := s.Block("age")
	answers := domain.Answers{"age": 12}
	first := navigation.Resolve(b.NavigationRules, answers)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, navigation.Resolve(b.NavigationRules, answers))
	}
}

func TestNextSequential(t *testing.T) {
	s := ageSurvey(t)

	dest, err := navigation.NextSequential(s, "age", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Destination{Kind: domain.DestinationBlock, Target: "name"}, dest)

	dest, err = navigation.NextSequential(s, "name", nil)
	require.NoError(t, err)
	assert.Equal(t, "guardian", dest.Target, "crosses into the next page")

	dest, err = navigation.NextSequential(s, "job", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DestinationSubmit, dest.Kind)

	_, err = navigation.NextSequential(s, "ghost", nil)
	assert.ErrorIs(t, err, domain.ErrBlockNotFound)
}

func TestNextSequential_SkipsHidden(t *testing.T) {
	s := ageSurvey(t)
	hidden := func(b *domain.Block) bool { return b.UUID != "name" && b.UUID != "guardian" }

	dest, err := navigation.NextSequential(s, "age", hidden)
	require.NoError(t, err)
	assert.Equal(t, "job", dest.Target)
}

func TestAdvance(t *testing.T) {
	s := ageSurvey(t)
	r := navigation.NewResolver()

	dest, byRule, err := r.Advance(s, "age", domain.Answers{"age": 16})
	require.NoError(t, err)
	assert.True(t, byRule)
	assert.Equal(t, "minor-page", dest.Target)

	dest, byRule, err = r.Advance(s, "name", domain.Answers{})
	require.NoError(t, err)
	assert.False(t, byRule)
	assert.Equal(t, "guardian", dest.Target)
}

func TestAdvance_UnresolvedTargetFallsBack(t *testing.T) {
	s := domain.NewSurvey("root")
	_, err := s.AddPage("p1", "")
	require.NoError(t, err)
	_, err = s.AddBlock("p1", domain.Block{
		UUID: "q1", Type: "text", FieldName: "q1",
		NavigationRules: []domain.NavigationRule{
			{Condition: domain.Expr("q1 == 'x'"), Target: "ghost-page", IsPage: true},
			{Target: "ghost", IsDefault: true},
		},
	})
	require.NoError(t, err)
	_, err = s.AddBlock("p1", domain.Block{UUID: "q2", Type: "text", FieldName: "q2"})
	require.NoError(t, err)

	r := navigation.NewResolver()
	for _, answers := range []domain.Answers{{"q1": "x"}, {"q1": "y"}} {
		dest, byRule, err := r.Advance(s, "q1", answers)
		require.NoError(t, err)
		assert.False(t, byRule)
		assert.Equal(t, domain.Destination{Kind: domain.DestinationBlock, Target: "q2"}, dest)
	}
}

func TestVisible(t *testing.T) {
	cond := domain.Rule("age", "<", 18)
	b := &domain.Block{UUID: "g", VisibleIf: &cond}
	r := navigation.NewResolver()

	assert.True(t, r.Visible(domain.Answers{"age": 10})(b))
	assert.False(t, r.Visible(domain.Answers{"age": 40})(b))
	assert.True(t, r.Visible(nil)(&domain.Block{UUID: "plain"}))
}

func TestLand(t *testing.T) {
	s := ageSurvey(t)

	id, err := navigation.Land(s, domain.Destination{Kind: domain.DestinationPage, Target: "adult"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "job", id, "page names resolve too")

	id, err = navigation.Land(s, domain.Destination{Kind: domain.DestinationBlock, Target: "guardian"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "guardian", id)

	id, err = navigation.Land(s, domain.Destination{Kind: domain.DestinationSubmit}, nil)
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = navigation.Land(s, domain.Destination{Kind: domain.DestinationPage, Target: "nowhere"}, nil)
	assert.ErrorIs(t, err, domain.ErrPageNotFound)
}
