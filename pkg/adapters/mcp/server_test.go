package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/dsl"
	"github.com/aretw0/surveyflow/pkg/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	b := dsl.New("jobs")
	b.Page("p1").
		Question("age", "integer", "age").Branch("age >= 65", "retired").
		Question("job", "text", "job")
	b.Page("p2").
		Question("retired", "boolean", "retired").Branch("retired == false", "age")
	return NewServer(memory.NewLoader(b.MustBuild()), session.NewManager(memory.NewStore()))
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestEvaluateAndResolve(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleEvaluate(ctx, call(nil), EvaluateArgs{Condition: "age >= 18", Answers: domain.Answers{"age": 20}})
	require.NoError(t, err)
	assert.True(t, res.Result)

	res, err = s.handleEvaluate(ctx, call(nil), EvaluateArgs{
		Condition: `{"field":"country","operator":"equals","value":"BR"}`,
		Answers:   domain.Answers{"country": "PT"},
	})
	require.NoError(t, err)
	assert.False(t, res.Result)

	_, err = s.handleEvaluate(ctx, call(nil), EvaluateArgs{Condition: `{"field":`})
	assert.Error(t, err)

	rules := []domain.NavigationRule{
		{Condition: domain.Expr("age < 18"), Target: "minor"},
		{Target: "adult", IsPage: true, IsDefault: true},
	}
	out, err := s.handleResolve(ctx, call(nil), ResolveArgs{Rules: rules, Answers: domain.Answers{"age": 40}})
	require.NoError(t, err)
	require.NotNil(t, out.Destination)
	assert.Equal(t, domain.Destination{Kind: domain.DestinationPage, Target: "adult"}, *out.Destination)
	assert.Equal(t, 1, out.RuleIndex)
}

func TestGraphTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleGraph(ctx, call(map[string]any{"survey_id": "jobs", "format": "mermaid"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `age -- "age >= 65" --> retired`)

	res, err = s.handleGraph(ctx, call(map[string]any{"survey_id": "jobs", "format": "dot", "direction": "LR"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "rankdir=LR")

	res, err = s.handleGraph(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleTree(ctx, call(map[string]any{"survey_id": "jobs"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"uuid": "jobs"`)

	cycles, err := s.handleCycles(ctx, call(nil), SurveyArgs{SurveyID: "jobs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"age → retired → age"}, cycles.Cycles)

	check, err := s.handleCheck(ctx, call(nil), SurveyArgs{SurveyID: "jobs"})
	require.NoError(t, err)
	require.Len(t, check.Issues, 1)
	assert.Equal(t, "cycle", string(check.Issues[0].Code))

	_, err = s.handleCycles(ctx, call(nil), SurveyArgs{SurveyID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
}

func TestEditTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	st, err := s.handleRetarget(ctx, call(nil), RetargetArgs{SurveyID: "jobs", EdgeID: "e-rule-retired-0", Target: "job"})
	require.NoError(t, err)
	assert.Equal(t, "job", st.Graph.Edge("e-rule-retired-0").Target)

	cycles, err := s.handleCycles(ctx, call(nil), SurveyArgs{SurveyID: "jobs"})
	require.NoError(t, err)
	assert.Empty(t, cycles.Cycles)

	res, err := s.handleTree(ctx, call(map[string]any{"survey_id": "jobs"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"target": "job"`)

	st, err = s.handleUndo(ctx, call(nil), SurveyArgs{SurveyID: "jobs"})
	require.NoError(t, err)
	assert.Equal(t, "age", st.Graph.Edge("e-rule-retired-0").Target)
	assert.True(t, st.CanRedo)

	_, err = s.handleUndo(ctx, call(nil), SurveyArgs{SurveyID: "jobs"})
	assert.Error(t, err)

	st, err = s.handleRedo(ctx, call(nil), SurveyArgs{SurveyID: "jobs"})
	require.NoError(t, err)
	assert.Equal(t, "job", st.Graph.Edge("e-rule-retired-0").Target)
}

func TestSessionTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleStart(ctx, call(nil), SessionArgs{SurveyID: "jobs", SessionID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "age", res.State.CurrentBlockID)

	_, err = s.handleAnswer(ctx, call(nil), SessionArgs{SessionID: "m1", Answer: "old"})
	assert.Error(t, err)

	res, err = s.handleAnswer(ctx, call(nil), SessionArgs{SessionID: "m1", Answer: "70", Navigate: true})
	require.NoError(t, err)
	assert.Equal(t, "retired", res.State.CurrentBlockID)
	assert.Equal(t, 70, res.State.Answers["age"])

	res, err = s.handleAnswer(ctx, call(nil), SessionArgs{SessionID: "m1", Answer: "yes"})
	require.NoError(t, err)
	res, err = s.handleNavigate(ctx, call(nil), SessionArgs{SessionID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, res.State.Status)
	assert.Nil(t, res.Block)

	res, err = s.handleBack(ctx, call(nil), SessionArgs{SessionID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, res.State.Status)
	assert.Equal(t, "retired", res.State.CurrentBlockID)

	res, err = s.handleSubmitPage(ctx, call(nil), SessionArgs{SessionID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, res.State.Status)

	_, err = s.handleNavigate(ctx, call(nil), SessionArgs{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	started, err := s.handleStart(ctx, call(nil), SessionArgs{SurveyID: "jobs"})
	require.NoError(t, err)
	assert.True(t, strings.Count(started.State.SessionID, "-") == 4)
}
