package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	render "github.com/aretw0/surveyflow/internal/presentation/graph"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/editor"
	"github.com/aretw0/surveyflow/pkg/flow"
	"github.com/aretw0/surveyflow/pkg/layout"
	"github.com/aretw0/surveyflow/pkg/schema"
)

// EvaluateArgs are the arguments of evaluate_condition.
type EvaluateArgs struct {
	Condition string         `json:"condition"`
	Answers   domain.Answers `json:"answers"`
}

// EvaluateResult is the output of evaluate_condition.
type EvaluateResult struct {
	Result bool `json:"result" jsonschema_description:"Whether the condition holds"`
}

// ResolveArgs are the arguments of resolve_navigation.
type ResolveArgs struct {
	Rules   []domain.NavigationRule `json:"rules"`
	Answers domain.Answers          `json:"answers"`
}

// ResolveResult is the output of resolve_navigation.
type ResolveResult struct {
	Destination *domain.Destination `json:"destination,omitempty" jsonschema_description:"Where the survey goes; absent when no rule matched"`
	RuleIndex   int                 `json:"ruleIndex" jsonschema_description:"Index of the first matching rule or -1"`
}

// SurveyArgs identify a survey.
type SurveyArgs struct {
	SurveyID string `json:"survey_id"`
}

// CyclesResult is the output of find_cycles.
type CyclesResult struct {
	Cycles []string `json:"cycles" jsonschema_description:"Conditional cycles rendered as A → B → A"`
}

// CheckResult is the output of check_survey.
type CheckResult struct {
	Issues []flow.Issue `json:"issues"`
}

// RetargetArgs are the arguments of retarget_edge.
type RetargetArgs struct {
	SurveyID string `json:"survey_id"`
	EdgeID   string `json:"edge_id"`
	Target   string `json:"target"`
}

// SessionArgs drive the session tools.
type SessionArgs struct {
	SurveyID  string `json:"survey_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Answer    string `json:"answer,omitempty"`
	Navigate  bool   `json:"navigate,omitempty"`
}

// SessionResult is the output of every session tool.
type SessionResult struct {
	State *domain.State `json:"state" jsonschema_description:"The session after the step"`
	Block *domain.Block `json:"block,omitempty" jsonschema_description:"The block to show next; absent once submitted"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("evaluate_condition",
		mcp.WithDescription("Evaluate a visibility or navigation condition against answers. Malformed conditions evaluate to false."),
		mcp.WithString("condition", mcp.Required(), mcp.Description("Expression such as \"age >= 18 && country == 'BR'\", or a JSON rule object or array")),
		mcp.WithObject("answers", mcp.Description("Answers keyed by field name")),
		mcp.WithOutputSchema[EvaluateResult](),
	), mcp.NewStructuredToolHandler(s.handleEvaluate))

	s.mcpServer.AddTool(mcp.NewTool("resolve_navigation",
		mcp.WithDescription("Resolve the destination of a block's navigation rules. The first matching rule wins."),
		mcp.WithArray("rules", mcp.Required(), mcp.Description("Navigation rules: {condition, target, isPage, isDefault}")),
		mcp.WithObject("answers", mcp.Description("Answers keyed by field name")),
		mcp.WithOutputSchema[ResolveResult](),
	), mcp.NewStructuredToolHandler(s.handleResolve))

	s.mcpServer.AddTool(mcp.NewTool("survey_graph",
		mcp.WithDescription("Get the laid out flow graph of a survey."),
		mcp.WithString("survey_id", mcp.Required(), mcp.Description("Survey id")),
		mcp.WithString("format", mcp.Description("json (default), mermaid or dot"), mcp.Enum("json", "mermaid", "dot")),
		mcp.WithString("direction", mcp.Description("Layout direction"), mcp.Enum("TB", "LR")),
	), s.handleGraph)

	s.mcpServer.AddTool(mcp.NewTool("survey_tree",
		mcp.WithDescription("Get the survey document, as edited so far."),
		mcp.WithString("survey_id", mcp.Required(), mcp.Description("Survey id")),
	), s.handleTree)

	s.mcpServer.AddTool(mcp.NewTool("find_cycles",
		mcp.WithDescription("List the cycles formed by navigation rules."),
		mcp.WithString("survey_id", mcp.Required(), mcp.Description("Survey id")),
		mcp.WithOutputSchema[CyclesResult](),
	), mcp.NewStructuredToolHandler(s.handleCycles))

	s.mcpServer.AddTool(mcp.NewTool("check_survey",
		mcp.WithDescription("Report inconsistencies between rules and graph edges, invalid conditions and cycles."),
		mcp.WithString("survey_id", mcp.Required(), mcp.Description("Survey id")),
		mcp.WithOutputSchema[CheckResult](),
	), mcp.NewStructuredToolHandler(s.handleCheck))

	s.mcpServer.AddTool(mcp.NewTool("retarget_edge",
		mcp.WithDescription("Point a conditional edge at another node, updating the owning block's rule."),
		mcp.WithString("survey_id", mcp.Required(), mcp.Description("Survey id")),
		mcp.WithString("edge_id", mcp.Required(), mcp.Description("Conditional edge id, e.g. e-rule-q1-0")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithOutputSchema[editor.State](),
	), mcp.NewStructuredToolHandler(s.handleRetarget))

	s.mcpServer.AddTool(mcp.NewTool("undo_edit",
		mcp.WithDescription("Undo the last graph edit of a survey."),
		mcp.WithString("survey_id", mcp.Required(), mcp.Description("Survey id")),
		mcp.WithOutputSchema[editor.State](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo_edit",
		mcp.WithDescription("Redo the last undone graph edit of a survey."),
		mcp.WithString("survey_id", mcp.Required(), mcp.Description("Survey id")),
		mcp.WithOutputSchema[editor.State](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start (or resume) a respondent session."),
		mcp.WithString("survey_id", mcp.Required(), mcp.Description("Survey id")),
		mcp.WithString("session_id", mcp.Description("Session id; generated when omitted")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("answer",
		mcp.WithDescription("Answer the current block. The text is parsed for the block type: numbers, yes/no, option text or 1-based index, comma separated lists."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("Answer text; empty clears the answer")),
		mcp.WithBoolean("navigate", mcp.Description("Move on after answering")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Leave the current block following its rules or the authored order."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleNavigate))

	s.mcpServer.AddTool(mcp.NewTool("submit_page",
		mcp.WithDescription("Leave the current page as a whole."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleSubmitPage))

	s.mcpServer.AddTool(mcp.NewTool("back",
		mcp.WithDescription("Return to the previously visited block."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleBack))
}

// parseCondition accepts an expression or a JSON rule object or array.
func parseCondition(raw string) (domain.Condition, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var c domain.Condition
		if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
			return domain.Condition{}, fmt.Errorf("invalid condition: %w", err)
		}
		return c, nil
	}
	return domain.Expr(trimmed), nil
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args EvaluateArgs) (EvaluateResult, error) {
	c, err := parseCondition(args.Condition)
	if err != nil {
		return EvaluateResult{}, err
	}
	return EvaluateResult{Result: s.evaluator.Evaluate(c, args.Answers)}, nil
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest, args ResolveArgs) (ResolveResult, error) {
	res := ResolveResult{RuleIndex: s.resolver.Match(args.Rules, args.Answers)}
	if res.RuleIndex >= 0 {
		d := domain.DestinationOf(args.Rules[res.RuleIndex])
		res.Destination = &d
	}
	return res, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	surveyID, err := request.RequireString("survey_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ed, err := s.editor(ctx, surveyID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load survey: %v", err)), nil
	}
	g := ed.State().Graph
	direction := request.GetString("direction", "")
	if direction != "" {
		opts := s.layout
		opts.Direction = layout.Direction(direction)
		g = layout.Layout(g, opts)
	}

	switch request.GetString("format", "json") {
	case "mermaid":
		return mcp.NewToolResultText(render.GenerateMermaid(g, direction, nil)), nil
	case "dot":
		out, err := render.GenerateDOT(g, direction)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	default:
		jsonBytes, _ := json.Marshal(g)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	}
}

func (s *Server) handleTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	surveyID, err := request.RequireString("survey_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ed, err := s.editor(ctx, surveyID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load survey: %v", err)), nil
	}
	jsonBytes, _ := json.MarshalIndent(ed.State().Survey.Document(), "", "  ")
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCycles(ctx context.Context, request mcp.CallToolRequest, args SurveyArgs) (CyclesResult, error) {
	ed, err := s.editor(ctx, args.SurveyID)
	if err != nil {
		return CyclesResult{}, err
	}
	cycles := flow.FindCycles(ed.State().Graph)
	if cycles == nil {
		cycles = []string{}
	}
	return CyclesResult{Cycles: cycles}, nil
}

func (s *Server) handleCheck(ctx context.Context, request mcp.CallToolRequest, args SurveyArgs) (CheckResult, error) {
	ed, err := s.editor(ctx, args.SurveyID)
	if err != nil {
		return CheckResult{}, err
	}
	issues := ed.Check()
	if issues == nil {
		issues = []flow.Issue{}
	}
	return CheckResult{Issues: issues}, nil
}

func (s *Server) handleRetarget(ctx context.Context, request mcp.CallToolRequest, args RetargetArgs) (editor.State, error) {
	ed, err := s.editor(ctx, args.SurveyID)
	if err != nil {
		return editor.State{}, err
	}
	return ed.Retarget(args.EdgeID, args.Target)
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args SurveyArgs) (editor.State, error) {
	ed, err := s.editor(ctx, args.SurveyID)
	if err != nil {
		return editor.State{}, err
	}
	return ed.Undo()
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest, args SurveyArgs) (editor.State, error) {
	ed, err := s.editor(ctx, args.SurveyID)
	if err != nil {
		return editor.State{}, err
	}
	return ed.Redo()
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	sv, err := s.loader.Load(ctx, args.SurveyID)
	if err != nil {
		return SessionResult{}, err
	}
	state, err := s.sessions.LoadOrStart(ctx, newSessionID(args.SessionID), s.runtimeFor(sv).Start)
	if err != nil {
		return SessionResult{}, err
	}
	return view(sv, state), nil
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	return s.step(ctx, args.SessionID, func(rt runtimeStep) (*domain.State, error) {
		block, ok := rt.survey.Block(rt.state.CurrentBlockID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, rt.state.CurrentBlockID)
		}
		value, err := schema.ParseAnswer(block, args.Answer)
		if err != nil {
			return nil, err
		}
		next, err := rt.runtime.Answer(ctx, rt.state, value)
		if err != nil || !args.Navigate {
			return next, err
		}
		return rt.runtime.Navigate(ctx, next)
	})
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	return s.step(ctx, args.SessionID, func(rt runtimeStep) (*domain.State, error) {
		return rt.runtime.Navigate(ctx, rt.state)
	})
}

func (s *Server) handleSubmitPage(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	return s.step(ctx, args.SessionID, func(rt runtimeStep) (*domain.State, error) {
		return rt.runtime.SubmitPage(ctx, rt.state)
	})
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	return s.step(ctx, args.SessionID, func(rt runtimeStep) (*domain.State, error) {
		return rt.runtime.Back(ctx, rt.state)
	})
}
