package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/aretw0/surveyflow/pkg/adapters/http"
	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/dsl"
	"github.com/aretw0/surveyflow/pkg/observability"
	"github.com/aretw0/surveyflow/pkg/session"
)

const smallDocument = `{"uuid":"doc","type":"section","nodes":[
	{"uuid":"p1","type":"set","items":[
		{"uuid":"a","type":"text","fieldName":"a","navigationRules":[{"condition":"a == 'x'","target":"c"}]},
		{"uuid":"b","type":"text","fieldName":"b"},
		{"uuid":"c","type":"text","fieldName":"c","navigationRules":[{"condition":"a == 'y'","target":"a"}]}
	]}
]}`

func jobsSurvey() *domain.Survey {
	b := dsl.New("jobs")
	b.Page("p1").Name("Profile").
		Question("age", "integer", "age").Branch("age >= 65", "retired").
		Question("job", "text", "job")
	b.Page("p2").Name("Retirement").
		Question("retired", "boolean", "retired")
	return b.MustBuild()
}

func newServer(t *testing.T, opts ...api.Option) (*api.Server, http.Handler) {
	t.Helper()
	srv := api.NewServer(memory.NewLoader(jobsSurvey()), session.NewManager(memory.NewStore()), opts...)
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	info := decodeBody[map[string]string](t, w)
	assert.Equal(t, "surveyflow-http", info["app"])
	assert.NotEmpty(t, info["version"])
}

func TestEvaluateCondition(t *testing.T) {
	_, h := newServer(t)

	cases := []struct {
		body string
		want bool
	}{
		{`{"condition":"age > 18","answers":{"age":20}}`, true},
		{`{"condition":{"field":"age","operator":"<","value":18},"answers":{"age":20}}`, false},
		{`{"condition":"age >","answers":{"age":20}}`, false},
		{`{"condition":null,"answers":{}}`, true},
	}
	for _, tc := range cases {
		w := do(t, h, http.MethodPost, "/conditions/evaluate", tc.body)
		require.Equal(t, http.StatusOK, w.Code, tc.body)
		assert.Equal(t, tc.want, decodeBody[map[string]bool](t, w)["result"], tc.body)
	}

	w := do(t, h, http.MethodPost, "/conditions/evaluate", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateCondition(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodPost, "/conditions/validate", `{"expression":"a == 1 && b"}`)
	assert.Equal(t, true, decodeBody[map[string]any](t, w)["valid"])

	w = do(t, h, http.MethodPost, "/conditions/validate", `{"expression":"a == (1"}`)
	resp := decodeBody[map[string]any](t, w)
	assert.Equal(t, false, resp["valid"])
	assert.NotEmpty(t, resp["error"])
}

func TestResolveNavigation(t *testing.T) {
	_, h := newServer(t)
	rules := `[{"condition":"age > 18","target":"adult"},{"target":"submit","isDefault":true}]`

	w := do(t, h, http.MethodPost, "/navigation/resolve", `{"rules":`+rules+`,"answers":{"age":30}}`)
	resp := decodeBody[api.ResolveResponse](t, w)
	require.NotNil(t, resp.Destination)
	assert.Equal(t, domain.Destination{Kind: domain.DestinationBlock, Target: "adult"}, *resp.Destination)
	assert.Equal(t, 0, resp.RuleIndex)

	w = do(t, h, http.MethodPost, "/navigation/resolve", `{"rules":`+rules+`,"answers":{"age":10}}`)
	resp = decodeBody[api.ResolveResponse](t, w)
	require.NotNil(t, resp.Destination)
	assert.Equal(t, domain.DestinationSubmit, resp.Destination.Kind)

	w = do(t, h, http.MethodPost, "/navigation/resolve", `{"rules":[],"answers":{}}`)
	assert.JSONEq(t, `{"destination":null,"ruleIndex":-1}`, w.Body.String())
}

func TestTransformRoundTrip(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodPost, "/transform/graph?layout=true", smallDocument)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	g := decodeBody[domain.FlowGraph](t, w)
	require.NotNil(t, g.Edge("e-rule-a-0"))
	assert.Equal(t, "c", g.Edge("e-rule-a-0").Target)

	raw, _ := json.Marshal(g)
	w = do(t, h, http.MethodPost, "/transform/tree", string(raw))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decodeBody[domain.Document](t, w)
	assert.Equal(t, "doc", doc.UUID)

	w = do(t, h, http.MethodPost, "/transform/graph?format=mermaid", smallDocument)
	assert.Contains(t, w.Body.String(), `a -- "a == 'x'" --> c`)

	w = do(t, h, http.MethodPost, "/transform/graph", `{"uuid":"x","type":"page"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decodeBody[map[string]any](t, w)["reasons"])
}

func TestGraphTools(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodPost, "/transform/graph", smallDocument)
	graph := w.Body.String()

	w = do(t, h, http.MethodPost, "/graph/cycles", graph)
	cycles := decodeBody[api.CyclesResponse](t, w)
	assert.Equal(t, []string{"a → c → a"}, cycles.Cycles)

	w = do(t, h, http.MethodPost, "/graph/layout", `{"graph":`+graph+`}`)
	laid := decodeBody[domain.FlowGraph](t, w)
	assert.NotZero(t, laid.Node("submit").Position.Y)

	w = do(t, h, http.MethodPost, "/graph/check", `{"document":`+smallDocument+`}`)
	issues := decodeBody[map[string][]map[string]any](t, w)["issues"]
	require.Len(t, issues, 1)
	assert.Equal(t, "cycle", issues[0]["code"])

	w = do(t, h, http.MethodPost, "/graph/retarget", `{"document":`+smallDocument+`,"edgeId":"e-rule-a-0","target":"b"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edit := decodeBody[api.EditResponse](t, w)
	assert.Equal(t, "b", edit.Graph.Edge("e-rule-a-0").Target)

	w = do(t, h, http.MethodPost, "/graph/retarget", `{"document":`+smallDocument+`,"edgeId":"nope","target":"b"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/graph/export?format=dot", graph)
	assert.Contains(t, w.Body.String(), "digraph survey")

	w = do(t, h, http.MethodPost, "/graph/export?format=svg", graph)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSurveyRoutes(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodGet, "/surveys", "")
	assert.JSONEq(t, `{"surveys":["jobs"]}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/surveys/jobs", "")
	assert.Equal(t, "jobs", decodeBody[domain.Document](t, w).UUID)

	w = do(t, h, http.MethodGet, "/surveys/jobs/graph?format=mermaid&dir=LR", "")
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph LR"))

	w = do(t, h, http.MethodGet, "/surveys/jobs/cycles", "")
	assert.JSONEq(t, `{"cycles":[],"ids":[]}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/surveys/jobs/check", "")
	assert.JSONEq(t, `{"issues":[]}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/surveys/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditorRoutes(t *testing.T) {
	_, h := newServer(t, api.WithHistoryCapacity(5))

	w := do(t, h, http.MethodGet, "/surveys/jobs/editor", "")
	st := decodeBody[api.EditorResponse](t, w)
	assert.False(t, st.CanUndo)
	assert.Equal(t, "retired", st.Graph.Edge("e-rule-age-0").Target)

	w = do(t, h, http.MethodPost, "/surveys/jobs/editor/retarget", `{"edgeId":"e-rule-age-0","target":"job"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st = decodeBody[api.EditorResponse](t, w)
	assert.Equal(t, "job", st.Graph.Edge("e-rule-age-0").Target)
	assert.True(t, st.CanUndo)

	w = do(t, h, http.MethodPost, "/surveys/jobs/editor/undo", "")
	st = decodeBody[api.EditorResponse](t, w)
	assert.Equal(t, "retired", st.Graph.Edge("e-rule-age-0").Target)

	w = do(t, h, http.MethodPost, "/surveys/jobs/editor/connect", `{"source":"retired","target":"age","condition":"retired == false"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st = decodeBody[api.EditorResponse](t, w)
	assert.False(t, st.CanRedo)
	assert.Equal(t, []string{"open", "connect retired -> age"}, st.Labels)

	w = do(t, h, http.MethodPost, "/surveys/jobs/editor/remove", `{"edgeId":"e-seq-age-job"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/surveys/jobs/editor/redo", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionFlow(t *testing.T) {
	srv, h := newServer(t)

	w := do(t, h, http.MethodPost, "/surveys/jobs/sessions", `{"sessionId":"s1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody[api.SessionResponse](t, w)
	assert.Equal(t, "age", resp.State.CurrentBlockID)
	require.NotNil(t, resp.Block)
	assert.Equal(t, "integer", resp.Block.Type)

	updates, cancel := srv.Streams.Subscribe("s1")
	defer cancel()

	w = do(t, h, http.MethodPost, "/sessions/s1/answer", `{"raw":"abc"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodPost, "/sessions/s1/answer", `{"raw":"70","navigate":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decodeBody[api.SessionResponse](t, w)
	assert.Equal(t, "retired", resp.State.CurrentBlockID)
	assert.Equal(t, "p2", resp.State.CurrentPageID)

	select {
	case msg := <-updates:
		assert.Contains(t, msg, `"current_block_id":"retired"`)
		assert.Contains(t, msg, `"age":70`)
	case <-time.After(time.Second):
		t.Fatal("no diff broadcast")
	}

	w = do(t, h, http.MethodPost, "/sessions/s1/back", "")
	assert.Equal(t, "age", decodeBody[api.SessionResponse](t, w).State.CurrentBlockID)

	w = do(t, h, http.MethodPost, "/sessions/s1/back", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/sessions/s1/answer", `{"value":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, h, http.MethodPost, "/sessions/s1/navigate", "")
	assert.Equal(t, "job", decodeBody[api.SessionResponse](t, w).State.CurrentBlockID)

	w = do(t, h, http.MethodPost, "/sessions/s1/submit-page", "")
	assert.Equal(t, "retired", decodeBody[api.SessionResponse](t, w).State.CurrentBlockID)

	w = do(t, h, http.MethodPost, "/sessions/s1/navigate", "")
	resp = decodeBody[api.SessionResponse](t, w)
	assert.Equal(t, domain.StatusSubmitted, resp.State.Status)
	assert.Nil(t, resp.Block)

	w = do(t, h, http.MethodGet, "/sessions/s1/graph?format=mermaid", "")
	assert.Contains(t, w.Body.String(), "class submit current;")
	assert.Contains(t, w.Body.String(), "class age visited;")

	w = do(t, h, http.MethodGet, "/sessions", "")
	assert.JSONEq(t, `{"sessions":["s1"]}`, w.Body.String())

	w = do(t, h, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartSession_GeneratesID(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodPost, "/surveys/jobs/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody[api.SessionResponse](t, w)
	assert.NotEmpty(t, resp.State.SessionID)
	assert.Equal(t, "jobs", resp.State.SurveyID)
}

func TestSubscribeEvents(t *testing.T) {
	_, h := newServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	do(t, h, http.MethodPost, "/surveys/jobs/sessions", `{"sessionId":"s2"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/s2/events?watch=position", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(res.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	next := func() string {
		for {
			select {
			case l, ok := <-lines:
				if !ok {
					return ""
				}
				if strings.HasPrefix(l, "data: ") {
					return strings.TrimPrefix(l, "data: ")
				}
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for event")
			}
		}
	}
	assert.Equal(t, "connected", next())

	post := func(path, body string) {
		res, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		res.Body.Close()
	}
	// An answer alone does not move the session and is filtered out.
	post("/sessions/s2/answer", `{"value":20}`)
	post("/sessions/s2/navigate", "")

	msg := next()
	assert.Contains(t, msg, `"current_block_id":"job"`)
	assert.NotContains(t, msg, `"answers"`)
}

func TestMetricsAndCORS(t *testing.T) {
	m := observability.NewMetrics()
	_, h := newServer(t, api.WithMetrics(m), api.WithCORSOrigins("https://editor.example"))

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://editor.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://editor.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	do(t, h, http.MethodGet, "/surveys/jobs/graph", "")

	w = do(t, h, http.MethodGet, "/metrics", "")
	body := w.Body.String()
	assert.Contains(t, body, `surveyflow_http_requests_total{code="200",method="GET",route="/health"} 1`)
	assert.Contains(t, body, `route="/surveys/{surveyID}/graph"`)
	assert.Contains(t, body, "surveyflow_layout_seconds_count 1")
}
