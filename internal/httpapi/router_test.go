package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/httpapi/handlers"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/httpapi/middleware"
)

// stubAgent keeps sessions in memory and replies with an echo.
type stubAgent struct {
	mu        sync.Mutex
	sessions  map[string][]model.ChatMessage
	invokeErr error
	outcome   model.Outcome
	panics    bool
}

func newStubAgent() *stubAgent {
	return &stubAgent{sessions: map[string][]model.ChatMessage{}, outcome: model.OutcomeAnswered}
}

func (s *stubAgent) Invoke(_ context.Context, in model.TurnInput) (model.TurnReply, error) {
	if s.panics {
		panic("boom")
	}
	if s.invokeErr != nil {
		return model.TurnReply{}, s.invokeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	content := "echo: " + in.Message
	if s.outcome == model.OutcomeFailed {
		content = nodes.FailureReply
	}
	s.sessions[in.Username] = append(s.sessions[in.Username],
		model.UserMessage(in.Message), model.AssistantMessage(content))
	return model.TurnReply{Content: content, Outcome: s.outcome}, nil
}

func (s *stubAgent) History(_ context.Context, username string) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatMessage(nil), s.sessions[username]...), nil
}

func (s *stubAgent) EndSession(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, username)
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func postForm(t *testing.T, r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestIndexAndPing(t *testing.T) {
	r := NewRouter(newStubAgent())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, handlers.Banner, w.Body.String())
	require.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pong", decode(t, w)["message"])
}

func TestChat_FormAndJSON(t *testing.T) {
	r := NewRouter(newStubAgent())

	w := postForm(t, r, "/chat", url.Values{"username": {"alice"}, "message": {"hi"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "echo: hi", decode(t, w)["response"])

	w = postJSON(t, r, "/chat", map[string]string{"username": "alice", "message": "again"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "echo: again", decode(t, w)["response"])
}

func TestChat_MissingFields(t *testing.T) {
	r := NewRouter(newStubAgent())

	for _, form := range []url.Values{
		{"message": {"hi"}},
		{"username": {"alice"}},
		{"username": {"  "}, "message": {"hi"}},
	} {
		w := postForm(t, r, "/chat", form)
		require.Equal(t, http.StatusBadRequest, w.Code, form.Encode())
		require.NotEmpty(t, decode(t, w)["error"])
	}
}

func TestChat_FailedTurnIs500WithGenericReply(t *testing.T) {
	agent := newStubAgent()
	agent.outcome = model.OutcomeFailed
	r := NewRouter(agent)

	w := postForm(t, r, "/chat", url.Values{"username": {"alice"}, "message": {"hi"}})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, nodes.FailureReply, decode(t, w)["response"])
}

func TestChat_InternalErrorIsNotLeaked(t *testing.T) {
	agent := newStubAgent()
	agent.invokeErr = errx.WrapStore(errors.New("disk on fire at /var/lib/x"))
	r := NewRouter(agent)

	w := postForm(t, r, "/chat", url.Values{"username": {"alice"}, "message": {"hi"}})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "disk on fire")
	require.Equal(t, nodes.FailureReply, decode(t, w)["response"])
}

func TestChat_InvalidFromAgentIs400(t *testing.T) {
	agent := newStubAgent()
	agent.invokeErr = errx.Invalid("message is required")
	r := NewRouter(agent)

	w := postForm(t, r, "/chat", url.Values{"username": {"alice"}, "message": {"hi"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "message is required", decode(t, w)["error"])
}

func TestChat_PanicIsRecovered(t *testing.T) {
	agent := newStubAgent()
	agent.panics = true
	r := NewRouter(agent)

	w := postForm(t, r, "/chat", url.Values{"username": {"alice"}, "message": {"hi"}})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "boom")
}

func TestHistoryAndEndSession(t *testing.T) {
	r := NewRouter(newStubAgent())

	w := postForm(t, r, "/get_chat_history", url.Values{"username": {"nobody"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"chat_history": []}`, w.Body.String())

	postForm(t, r, "/chat", url.Values{"username": {"bob"}, "message": {"one"}})
	postForm(t, r, "/chat", url.Values{"username": {"bob"}, "message": {"two"}})

	first := postForm(t, r, "/get_chat_history", url.Values{"username": {"bob"}})
	second := postForm(t, r, "/get_chat_history", url.Values{"username": {"bob"}})
	require.Equal(t, first.Body.String(), second.Body.String())

	var body struct {
		ChatHistory []model.ChatMessage `json:"chat_history"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &body))
	require.Len(t, body.ChatHistory, 4)
	require.Equal(t, model.RoleUser, body.ChatHistory[0].Role)
	require.Equal(t, "one", body.ChatHistory[0].Content)
	require.Equal(t, "echo: two", body.ChatHistory[3].Content)

	w = postJSON(t, r, "/end_session", map[string]string{"username": "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Session ended and chat history for bob is cleared.", decode(t, w)["message"])

	w = postForm(t, r, "/get_chat_history", url.Values{"username": {"bob"}})
	require.JSONEq(t, `{"chat_history": []}`, w.Body.String())
}

func TestEndSession_RequiresUsername(t *testing.T) {
	r := NewRouter(newStubAgent())
	w := postForm(t, r, "/end_session", url.Values{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	r := NewRouter(newStubAgent())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := NewRouter(newStubAgent())
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
}
