package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/relay"
	relayhttp "github.com/aretw0/relay/pkg/adapters/http"
	"github.com/aretw0/relay/pkg/chain"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEngine builds a supervisor that routes to billing when the input
// mentions an invoice, and answers directly otherwise.
func newEngine(t *testing.T) *relay.Engine {
	t.Helper()
	supervisor := ports.AgentFunc(func(_ context.Context, call domain.AgentCall) (domain.ExecutionRecord, error) {
		switch {
		case strings.Contains(call.Input, "invoice"):
			return domain.ExecutionRecord{Output: chain.FormatRoute("billing") + " check the invoice"}, nil
		case strings.Contains(call.Input, "ghost"):
			return domain.ExecutionRecord{Output: chain.FormatRoute("ghost")}, nil
		case strings.Contains(call.Input, "boom"):
			return domain.ExecutionRecord{}, errors.New("model unavailable")
		}
		return domain.ExecutionRecord{Output: "How can I help?"}, nil
	})
	billing := ports.AgentFunc(func(_ context.Context, call domain.AgentCall) (domain.ExecutionRecord, error) {
		return domain.ExecutionRecord{Output: "Invoice paid. (" + call.Input + ")"}, nil
	})

	eng, err := relay.New(
		&chain.Descriptor{ID: "supervisor", Agent: supervisor},
		[]*chain.Descriptor{{ID: "billing", Description: "Answers invoice questions", Agent: billing}},
	)
	require.NoError(t, err)
	return eng
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPredict(t *testing.T) {
	h := relayhttp.NewHandler(newEngine(t))

	w := post(t, h, "/v1/prediction", `{"question":"where is my invoice?","sessionId":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp relayhttp.PredictionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Invoice paid. (where is my invoice?)", resp.Text)
	assert.Equal(t, "s1", resp.SessionID)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, []domain.UsedAgent{{NodeID: "billing", NodeFunction: "Answers invoice questions"}}, resp.UsedAgents)
}

func TestPredict_DirectAnswerOmitsUsedAgents(t *testing.T) {
	h := relayhttp.NewHandler(newEngine(t))

	w := post(t, h, "/v1/prediction", `{"question":"hello","chatId":"c1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "usedAgents")
	assert.Contains(t, w.Body.String(), `"sessionId":"c1"`)
}

func TestPredict_Errors(t *testing.T) {
	h := relayhttp.NewHandler(newEngine(t), relayhttp.WithMaxInputSize(64))

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"empty question", `{"question":"  "}`, http.StatusBadRequest},
		{"oversized question", `{"question":"` + strings.Repeat("x", 65) + `"}`, http.StatusBadRequest},
		{"unknown agent", `{"question":"ghost"}`, http.StatusBadGateway},
		{"agent failure", `{"question":"boom"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, "/v1/prediction", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestVoiceCompletions(t *testing.T) {
	eng := newEngine(t)
	clock := func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }
	h := relayhttp.NewHandler(eng, relayhttp.WithClock(clock))

	body := `{
		"messages": [
			{"role": "system", "content": "be brief"},
			{"role": "user", "content": "old question"},
			{"role": "assistant", "content": "old answer"},
			{"role": "user", "content": "is my invoice paid?"}
		],
		"metadata": {"sessionId": "call-1"},
		"customer": {"number": "+5511999990000"}
	}`
	w := post(t, h, "/v1/voice/chat/completions", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	frames := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	require.Len(t, frames, 3)
	assert.Equal(t, "data: [DONE]", frames[2])

	var first, stop map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "data: ")), &first))
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frames[1], "data: ")), &stop))

	assert.Equal(t, "chat.completion.chunk", first["object"])
	delta := first["choices"].([]any)[0].(map[string]any)["delta"].(map[string]any)
	assert.Equal(t, "assistant", delta["role"])
	assert.Contains(t, delta["content"], "Invoice paid.")
	assert.Contains(t, delta["content"], "today: '07/03/2024'")
	assert.Contains(t, delta["content"], "currentPhoneNumber: '+5511999990000'")
	assert.Contains(t, delta["content"], "userMessage: 'is my invoice paid?'")
	assert.Empty(t, stop["choices"].([]any)[0].(map[string]any)["delta"])

	history, err := eng.Sessions().History(context.Background(), "call-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestVoiceCompletions_UnknownPhone(t *testing.T) {
	h := relayhttp.NewHandler(newEngine(t))

	w := post(t, h, "/v1/voice/chat/completions", `{"messages":[{"role":"user","content":"invoice"}],"metadata":{"sessionId":"x"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "NOT AVAILABLE")
}

func TestVoiceCompletions_NoUserMessage(t *testing.T) {
	h := relayhttp.NewHandler(newEngine(t))

	w := post(t, h, "/v1/voice/chat/completions", `{"messages":[{"role":"system","content":"hi"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGraph(t *testing.T) {
	h := relayhttp.NewHandler(newEngine(t))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/graph", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var topo graph.Topology
	require.NoError(t, json.NewDecoder(w.Body).Decode(&topo))
	assert.Equal(t, "supervisor", topo.Entry)
	assert.ElementsMatch(t, []string{"billing", "supervisor"}, topo.Nodes)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/graph?format=mermaid", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "graph TD")
	assert.Contains(t, w.Body.String(), "supervisor -.-> billing")
}

func TestHealthInfoAndCORS(t *testing.T) {
	h := relayhttp.NewHandler(newEngine(t))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))
	assert.Contains(t, w.Body.String(), strings.TrimSpace(relay.Version))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/v1/prediction", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsHandler(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("relay_runs_total 1\n"))
	})

	w := httptest.NewRecorder()
	relayhttp.NewHandler(newEngine(t), relayhttp.WithMetricsHandler(metrics)).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "relay_runs_total")

	w = httptest.NewRecorder()
	relayhttp.NewHandler(newEngine(t)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
