package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sednafx/memwell/internal/chat"
	"github.com/sednafx/memwell/internal/compactor"
	"github.com/sednafx/memwell/internal/provider"
	"github.com/sednafx/memwell/internal/store"
	"github.com/sednafx/memwell/internal/tokens"
	"github.com/sednafx/memwell/pkg/turn"
)

type stubProvider struct {
	reply string
	err   error
}

func (p *stubProvider) Complete(_ context.Context, _ provider.CompletionRequest) (provider.CompletionResponse, error) {
	if p.err != nil {
		return provider.CompletionResponse{}, p.err
	}
	return provider.CompletionResponse{Content: p.reply, FinishReason: provider.FinishReasonStop}, nil
}

func (p *stubProvider) ModelName() string { return "stub-model" }

type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return "the summary", nil
}

func newTestGateway(t *testing.T, p provider.Provider, cfg Config) (*Gateway, store.TurnStore) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	st := store.NewMemoryStore(0)
	estimator := tokens.NewCharEstimator(0)

	engine, err := compactor.NewEngine(st, stubSummarizer{}, estimator, compactor.Config{
		MaxMessages:       20,
		CompactThreshold:  8,
		MessagesToCompact: 4,
	}, logger)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	compacting := chat.NewService(st, engine, p, estimator, logger)
	window := chat.NewService(store.NewMemoryStore(20), nil, p, estimator, logger)

	return New(cfg, compacting, window, logger), st
}

func seedTurns(t *testing.T, st store.TurnStore, id string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if i%2 == 1 {
			if err := st.Append(id, turn.User(fmt.Sprintf("user message %d", i))); err != nil {
				t.Fatalf("Append: %v", err)
			}
			continue
		}
		if err := st.Append(id, turn.Assistant(fmt.Sprintf("assistant message %d", i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func doRequest(t *testing.T, h http.Handler, method, target string, headers map[string]string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return rec.Code, string(body)
}

func TestGateway_Memory(t *testing.T) {
	t.Parallel()

	g, st := newTestGateway(t, &stubProvider{reply: "hello there"}, Config{})
	h := g.Handler()

	code, body := doRequest(t, h, http.MethodGet, "/memory?message=hi", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body != "hello there" {
		t.Errorf("body = %q", body)
	}

	turns, err := st.All(chat.DefaultConversationID)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(turns) != 2 {
		t.Errorf("stored turns = %d, want 2", len(turns))
	}
}

func TestGateway_MemoryMissingMessage(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, &stubProvider{reply: "x"}, Config{})

	code, _ := doRequest(t, g.Handler(), http.MethodGet, "/memory", nil)
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestGateway_MemoryConversationHeader(t *testing.T) {
	t.Parallel()

	g, st := newTestGateway(t, &stubProvider{reply: "x"}, Config{})
	h := g.Handler()

	code, _ := doRequest(t, h, http.MethodGet, "/memory?message=hi", map[string]string{
		"X-Conversation-Id": "alice",
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	if n, _ := st.Len("alice"); n != 2 {
		t.Errorf("alice turns = %d, want 2", n)
	}
	if n, _ := st.Len(chat.DefaultConversationID); n != 0 {
		t.Errorf("default turns = %d, want 0", n)
	}
}

func TestGateway_MemoryProviderError(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, &stubProvider{err: fmt.Errorf("boom: %w", provider.ErrProviderDown)}, Config{})

	code, _ := doRequest(t, g.Handler(), http.MethodGet, "/memory?message=hi", nil)
	if code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", code)
	}
	if snap := g.metrics.Snapshot(); snap.Errors != 1 {
		t.Errorf("errors = %d, want 1", snap.Errors)
	}
}

func TestGateway_ChatWindow(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, &stubProvider{reply: "window reply"}, Config{})

	code, body := doRequest(t, g.Handler(), http.MethodGet, "/chat?message=hi", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body != "window reply" {
		t.Errorf("body = %q", body)
	}
}

func TestGateway_ChatNotMountedWithoutWindow(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	st := store.NewMemoryStore(0)
	estimator := tokens.NewCharEstimator(0)
	engine, err := compactor.NewEngine(st, stubSummarizer{}, estimator, compactor.Config{
		MaxMessages:       20,
		CompactThreshold:  8,
		MessagesToCompact: 4,
	}, logger)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	compacting := chat.NewService(st, engine, &stubProvider{reply: "x"}, estimator, logger)
	g := New(Config{}, compacting, nil, logger)

	code, _ := doRequest(t, g.Handler(), http.MethodGet, "/chat?message=hi", nil)
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestGateway_TriggerShortfall(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, &stubProvider{reply: "x"}, Config{})

	code, body := doRequest(t, g.Handler(), http.MethodGet, "/trigger", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	want := "Not enough messages to compact. Current: 0, minimum: 4"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
	if snap := g.metrics.Snapshot(); snap.Compactions != 0 {
		t.Errorf("compactions = %d, want 0", snap.Compactions)
	}
}

func TestGateway_TriggerCompacts(t *testing.T) {
	t.Parallel()

	g, st := newTestGateway(t, &stubProvider{reply: "x"}, Config{})
	seedTurns(t, st, chat.DefaultConversationID, 8)

	code, body := doRequest(t, g.Handler(), http.MethodGet, "/trigger", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if !strings.HasPrefix(body, "Compacted 4 messages into summary.") {
		t.Errorf("body = %q", body)
	}

	turns, err := st.All(chat.DefaultConversationID)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(turns) != 5 {
		t.Errorf("turns after compaction = %d, want 5", len(turns))
	}
	if snap := g.metrics.Snapshot(); snap.Compactions != 1 {
		t.Errorf("compactions = %d, want 1", snap.Compactions)
	}
}

func TestGateway_TriggerJSON(t *testing.T) {
	t.Parallel()

	g, st := newTestGateway(t, &stubProvider{reply: "x"}, Config{})
	seedTurns(t, st, chat.DefaultConversationID, 8)

	code, body := doRequest(t, g.Handler(), http.MethodGet, "/trigger", map[string]string{
		"Accept": "application/json",
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	var res compactor.Result
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !res.Compacted {
		t.Error("Compacted = false")
	}
	if res.MessagesCompacted != 4 {
		t.Errorf("MessagesCompacted = %d, want 4", res.MessagesCompacted)
	}
	if res.MessagesBefore != 8 || res.MessagesAfter != 5 {
		t.Errorf("messages %d -> %d, want 8 -> 5", res.MessagesBefore, res.MessagesAfter)
	}
}

func TestGateway_Clear(t *testing.T) {
	t.Parallel()

	g, st := newTestGateway(t, &stubProvider{reply: "x"}, Config{})
	seedTurns(t, st, chat.DefaultConversationID, 3)

	code, body := doRequest(t, g.Handler(), http.MethodGet, "/clear", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if !strings.HasPrefix(body, "Cleared conversation 'default': removed 3 messages") {
		t.Errorf("body = %q", body)
	}

	if n, _ := st.Len(chat.DefaultConversationID); n != 0 {
		t.Errorf("turns after clear = %d, want 0", n)
	}
}

func TestGateway_AuthRequired(t *testing.T) {
	t.Parallel()

	cfg := Config{Auth: AuthConfig{BearerToken: "secret"}}
	g, _ := newTestGateway(t, &stubProvider{reply: "x"}, cfg)
	h := g.Handler()

	// Operator endpoints reject unauthenticated calls.
	for _, target := range []string{"/trigger", "/clear"} {
		code, _ := doRequest(t, h, http.MethodGet, target, nil)
		if code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", target, code)
		}

		code, _ = doRequest(t, h, http.MethodGet, target, map[string]string{
			"Authorization": "Bearer wrong",
		})
		if code != http.StatusUnauthorized {
			t.Errorf("GET %s with bad token = %d, want 401", target, code)
		}

		code, _ = doRequest(t, h, http.MethodGet, target, map[string]string{
			"Authorization": "Bearer secret",
		})
		if code != http.StatusOK {
			t.Errorf("GET %s with token = %d, want 200", target, code)
		}
	}

	// Chat surfaces stay open.
	code, _ := doRequest(t, h, http.MethodGet, "/memory?message=hi", nil)
	if code != http.StatusOK {
		t.Errorf("GET /memory = %d, want 200", code)
	}
}

func TestGateway_Health(t *testing.T) {
	t.Parallel()

	g, st := newTestGateway(t, &stubProvider{reply: "x"}, Config{})
	seedTurns(t, st, "one", 2)
	seedTurns(t, st, "two", 2)

	code, body := doRequest(t, g.Handler(), http.MethodGet, "/health", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	var resp HealthResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q", resp.Status)
	}
	if resp.Conversations != 2 {
		t.Errorf("Conversations = %d, want 2", resp.Conversations)
	}
}

func TestGateway_Status(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, &stubProvider{reply: "x"}, Config{})
	g.startedAt = time.Now().Add(-3 * time.Second)
	h := g.Handler()

	if code, _ := doRequest(t, h, http.MethodGet, "/memory?message=hi", nil); code != http.StatusOK {
		t.Fatalf("seed request failed: %d", code)
	}

	code, body := doRequest(t, h, http.MethodGet, "/status", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	var resp StatusResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Metrics.Messages != 1 || resp.Metrics.Completions != 1 {
		t.Errorf("metrics = %+v", resp.Metrics)
	}
	if len(resp.Conversations) != 1 {
		t.Errorf("Conversations = %v", resp.Conversations)
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.defaults()

	if cfg.Bind != "127.0.0.1:8080" {
		t.Errorf("Bind = %q", cfg.Bind)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 120*time.Second {
		t.Errorf("WriteTimeout = %v", cfg.WriteTimeout)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestMetrics_Snapshot(t *testing.T) {
	t.Parallel()

	m := &Metrics{}
	m.RecordMessage()
	m.RecordMessage()
	m.RecordCompletion(100 * time.Millisecond)
	m.RecordCompletion(300 * time.Millisecond)
	m.RecordError()
	m.RecordCompaction(40)
	m.RecordCompaction(-5)

	snap := m.Snapshot()
	if snap.Messages != 2 {
		t.Errorf("Messages = %d", snap.Messages)
	}
	if snap.Completions != 2 {
		t.Errorf("Completions = %d", snap.Completions)
	}
	if snap.Errors != 1 {
		t.Errorf("Errors = %d", snap.Errors)
	}
	if snap.Compactions != 2 {
		t.Errorf("Compactions = %d", snap.Compactions)
	}
	if snap.TokensSaved != 35 {
		t.Errorf("TokensSaved = %d", snap.TokensSaved)
	}
	if snap.AvgLatency != 200*time.Millisecond {
		t.Errorf("AvgLatency = %v", snap.AvgLatency)
	}
}
