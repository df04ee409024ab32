package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lazypower/verdict/internal/decision"
	"github.com/lazypower/verdict/internal/engine"
	"github.com/lazypower/verdict/internal/store"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(engine.New(db, engine.Options{}), db, "test-version", nil), db
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := do(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
	if _, ok := body["stats"]; !ok {
		t.Error("missing stats")
	}
}

func TestProcessAndSearch(t *testing.T) {
	srv, _ := testServer(t)

	w := do(t, srv, "POST", "/api/decisions/process",
		`{"text":"We should use PostgreSQL for storage.","session_id":"s1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("process status = %d; body: %s", w.Code, w.Body.String())
	}
	var proc struct {
		Keys []string `json:"keys"`
	}
	decode(t, w, &proc)
	if len(proc.Keys) != 1 {
		t.Fatalf("keys = %v, want 1", proc.Keys)
	}

	w = do(t, srv, "GET", "/api/decisions/search?q=postgresql&limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d; body: %s", w.Code, w.Body.String())
	}
	var resp engine.SearchResponse
	decode(t, w, &resp)
	if len(resp.Decisions) != 1 || resp.Decisions[0].Key != proc.Keys[0] {
		t.Fatalf("decisions = %+v", resp.Decisions)
	}
	if resp.Decisions[0].FinalScore != 1.6 {
		t.Errorf("final_score = %v, want 1.6", resp.Decisions[0].FinalScore)
	}
	if len(resp.PackedContent) != 2 || resp.PackedContent[0].Kind != engine.KindHeader {
		t.Errorf("packed_content = %+v", resp.PackedContent)
	}
}

func TestProcessEmptyText(t *testing.T) {
	srv, _ := testServer(t)

	w := do(t, srv, "POST", "/api/decisions/process", `{"text":""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"keys":[]}` {
		t.Errorf("body = %s", got)
	}
}

func TestProcessInvalidJSON(t *testing.T) {
	srv, _ := testServer(t)

	w := do(t, srv, "POST", "/api/decisions/process", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestProcessStoreClosed(t *testing.T) {
	srv, db := testServer(t)
	db.Close()

	w := do(t, srv, "POST", "/api/decisions/process", `{"text":"We should use PostgreSQL for storage."}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["error"] != "decision not recorded" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestSearchValidation(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{
		"/api/decisions/search",
		"/api/decisions/search?q=go&limit=0",
		"/api/decisions/search?q=go&limit=abc",
		"/api/decisions/search?q=go&include_superseded=maybe",
	} {
		if w := do(t, srv, "GET", path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", path, w.Code, http.StatusBadRequest)
		}
	}
}

func TestSearchStoreClosed(t *testing.T) {
	srv, db := testServer(t)
	db.Close()

	w := do(t, srv, "GET", "/api/decisions/search?q=go", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "search unavailable" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestGetDecisionAndHistory(t *testing.T) {
	srv, _ := testServer(t)

	do(t, srv, "POST", "/api/decisions/process", `{"text":"We should use PostgreSQL for storage.","session_id":"s1"}`)
	do(t, srv, "POST", "/api/decisions/process",
		`{"text":"Decision: don't use PostgreSQL, use MongoDB instead. Recommend this.","session_id":"s1"}`)

	oldKey := decision.DeriveKey("use PostgreSQL for storage", "s1")
	w := do(t, srv, "GET", "/api/decisions/"+oldKey, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var d decision.Decision
	decode(t, w, &d)
	if !d.Superseded {
		t.Error("expected decision to be superseded")
	}

	w = do(t, srv, "GET", "/api/decisions/"+oldKey+"/history", "")
	var hist struct {
		History []decision.SupersedenceRecord `json:"history"`
	}
	decode(t, w, &hist)
	if len(hist.History) != 1 || hist.History[0].SupersededKey != oldKey {
		t.Errorf("history = %+v", hist.History)
	}

	w = do(t, srv, "GET", "/api/decisions/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestResolveEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := do(t, srv, "POST", "/api/decisions/missing/resolve", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Superseded []string `json:"superseded"`
	}
	decode(t, w, &body)
	if len(body.Superseded) != 0 {
		t.Errorf("superseded = %v", body.Superseded)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	do(t, srv, "POST", "/api/decisions/process", `{"text":"We should use PostgreSQL for storage."}`)
	w := do(t, srv, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "verdict_engine_decisions_extracted_total") {
		t.Error("missing extraction counter")
	}
}
