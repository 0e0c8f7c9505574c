package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/db"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/ops"
)

func setupTest(t *testing.T) (*Handlers, string) {
	t.Helper()
	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}

	return &Handlers{
		db:       database,
		cfg:      config.DefaultConfig(),
		renderer: NewRenderer(templateSub, "test", nil),
	}, baseDir
}

// seedRun runs the pipeline over the placeholder sources and returns the run ID.
func seedRun(t *testing.T, h *Handlers, baseDir string) string {
	t.Helper()
	out, err := ops.Run(context.Background(), h.db, h.cfg, baseDir, nil, ops.RunInput{NoWrite: true})
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}
	return out.ID
}

// --- HandleRuns ---

func TestHandleRuns_Default(t *testing.T) {
	h, baseDir := setupTest(t)
	id := seedRun(t, h, baseDir)

	req := httptest.NewRequest("GET", "/runs", nil)
	rec := httptest.NewRecorder()
	h.HandleRuns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, id) {
		t.Error("expected run ID in response")
	}
	if !strings.Contains(body, "Pipeline runs") {
		t.Error("expected page heading in response")
	}
}

func TestHandleRuns_Empty(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/runs", nil)
	rec := httptest.NewRecorder()
	h.HandleRuns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No runs stored yet") {
		t.Error("expected empty state message")
	}
}

func TestHandleRuns_StatusFilter(t *testing.T) {
	h, baseDir := setupTest(t)
	seedRun(t, h, baseDir)

	req := httptest.NewRequest("GET", "/runs?status=failed", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleRuns(rec, req)

	var out ops.ListOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Items) != 0 {
		t.Errorf("failed filter returned %d runs, want 0", len(out.Items))
	}
}

func TestHandleRuns_JSON(t *testing.T) {
	h, baseDir := setupTest(t)
	id := seedRun(t, h, baseDir)

	req := httptest.NewRequest("GET", "/runs", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleRuns(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var out ops.ListOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].ID != id {
		t.Errorf("items = %+v, want one run %s", out.Items, id)
	}
}

// --- HandleRun ---

func TestHandleRun(t *testing.T) {
	h, baseDir := setupTest(t)
	id := seedRun(t, h, baseDir)

	req := httptest.NewRequest("GET", "/runs/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Drafted issues", "<h2>Pipeline Run Summary</h2>", "completed"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in response", want)
		}
	}
}

func TestHandleRun_NotFound(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/runs/01JMISSING", nil)
	req.SetPathValue("id", "01JMISSING")
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "run not found") {
		t.Error("expected not-found message on error page")
	}
}

func TestHandleRun_NotFoundJSON(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/runs/01JMISSING", nil)
	req.SetPathValue("id", "01JMISSING")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	var payload struct {
		Error struct {
			Code   string `json:"code"`
			Status int    `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Error.Code != "NOT_FOUND" || payload.Error.Status != 404 {
		t.Errorf("error = %+v, want NOT_FOUND/404", payload.Error)
	}
}

// --- HandleDelete / HandlePurge ---

func TestHandleDelete(t *testing.T) {
	h, baseDir := setupTest(t)
	id := seedRun(t, h, baseDir)

	req := httptest.NewRequest("DELETE", "/runs/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/runs" {
		t.Errorf("Location = %q, want /runs", loc)
	}

	req = httptest.NewRequest("GET", "/runs/"+id, nil)
	req.SetPathValue("id", id)
	rec = httptest.NewRecorder()
	h.HandleRun(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted run status = %d, want 404", rec.Code)
	}
}

func TestHandleDelete_HTMX(t *testing.T) {
	h, baseDir := setupTest(t)
	id := seedRun(t, h, baseDir)

	req := httptest.NewRequest("DELETE", "/runs/"+id, nil)
	req.SetPathValue("id", id)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/runs" {
		t.Errorf("HX-Redirect = %q, want /runs", got)
	}
}

func TestHandlePurge(t *testing.T) {
	h, baseDir := setupTest(t)
	id := seedRun(t, h, baseDir)
	if _, err := ops.Delete(context.Background(), h.db, ops.DeleteInput{ID: id}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	form := url.Values{"confirm": {"true"}}
	req := httptest.NewRequest("POST", "/runs/purge", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandlePurge(rec, req)

	var out ops.PurgeOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Purged != 1 {
		t.Errorf("purged = %d, want 1", out.Purged)
	}
}

func TestHandlePurge_RequiresConfirm(t *testing.T) {
	h, _ := setupTest(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing confirm", url.Values{}},
		{"bad days", url.Values{"confirm": {"true"}, "older_than_days": {"soon"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/runs/purge", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			h.HandlePurge(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

// --- HandleProposals / HandlePolicy ---

func TestHandleProposals(t *testing.T) {
	h, baseDir := setupTest(t)
	id := seedRun(t, h, baseDir)

	req := httptest.NewRequest("GET", "/proposals?compliant_only=true", nil)
	rec := httptest.NewRecorder()
	h.HandleProposals(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "/runs/"+id) {
		t.Error("expected link to the source run")
	}
	if strings.Contains(body, `class="fail">fail`) {
		t.Error("compliant_only listing contains a failing proposal")
	}
}

func TestHandlePolicy(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/policy", nil)
	rec := httptest.NewRecorder()
	h.HandlePolicy(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Thirsty") {
		t.Error("expected rendered policy heading")
	}
	if !strings.Contains(body, "no_loot_boxes") {
		t.Error("expected guardrail names")
	}
}

// --- Routing ---

func TestMux_RoutesAndHeaders(t *testing.T) {
	h, _ := setupTest(t)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		t.Fatalf("static sub-FS: %v", err)
	}
	handler := securityHeaders(newMux(h, staticSub))

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/", http.StatusFound},
		{"GET", "/runs", http.StatusOK},
		{"GET", "/policy", http.StatusOK},
		{"GET", "/static/style.css", http.StatusOK},
		{"POST", "/runs", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if rec.Header().Get("X-Frame-Options") != "DENY" {
				t.Error("missing security headers")
			}
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	got := string(renderMarkdown("## Title\n\n- one\n- two\n"))
	if !strings.Contains(got, "<h2>Title</h2>") || !strings.Contains(got, "<li>one</li>") {
		t.Errorf("renderMarkdown = %q", got)
	}
	if unsafe := string(renderMarkdown("<script>alert(1)</script>")); strings.Contains(unsafe, "<script>") {
		t.Errorf("raw HTML passed through: %q", unsafe)
	}
}
