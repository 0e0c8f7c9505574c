package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"strconv"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleRuns handles GET /runs.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	input := ops.ListInput{
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}
	switch status {
	case "success":
		input.Success = boolPtr(true)
	case "failed":
		input.Success = boolPtr(false)
	default:
		status = ""
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "runs", RunsPageData{
		PageData:   h.renderer.page("Runs", "runs"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Status:     status,
		Deleted:    input.IncludeDeleted,
	})
}

// HandleRun handles GET /runs/{id}.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("run ID is required"))
		return
	}

	result, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:             id,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
		CompliantOnly:  parseBoolParam(r, "compliant_only"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	drafts := make([]DraftView, 0, len(result.Drafts))
	for _, d := range result.Drafts {
		drafts = append(drafts, DraftView{
			Title:     d.Title,
			Priority:  d.Priority,
			Labels:    d.Labels,
			Milestone: d.Milestone,
			Body:      renderMarkdown(d.Body),
		})
	}

	h.renderer.renderPage(w, r, "run", RunPageData{
		PageData: h.renderer.page("Run "+shortID(result.ID), "runs"),
		Run:      result,
		Report:   renderMarkdown(result.Report),
		Drafts:   drafts,
	})
}

// HandleDelete handles DELETE /runs/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("run ID is required"))
		return
	}

	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/runs")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/runs", http.StatusFound)
}

// HandlePurge handles POST /runs/purge.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	var input ops.PurgeInput
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="purge-result">` + template.HTMLEscapeString(result.Message) + `</div>`))
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/runs?include_deleted=true", http.StatusFound)
}

// HandleProposals handles GET /proposals.
func (h *Handlers) HandleProposals(w http.ResponseWriter, r *http.Request) {
	input := ops.ProposalsInput{
		RunID:         r.URL.Query().Get("run_id"),
		Category:      r.URL.Query().Get("category"),
		CompliantOnly: parseBoolParam(r, "compliant_only"),
		Limit:         parseIntParam(r, "limit", ops.DefaultProposalsLimit),
		Offset:        parseIntParam(r, "offset", 0),
	}

	result, err := ops.Proposals(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "proposals", ProposalsPageData{
		PageData:      h.renderer.page("Proposals", "proposals"),
		Items:         result.Items,
		Pagination:    result.Pagination,
		Category:      input.Category,
		CompliantOnly: input.CompliantOnly,
	})
}

// HandlePolicy handles GET /policy.
func (h *Handlers) HandlePolicy(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Policy(h.cfg)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "policy", PolicyPageData{
		PageData: h.renderer.page("F2P Policy", "policy"),
		Policy:   result,
		Document: renderMarkdown(result.Document),
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

func boolPtr(b bool) *bool { return &b }

// shortID truncates a run ID for page titles.
func shortID(id string) string {
	if len(id) > 10 {
		return id[:10] + "..."
	}
	return id
}
