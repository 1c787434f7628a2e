package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/spf13/cast"

	"labelcheck/internal/domain"
	"labelcheck/internal/normalize"
)

type reportJSON struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Language    domain.Language          `json:"lang"`
	Score       int                      `json:"score"`
	OverallRisk domain.RiskLevel         `json:"overallRisk"`
	CreatedAt   time.Time                `json:"createdAt"`
	Data        *domain.AssessmentRecord `json:"data,omitempty"`
}

func toReportJSON(rep domain.SavedReport, withData bool) reportJSON {
	out := reportJSON{
		ID:          rep.ExternalID,
		Title:       rep.Title,
		Language:    rep.Language,
		Score:       rep.Score,
		OverallRisk: rep.Record.OverallRisk,
		CreatedAt:   rep.CreatedAt,
	}
	if withData {
		rec := rep.Record
		out.Data = &rec
	}
	return out
}

type saveRequest struct {
	Title string          `json:"title"`
	Lang  string          `json:"lang"`
	Data  json.RawMessage `json:"data"`
}

// Records saved by clients are checked against the assessment shape. Citations
// are not required because the server may be running with them relaxed.
var savedRecordSchema = normalize.AssessmentSchema.Relaxed()

func (s *Server) saveReport(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.fail(w, r, fmt.Errorf("%w: request body is not valid JSON", domain.ErrInvalidInput))
		return
	}
	if len(req.Data) == 0 || string(req.Data) == "null" {
		s.fail(w, r, domain.ErrNoInputProvided)
		return
	}
	if err := savedRecordSchema.Validate(req.Data); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	var rec domain.AssessmentRecord
	if err := json.Unmarshal(req.Data, &rec); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	u := currentUser(r.Context())
	saved, err := s.reports.Save(r.Context(), u.ID, req.Title, domain.ParseLanguage(req.Lang), rec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toReportJSON(saved, true))
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: limit must be a number", domain.ErrInvalidInput))
			return
		}
		limit = n
	}
	list, err := s.reports.List(r.Context(), currentUser(r.Context()).ID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]reportJSON, 0, len(list))
	for _, rep := range list {
		out = append(out, toReportJSON(rep, false))
	}
	render.JSON(w, r, map[string]any{"reports": out})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.reportID(w, r)
	if !ok {
		return
	}
	rep, err := s.reports.Get(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, toReportJSON(rep, true))
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.reportID(w, r)
	if !ok {
		return
	}
	if err := s.reports.Delete(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reportID binds the {id} path segment. Anything that is not a UUID cannot
// name a report, so it is answered like a missing one.
func (s *Server) reportID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		s.fail(w, r, domain.ErrNotFound)
		return "", false
	}
	return id.String(), true
}
