package httpadapter

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/go-chi/render"

	"labelcheck/internal/domain"
	"labelcheck/internal/ports"
	"labelcheck/internal/uploads"
)

const multipartMemory = 8 << 20

// File fields accepted on upload routes, in the order they are read.
var fileFields = []string{"files", "file", "images", "image"}

// withUploads parses a multipart request, spools its files and hands the
// artifacts to fn. Every temp file is removed before it returns.
func (s *Server) withUploads(w http.ResponseWriter, r *http.Request, fn func([]ports.Artifact, domain.Language)) {
	if s.opts.Limits.MaxFiles > 0 && s.opts.Limits.MaxFileBytes > 0 {
		limit := int64(s.opts.Limits.MaxFiles)*s.opts.Limits.MaxFileBytes + 1<<20
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	var files []*multipart.FileHeader
	err := r.ParseMultipartForm(multipartMemory)
	switch {
	case err == nil:
		defer r.MultipartForm.RemoveAll()
		files = collectFiles(r.MultipartForm)
	case errors.Is(err, http.ErrNotMultipart):
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrInvalidInput, tooLarge.Limit))
			return
		}
		s.fail(w, r, fmt.Errorf("%w: malformed multipart body", domain.ErrInvalidInput))
		return
	}
	lang := domain.ParseLanguage(r.FormValue("lang"))

	batch, err := uploads.Spool(files, s.opts.Limits, s.log)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedArtifact) {
			s.metrics.Uploads.WithLabelValues("unsupported", "rejected").Inc()
		}
		s.fail(w, r, err)
		return
	}
	defer batch.Release()
	for _, a := range batch.Artifacts {
		s.metrics.Uploads.WithLabelValues(a.MIMEType, "accepted").Inc()
	}
	fn(batch.Artifacts, lang)
}

func collectFiles(form *multipart.Form) []*multipart.FileHeader {
	var out []*multipart.FileHeader
	seen := map[string]bool{}
	for _, f := range fileFields {
		out = append(out, form.File[f]...)
		seen[f] = true
	}
	var rest []string
	for k := range form.File {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, form.File[k]...)
	}
	return out
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	s.withUploads(w, r, func(artifacts []ports.Artifact, lang domain.Language) {
		res, err := s.assess.Analyze(r.Context(), artifacts, lang)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		render.JSON(w, r, res)
	})
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	s.withUploads(w, r, func(artifacts []ports.Artifact, lang domain.Language) {
		res, err := s.assess.Extract(r.Context(), artifacts, lang)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		render.JSON(w, r, res)
	})
}

type confirmedRequest struct {
	Lang string              `json:"lang"`
	Data *domain.ProductData `json:"data"`
}

func (s *Server) analyzeConfirmed(w http.ResponseWriter, r *http.Request) {
	var req confirmedRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.fail(w, r, fmt.Errorf("%w: request body is not valid JSON", domain.ErrInvalidInput))
		return
	}
	if req.Data == nil {
		s.fail(w, r, domain.ErrNoInputProvided)
		return
	}
	res, err := s.assess.AnalyzeConfirmed(r.Context(), *req.Data, domain.ParseLanguage(req.Lang))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, res)
}
