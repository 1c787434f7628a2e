package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"labelcheck/internal/domain"
	"labelcheck/internal/normalize"
)

type errorResponse struct {
	Error      string      `json:"error"`
	Message    string      `json:"message"`
	Diagnostic *diagnostic `json:"diagnostic,omitempty"`
}

type diagnostic struct {
	Code    normalize.Code `json:"code"`
	Field   string         `json:"field,omitempty"`
	Tier    string         `json:"tier"`
	Excerpt string         `json:"excerpt"`
}

// fail maps an error onto a status and a user-safe body. Details of
// unexpected errors stay in the server log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", body.Error),
			zap.Error(err))
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

func classify(err error) (int, errorResponse) {
	var mr *normalize.MalformedResponse
	switch {
	case errors.As(err, &mr):
		return http.StatusBadGateway, errorResponse{
			Error:   "MalformedResponse",
			Message: "the model response could not be turned into a report",
			Diagnostic: &diagnostic{
				Code:    mr.Code,
				Field:   mr.Field,
				Tier:    mr.Tier.String(),
				Excerpt: mr.Excerpt,
			},
		}
	case errors.Is(err, domain.ErrNoInputProvided):
		return http.StatusBadRequest, errorResponse{Error: "NoInputProvided", Message: "upload at least one image or PDF, or provide product data"}
	case errors.Is(err, domain.ErrUnsupportedArtifact):
		return http.StatusUnsupportedMediaType, errorResponse{Error: "UnsupportedArtifact", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Error: "InvalidInput", Message: err.Error()}
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized, errorResponse{Error: "AuthRequired", Message: "sign in to continue"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "InvalidCredentials", Message: "email or password is incorrect"}
	case errors.Is(err, domain.ErrEmailAlreadyRegistered):
		return http.StatusConflict, errorResponse{Error: "EmailAlreadyRegistered", Message: "an account with this email already exists"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "NotFound", Message: "report not found"}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: "StoreUnavailable", Message: "storage is unavailable, try again later"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorResponse{Error: "ModelTimeout", Message: "the model did not answer in time"}
	}
	return http.StatusInternalServerError, errorResponse{Error: "Internal", Message: "internal error"}
}
