package httpadapter

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"labelcheck/internal/domain"
)

type userJSON struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Company   *string   `json:"company"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserJSON(u *domain.User) *userJSON {
	if u == nil {
		return nil
	}
	return &userJSON{ID: u.ID, Email: u.Email, Name: u.Name, Company: u.Company, CreatedAt: u.CreatedAt}
}

type userResponse struct {
	User *userJSON `json:"user"`
}

type registerRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
	Name     string              `json:"name"`
	Company  string              `json:"company"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, openapi_types.ErrValidationEmail) {
			s.fail(w, r, fmt.Errorf("%w: email address is not valid", domain.ErrInvalidInput))
			return
		}
		s.fail(w, r, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput))
		return
	}
	u, sess, err := s.auth.Register(r.Context(), domain.Registration{
		Email:    string(req.Email),
		Password: req.Password,
		Name:     req.Name,
		Company:  req.Company,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setSession(w, sess)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, userResponse{User: toUserJSON(&u)})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.fail(w, r, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput))
		return
	}
	u, sess, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setSession(w, sess)
	render.JSON(w, r, userResponse{User: toUserJSON(&u)})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	c, _ := r.Cookie(sessionCookie)
	var sid string
	if c != nil {
		sid = c.Value
	}
	if err := s.auth.Logout(r.Context(), sid); err != nil {
		s.fail(w, r, err)
		return
	}
	s.clearSession(w)
	render.JSON(w, r, map[string]bool{"ok": true})
}

// me answers {"user": null} for anonymous callers and when no store is configured.
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, userResponse{User: toUserJSON(currentUser(r.Context()))})
}
