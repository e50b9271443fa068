package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeshop/internal/auth"
	"github.com/mcdev12/timeshop/internal/models"
	"github.com/mcdev12/timeshop/internal/reviews"
)

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Username string       `json:"username"`
	State    models.State `json:"state"`
}

type stateRequest struct {
	Username string        `json:"username"`
	Password string        `json:"password"`
	State    *models.State `json:"state"`
}

type reviewRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	CardLevel string `json:"cardLevel"`
	Text      string `json:"text"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type reviewsResponse struct {
	Level   models.CardLevel `json:"level"`
	Reviews []models.Review  `json:"reviews"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request.")
		return false
	}
	return true
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.auth.Signup(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Username and password are required.")
	case errors.Is(err, auth.ErrUserExists):
		// Duplicate usernames collapse into a 400, same as a missing
		// field; there is no separate conflict status on this API.
		writeError(w, http.StatusBadRequest, "Username already exists.")
	case err != nil:
		log.Error().Err(err).Msg("signup failed")
		writeError(w, http.StatusInternalServerError, "Internal error.")
	default:
		writeJSON(w, http.StatusOK, authResponse{Username: user.Username, State: user.State})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Username and password are required.")
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Invalid username or password.")
	case err != nil:
		log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "Internal error.")
	default:
		writeJSON(w, http.StatusOK, authResponse{Username: user.Username, State: user.State})
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" || req.State == nil {
		writeError(w, http.StatusBadRequest, "Bad request.")
		return
	}

	_, err := s.reconciler.Sync(r.Context(), req.Username, req.Password, *req.State)
	switch {
	case errors.Is(err, auth.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Bad request.")
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
	case err != nil:
		log.Error().Err(err).Msg("state sync failed")
		writeError(w, http.StatusInternalServerError, "Internal error.")
	default:
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Bad request.")
		return
	}

	err := s.reviews.Submit(r.Context(), req.Username, req.Password, req.CardLevel, req.Text)
	switch {
	case errors.Is(err, reviews.ErrBadRequest), errors.Is(err, auth.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Bad request.")
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
	case err != nil:
		log.Error().Err(err).Msg("review submit failed")
		writeError(w, http.StatusInternalServerError, "Internal error.")
	default:
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	level, list, err := s.reviews.ByLevel(r.Context(), r.PathValue("level"))
	switch {
	case errors.Is(err, reviews.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Invalid card level.")
	case err != nil:
		log.Error().Err(err).Msg("review listing failed")
		writeError(w, http.StatusInternalServerError, "Internal error.")
	default:
		writeJSON(w, http.StatusOK, reviewsResponse{Level: level, Reviews: list})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}
