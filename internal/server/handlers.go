package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/storage"
)

type contextKey string

// usernameKey carries the logged-in username through the request context.
const usernameKey contextKey = "username"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// requireSession rejects requests without a valid session cookie.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		username, ok := s.sessions.Lookup(cookie.Value)
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "session expired")
			return
		}
		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validateCredentials(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := s.users.Register(r.Context(), req.Username, req.Password)
	if errors.Is(err, models.ErrUserExists) {
		s.respondError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		s.logger.Error("signup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("user registered", zap.String("username", req.Username))
	s.respondJSON(w, http.StatusCreated, map[string]string{"username": req.Username, "status": "registered"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		s.respondError(w, http.StatusUnauthorized, "unknown username")
		return
	case errors.Is(err, models.ErrWrongPassword):
		s.respondError(w, http.StatusUnauthorized, "wrong password")
		return
	case err != nil:
		s.logger.Error("login failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token := s.sessions.Create(req.Username)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.config.Auth.SessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Debug("user logged in", zap.String("username", req.Username))
	s.respondJSON(w, http.StatusOK, map[string]string{"username": req.Username, "status": "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Revoke(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) validateCredentials(req credentialsRequest) error {
	if len(req.Username) < s.config.Auth.MinUsernameLen {
		return fmt.Errorf("%w: username must be at least %d characters",
			models.ErrValidation, s.config.Auth.MinUsernameLen)
	}
	if len(req.Password) < s.config.Auth.MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters",
			models.ErrValidation, s.config.Auth.MinPasswordLen)
	}
	return nil
}

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	snap := s.lib.Snapshot()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "library not loaded")
		return
	}
	titles := snap.Catalog.Titles()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"titles": titles,
		"count":  len(titles),
	})
}

func (s *Server) handleMovieSearch(w http.ResponseWriter, r *http.Request) {
	if s.titles == nil {
		s.respondError(w, http.StatusNotImplemented, "title search not enabled")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	matches, err := s.titles.Search(q, 10)
	if err != nil {
		s.logger.Error("title search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	start := time.Now()
	// A failed refresh keeps the previous snapshot serving.
	if _, err := s.EnsureFresh(r.Context()); err != nil {
		s.logger.Error("freshness check failed", zap.Error(err))
	}

	results, err := s.engine.Recommend(r.Context(), req.Title)
	if errors.Is(err, models.ErrTitleNotFound) {
		s.respondError(w, http.StatusNotFound, "title not found")
		return
	}
	if err != nil {
		// Unexpected failures degrade to an empty list rather than an error
		// page, matching the select-and-recommend UI contract.
		s.logger.Error("recommendation failed", zap.String("title", req.Title), zap.Error(err))
		results = []models.Recommendation{}
	}
	s.respondJSON(w, http.StatusOK, models.RecommendResponse{
		Title:   req.Title,
		Results: results,
		TookMs:  time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleDatasetRefresh(w http.ResponseWriter, r *http.Request) {
	rebuilt, err := s.EnsureFresh(r.Context())
	if err != nil {
		s.logger.Error("dataset refresh failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := "unchanged"
	if rebuilt {
		status = "rebuilt"
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        status,
		"last_modified": s.monitor.LastRebuilt(),
	})
}

func (s *Server) handleDatasetStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"last_rebuilt": s.monitor.LastRebuilt(),
	}
	if stale, err := s.monitor.ShouldRebuild(); err == nil {
		resp["stale"] = stale
	}
	if snap := s.lib.Snapshot(); snap != nil {
		resp["movies"] = snap.Catalog.Len()
		resp["matrix_size"] = snap.Matrix.Size()
	}
	if s.titles != nil {
		if n, err := s.titles.Count(); err == nil {
			resp["indexed_titles"] = n
		}
	}
	if bytes, err := storage.UsageBytes(
		s.config.Storage.CatalogPath,
		s.config.Storage.MatrixPath,
		s.config.Storage.DatabasePath,
		s.config.Storage.TitleIndexPath,
	); err == nil {
		resp["disk_usage_bytes"] = bytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
