// Package handler exposes the JSON HTTP API consumed by the web frontend.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prepexam/prepexam/internal/grader"
	"github.com/prepexam/prepexam/internal/model"
	"github.com/prepexam/prepexam/internal/parser"
	"github.com/prepexam/prepexam/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	parser   *parser.Parser
	reviewer *grader.Reviewer // nil when essay pre-review is disabled
	config   model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, p *parser.Parser, rev *grader.Reviewer, cfg model.ServerConfig) (*Handler, error) {
	return &Handler{store: s, parser: p, reviewer: rev, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/api/auth/me", h.handleMe)
		r.Get("/api/exams", h.handleListExams)
		r.Get("/api/exams/{examID}", h.handleGetExam)
		r.Get("/api/leaderboard", h.handleLeaderboard)
		r.Get("/api/submissions/{submissionID}", h.handleGetSubmission)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleTeacher, model.UserRoleAdmin))
			r.Post("/api/parse-document", h.handleParseDocument)
			r.Post("/api/exams", h.handleCreateExam)
			r.Post("/api/exams/{examID}/publish", h.handlePublishExam)
			r.Post("/api/exams/{examID}/archive", h.handleArchiveExam)
			r.Delete("/api/exams/{examID}", h.handleDeleteExam)
			r.Get("/api/exams/{examID}/submissions", h.handleListExamSubmissions)
			r.Put("/api/answers/{answerID}/grade", h.handleGradeAnswer)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleStudent))
			r.Post("/api/exams/{examID}/submissions", h.handleSubmitExam)
			r.Get("/api/my/submissions", h.handleMySubmissions)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/api/admin/users", h.handleListUsers)
			r.Post("/api/admin/users", h.handleCreateUser)
			r.Post("/api/admin/users/{userID}/toggle", h.handleToggleUserActive)
		})
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
