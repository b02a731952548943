package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-chi/chi/v5"
	appI18n "github.com/prepexam/prepexam/internal/i18n"
	"github.com/prepexam/prepexam/internal/model"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

type createUserRequest struct {
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Password    string         `json:"password"`
	Role        model.UserRole `json:"role"`
}

// handleCreateUser lets an admin create accounts with any role, including
// teachers.
func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		errorJSON(w, http.StatusBadRequest, "username and password required")
		return
	}
	switch req.Role {
	case model.UserRoleStudent, model.UserRoleTeacher, model.UserRoleAdmin:
	default:
		errorJSON(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		errorJSON(w, http.StatusConflict, appI18n.T(r.Context(), "UsernameTaken"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	})
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.store.GetUserByID(id)
	if err != nil || user == nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.store.GetUserByID(id)
	if err != nil || user == nil {
		errorJSON(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}
