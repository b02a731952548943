package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/prepexam/prepexam/internal/i18n"
	"github.com/prepexam/prepexam/internal/model"
)

const sessionCookieName = "session"

// requireAuth is middleware that checks for a valid session cookie.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			errorJSON(w, http.StatusUnauthorized, "authentication required")
			return
		}

		authSess, err := h.store.GetAuthSession(cookie.Value)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			errorJSON(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if authSess == nil {
			errorJSON(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := h.store.GetUserByID(authSess.UserID)
		if err != nil || user == nil || !user.Active {
			errorJSON(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				errorJSON(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			errorJSON(w, http.StatusForbidden, appI18n.T(r.Context(), "NotAuthorized"))
		})
	}
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// handleRegister creates a student account. Teacher and admin accounts are
// created through the admin API or seeding.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Password) < 6 {
		errorJSON(w, http.StatusBadRequest, "username and a password of at least 6 characters are required")
		return
	}

	existing, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		slog.Error("failed to check username", "error", err)
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

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         model.UserRoleStudent,
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
	h.startSession(w, r, user, http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		errorJSON(w, http.StatusUnauthorized, appI18n.T(r.Context(), "LoginError"))
		return
	}
	if user == nil || !user.Active {
		errorJSON(w, http.StatusUnauthorized, appI18n.T(r.Context(), "LoginError"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errorJSON(w, http.StatusUnauthorized, appI18n.T(r.Context(), "LoginError"))
		return
	}

	h.startSession(w, r, user, http.StatusOK)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	token, err := h.store.CreateAuthSession(user.ID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	respondJSON(w, status, map[string]any{"user": user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.store.DeleteAuthSession(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"user": model.UserFromContext(r.Context())})
}
