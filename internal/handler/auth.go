package handler

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/metamind/quiz/internal/i18n"
	"github.com/metamind/quiz/internal/model"
)

const sessionCookieName = "session"

// generateAccessCode produces a short human-typeable code the user keeps
// to resume their results later.
func generateAccessCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)), nil
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// handleRegister creates a user and returns a one-time access code. Only
// its bcrypt hash is stored; the plaintext code is never shown again.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		http.Error(w, "full_name is required", http.StatusBadRequest)
		return
	}

	code, err := generateAccessCode()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	id, err := h.store.CreateUser(model.User{
		FullName:   req.FullName,
		Email:      req.Email,
		AccessHash: string(hash),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id":     id,
		"access_code": code,
		"note":        appI18n.T(r.Context(), "RegistrationAccessCodeNote"),
	})
}

type loginRequest struct {
	UserID     int64  `json:"user_id"`
	AccessCode string `json:"access_code"`
}

// handleLogin verifies an access code and issues a resume token as a
// cookie, so a returning user can see their past sessions.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByID(req.UserID)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		h.jsonError(r.Context(), w, http.StatusUnauthorized, "ErrInvalidAccessCode")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.AccessHash), []byte(strings.TrimSpace(req.AccessCode))); err != nil {
		h.jsonError(r.Context(), w, http.StatusUnauthorized, "ErrInvalidAccessCode")
		return
	}

	token, err := h.store.CreateAuthSession(user.ID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
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
	})
	w.WriteHeader(http.StatusNoContent)
}

// userFromRequest resolves the authenticated user from the resume token,
// via cookie or Authorization bearer header. Quiz flows work anonymously;
// a resolved user only ties sessions to a name for later export.
func (h *Handler) userFromRequest(r *http.Request) *model.User {
	token := ""
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		token = cookie.Value
	}
	if auth := r.Header.Get("Authorization"); token == "" && strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	if token == "" {
		return nil
	}

	authSess, err := h.store.GetAuthSession(token)
	if err != nil {
		slog.Error("failed to get auth session", "error", err)
		return nil
	}
	if authSess == nil {
		return nil
	}
	user, err := h.store.GetUserByID(authSess.UserID)
	if err != nil {
		return nil
	}
	return user
}
