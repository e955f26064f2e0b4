package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/upb/terrace/middleware"
	"github.com/upb/terrace/services"
	"github.com/upb/terrace/tokens"
	"github.com/upb/terrace/utils"
	"go.uber.org/zap"
)

// Authenticator is the credential and token surface used by AuthHandler
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, token string) (*services.LoginResult, error)
	TokenOutcome(token string) tokens.Outcome
	UserInfo(ctx context.Context, token string) (*services.UserInfo, error)
}

// CookieConfig controls the token cookie written on login and refresh
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// RefreshRequest is the optional body of POST /api/auth/refresh
type RefreshRequest struct {
	Token string `json:"token"`
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	Message   string            `json:"message"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      services.UserInfo `json:"user"`
}

// ValidateResponse is returned by GET /api/auth/validate
type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	Outcome string `json:"outcome"`
}

// AuthHandler serves the login, refresh, validate, me and logout endpoints
type AuthHandler struct {
	auth   Authenticator
	cookie CookieConfig
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth Authenticator, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = middleware.DefaultCookieName
	}
	return &AuthHandler{
		auth:   auth,
		cookie: cookie,
		logger: logger,
	}
}

// HandleLogin handles POST /api/auth/login with a JSON or form body
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if utils.IsJSONRequest(r) {
		if err := utils.DecodeJSON(w, r, &req); err != nil {
			HandleValidationError(w, err, h.logger)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			HandleValidationError(w, err, h.logger)
			return
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
	}
	req.Email = strings.TrimSpace(req.Email)

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.setTokenCookie(w, result.Token)
	h.writeToken(w, "Login successful", result)
}

// HandleRefresh handles POST /api/auth/refresh. The token is read from the
// cookie, the Authorization header or a JSON body, in that order.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r, h.cookie.Name)
	if token == "" && utils.IsJSONRequest(r) {
		var req RefreshRequest
		if err := utils.DecodeJSON(w, r, &req); err == nil {
			token = strings.TrimSpace(req.Token)
		}
	}
	if token == "" {
		_ = utils.WriteUnauthorized(w, "No token provided")
		return
	}

	result, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.setTokenCookie(w, result.Token)
	h.writeToken(w, "Token refreshed", result)
}

// HandleValidate handles GET /api/auth/validate
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r, h.cookie.Name)
	if token == "" {
		_ = utils.WriteJSON(w, http.StatusOK, ValidateResponse{Valid: false, Outcome: "missing"})
		return
	}

	outcome := h.auth.TokenOutcome(token)
	_ = utils.WriteJSON(w, http.StatusOK, ValidateResponse{
		Valid:   outcome == tokens.OutcomeValid,
		Outcome: string(outcome),
	})
}

// HandleMe handles GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r, h.cookie.Name)
	if token == "" {
		_ = utils.WriteUnauthorized(w, "No token provided")
		return
	}

	info, err := h.auth.UserInfo(r.Context(), token)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, info)
}

// HandleLogout clears the token cookie. Tokens stay valid until they expire.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	_ = utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse{Message: "Logout successful"})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, message string, result *services.LoginResult) {
	if err := utils.WriteJSON(w, http.StatusOK, TokenResponse{
		Message:   message,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	}); err != nil {
		h.logger.Error("failed to write token response", zap.Error(err))
	}
}
