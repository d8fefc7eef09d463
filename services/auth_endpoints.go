package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
)

type AuthEndpoints struct {
	authService *AuthService
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func NewAuthEndpoints(authService *AuthService) *AuthEndpoints {
	return &AuthEndpoints{
		authService: authService,
	}
}

func (e *AuthEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", e.LoginHandler)
		r.Post("/signup", e.SignupHandler)
		r.Post("/refresh", e.RefreshHandler)
		r.Post("/logout", e.LogoutHandler)
		r.Get("/me", e.MeHandler)
	})
}

func (e *AuthEndpoints) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	authResponse, err := e.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Error("Login failed", "error", err, "email", req.Email)
		writeError(w, err)
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    userView(authResponse.User),
		"message": "Login successful",
	})

	slog.Info("User logged in", "user_id", authResponse.User.ID, "email", authResponse.User.Email)
}

func (e *AuthEndpoints) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, apperrors.Validation("email and password are required"))
		return
	}

	authResponse, err := e.authService.Signup(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		slog.Error("Signup failed", "error", err, "email", req.Email)
		writeError(w, err)
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    userView(authResponse.User),
		"message": "Signup successful",
	})

	slog.Info("User signed up", "user_id", authResponse.User.ID, "email", authResponse.User.Email)
}

func (e *AuthEndpoints) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	refreshToken := e.authService.GetTokenFromCookie(r, "refresh_token")
	if refreshToken == "" {
		writeError(w, apperrors.Auth("no refresh token provided"))
		return
	}

	authResponse, err := e.authService.RefreshToken(r.Context(), refreshToken)
	if err != nil {
		slog.Error("Token refresh failed", "error", err)
		writeError(w, err)
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, "")

	writeJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed successfully"})

	slog.Info("Token refreshed", "user_id", authResponse.User.ID)
}

func (e *AuthEndpoints) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, apperrors.Auth("not authenticated"))
		return
	}

	if err := e.authService.Logout(r.Context(), user.ID); err != nil {
		slog.Error("Logout failed", "error", err, "user_id", user.ID)
		writeError(w, err)
		return
	}

	e.authService.ClearAuthCookies(w)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})

	slog.Info("User logged out", "user_id", user.ID)
}

func (e *AuthEndpoints) MeHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, apperrors.Auth("not authenticated"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": userView(user)})
}

func userView(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
		"role":      user.Role,
	}
}
