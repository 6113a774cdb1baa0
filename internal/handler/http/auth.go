package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/worklane/timeledger-backend-go/internal/handler/http/response"
	"github.com/worklane/timeledger-backend-go/internal/pkg/jwt"
	"github.com/worklane/timeledger-backend-go/internal/pkg/validator"
	authsvc "github.com/worklane/timeledger-backend-go/internal/service/auth"
)

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	RefreshToken(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	jwtService  jwt.Service
	authService *authsvc.Service
}

func NewAuthHandler(jwtService jwt.Service, authService *authsvc.Service) AuthHandler {
	return &AuthHandlerImpl{
		jwtService:  jwtService,
		authService: authService,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *loginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(req.Email) {
		errs = append(errs, validator.ValidationError{Field: "email", Message: "email is required"})
	} else if !validator.IsValidEmail(req.Email) {
		errs = append(errs, validator.ValidationError{Field: "email", Message: "email is invalid"})
	}
	if validator.IsEmpty(req.Password) {
		errs = append(errs, validator.ValidationError{Field: "password", Message: "password is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type sessionResponse struct {
	AccessToken          string  `json:"access_token"`
	AccessTokenExpiresIn int64   `json:"access_token_expires_in"`
	UserID               string  `json:"user_id"`
	Email                string  `json:"email"`
	FullName             string  `json:"full_name"`
	Role                 string  `json:"role"`
	EmployeeID           *string `json:"employee_id,omitempty"`
}

func (a *AuthHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Login decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	tokens, userData, err := a.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Error("Login error", "error", err)
		response.HandleError(w, err)
		return
	}

	http.SetCookie(w, a.jwtService.RefreshTokenCookie(tokens.RefreshToken, tokens.RefreshTokenExpiresIn))

	slog.Info("User logged in", "user_id", userData.ID)
	response.SuccessWithMessage(w, "Login successful", sessionResponse{
		AccessToken:          tokens.AccessToken,
		AccessTokenExpiresIn: tokens.AccessTokenExpiresIn,
		UserID:               userData.ID,
		Email:                userData.Email,
		FullName:             userData.FullName,
		Role:                 string(userData.Role),
		EmployeeID:           userData.EmployeeID,
	})
}

func (a *AuthHandlerImpl) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		response.Unauthorized(w, "Missing refresh token")
		return
	}

	tokens, userData, err := a.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("Refresh error", "error", err)
		response.HandleError(w, err)
		return
	}

	http.SetCookie(w, a.jwtService.RefreshTokenCookie(tokens.RefreshToken, tokens.RefreshTokenExpiresIn))

	response.SuccessWithMessage(w, "Token refreshed", sessionResponse{
		AccessToken:          tokens.AccessToken,
		AccessTokenExpiresIn: tokens.AccessTokenExpiresIn,
		UserID:               userData.ID,
		Email:                userData.Email,
		FullName:             userData.FullName,
		Role:                 string(userData.Role),
		EmployeeID:           userData.EmployeeID,
	})
}

func (a *AuthHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("refresh_token"); err == nil {
		a.authService.Logout(cookie.Value)
	}

	// Expire the cookie client-side as well.
	expired := a.jwtService.RefreshTokenCookie("", 0)
	expired.MaxAge = -1
	http.SetCookie(w, expired)

	response.SuccessWithMessage(w, "Logged out", nil)
}
