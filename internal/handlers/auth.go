package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/constants"
	"github.com/agrodata/farmdata-api/internal/dto"
	apierrors "github.com/agrodata/farmdata-api/internal/errors"
	"github.com/agrodata/farmdata-api/internal/middleware"
	"github.com/agrodata/farmdata-api/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	farmService *services.FarmService
	audit       *services.AuditService
	tokens      *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, farmService *services.FarmService, audit *services.AuditService, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		farmService: farmService,
		audit:       audit,
		tokens:      tokens,
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"full_name"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	h.audit.RecordForUser(user.ID, services.AuditActionRegister, "user", &user.ID, "", c.ClientIP())

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user, initializes the session, and issues a token
// pair for API clients. Both transports share the same credential check.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Authenticate(req.Identifier, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	activeFarmID, err := h.farmService.ResolveActiveFarm(user.ID, nil)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if activeFarmID != nil {
		session.Set(constants.SessionKeyFarmID, *activeFarmID)
	}
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue token")
		return
	}
	refreshToken, err := h.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue token")
		return
	}

	h.audit.RecordForUser(user.ID, services.AuditActionLogin, "user", &user.ID, "", c.ClientIP())

	c.JSON(http.StatusOK, dto.LoginResponseDTO{
		User:         dto.ToUserDTO(*user),
		ActiveFarmID: activeFarmID,
		Tokens: dto.TokenPairDTO{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "bearer",
		},
	})
}

// Refresh exchanges a refresh token for a new token pair. The user's
// active flag is re-checked so deactivation cuts off refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	claims, err := h.tokens.Parse(req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		apierrors.Unauthorized(c, "Invalid refresh token")
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		apierrors.Unauthorized(c, "Invalid refresh token")
		return
	}

	user, err := h.authService.GetActiveUser(userID)
	if err != nil {
		apierrors.Unauthorized(c, "Invalid refresh token")
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue token")
		return
	}
	refreshToken, err := h.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, dto.TokenPairDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)

	if userID, ok := session.Get(constants.ContextKeyUserID).(uint64); ok {
		h.audit.RecordForUser(userID, services.AuditActionLogout, "user", &userID, "", c.ClientIP())
	}

	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user and the active farm.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":           dto.ToUserDTO(*ctx.User),
		"active_farm_id": ctx.ActiveFarmID,
	})
}

// ChangePassword updates the caller's password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type ChangePasswordRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(ctx.UserID(), req.CurrentPassword, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}

	userID := ctx.UserID()
	h.audit.Record(ctx, services.AuditActionPasswordChange, "user", &userID, "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"message": "Password updated",
	})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
