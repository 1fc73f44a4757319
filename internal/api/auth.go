package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/auth"
	"github.com/lalith-99/minicrm/internal/middleware"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/observ"
	"github.com/lalith-99/minicrm/internal/repository"
	"github.com/lalith-99/minicrm/internal/session"
	"go.uber.org/zap"
)

type SessionStore interface {
	Save(ctx context.Context, tokenHash string, userID uuid.UUID) error
	Rotate(ctx context.Context, oldHash, newHash string) (uuid.UUID, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// AuthHandler serves the public /v1/auth endpoints. Access tokens are
// short-lived JWTs; refresh tokens are opaque, single-use and stored
// only as a hash.
type AuthHandler struct {
	users     repository.UserRepository
	sessions  SessionStore
	jwtSecret string
	accessTTL time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(
	users repository.UserRepository,
	sessions SessionStore,
	jwtSecret string,
	accessTTL time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:     users,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		accessTTL: accessTTL,
		logger:    logger,
	}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func (h *AuthHandler) Register(g *gin.RouterGroup) {
	g.POST("/auth/signup", h.Signup)
	g.POST("/auth/login", h.Login)
	g.POST("/auth/refresh", h.Refresh)
	g.POST("/auth/logout", h.Logout)
}

// Signup handles POST /v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger := observ.LoggerFrom(c.Request.Context(), h.logger)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), normalizeEmail(req.Email), strings.TrimSpace(req.Name), hash)
	if errors.Is(err, repository.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		logger.Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	h.issue(c, http.StatusCreated, user, "signup failed")
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		observ.LoggerFrom(c.Request.Context(), h.logger).Error("failed to find user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	// Same answer for unknown email and wrong password.
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	h.issue(c, http.StatusOK, user, "login failed")
}

// Refresh handles POST /v1/auth/refresh. The presented refresh token is
// consumed and a new pair is issued.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	logger := observ.LoggerFrom(ctx, h.logger)

	refresh, refreshHash, err := auth.NewRefreshToken()
	if err != nil {
		logger.Error("failed to generate refresh token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	userID, err := h.sessions.Rotate(ctx, auth.HashRefreshToken(req.RefreshToken), refreshHash)
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token", "redirect": middleware.LoginPath})
		return
	}
	if err != nil {
		logger.Error("failed to rotate session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		if err != nil {
			logger.Error("failed to load user for refresh", zap.Error(err))
		}
		_ = h.sessions.Revoke(ctx, refreshHash)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token", "redirect": middleware.LoginPath})
		return
	}

	access, err := auth.GenerateToken(user.ID, user.Email, h.jwtSecret, h.accessTTL)
	if err != nil {
		logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, h.response(access, refresh))
}

// Logout handles POST /v1/auth/logout. Unknown tokens are not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessions.Revoke(c.Request.Context(), auth.HashRefreshToken(req.RefreshToken)); err != nil {
		observ.LoggerFrom(c.Request.Context(), h.logger).Error("failed to revoke session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// issue starts a new session for user and writes the token pair.
func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User, failMsg string) {
	ctx := c.Request.Context()
	logger := observ.LoggerFrom(ctx, h.logger)

	access, err := auth.GenerateToken(user.ID, user.Email, h.jwtSecret, h.accessTTL)
	if err != nil {
		logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": failMsg})
		return
	}
	refresh, refreshHash, err := auth.NewRefreshToken()
	if err == nil {
		err = h.sessions.Save(ctx, refreshHash, user.ID)
	}
	if err != nil {
		logger.Error("failed to start session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": failMsg})
		return
	}
	c.JSON(status, h.response(access, refresh))
}

func (h *AuthHandler) response(access, refresh string) authResponse {
	return authResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.accessTTL.Seconds()),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
