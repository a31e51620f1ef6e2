package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/gitpeek/internal/auth"
	"github.com/kurihiro0119/gitpeek/internal/domain"
	apperrors "github.com/kurihiro0119/gitpeek/internal/errors"
)

// Version is reported by the welcome endpoint
const Version = "1.0.0"

const sessionKey = "session"

// ActivityService is what the handlers need from the activity service
type ActivityService interface {
	GetUserActivity(ctx context.Context, username string, tr domain.TimeRange, cred domain.Credential) (*domain.UserActivity, error)
	GetUserInfo(ctx context.Context, username string) (*domain.UserProfile, error)
	GetAuthenticatedUser(ctx context.Context, cred domain.Credential) (*domain.UserProfile, error)
}

// SessionStore is what the handlers need from the session manager
type SessionStore interface {
	Create(ctx context.Context, token, login, avatarURL string) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// OAuthFlow is the GitHub OAuth web flow
type OAuthFlow interface {
	AuthCodeURL(redirectURI string) (authURL, state string, err error)
	Exchange(ctx context.Context, code string) (string, error)
}

// Handler handles API requests
type Handler struct {
	activity ActivityService
	sessions SessionStore
	oauth    OAuthFlow
	env      string
	logger   *slog.Logger
}

// NewHandler creates a new API handler. env "prod" hides upstream error details.
func NewHandler(activity ActivityService, sessions SessionStore, oauth OAuthFlow, env string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		activity: activity,
		sessions: sessions,
		oauth:    oauth,
		env:      env,
		logger:   logger,
	}
}

// ActivityRequest is the body of the activity endpoints
type ActivityRequest struct {
	Username  string `json:"username"`
	TimeRange string `json:"time_range"`
}

// Root returns the welcome document
// GET /
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to GitPeek API",
		"version": Version,
	})
}

// HealthCheck returns health status
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GetPublicActivity returns the public activity of a user
// POST /api/public/activity
func (h *Handler) GetPublicActivity(c *gin.Context) {
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.NewBadRequestError("invalid request body"))
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		h.respondError(c, apperrors.NewBadRequestError("username is required"))
		return
	}

	timeRange, err := parseTimeRange(req.TimeRange)
	if err != nil {
		h.respondError(c, err)
		return
	}

	activity, err := h.activity.GetUserActivity(c.Request.Context(), username, timeRange, domain.Credential{})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// SearchUser returns the public activity of a user
// GET /api/public/search/:username?time_range=
func (h *Handler) SearchUser(c *gin.Context) {
	timeRange, err := parseTimeRange(c.Query("time_range"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	activity, err := h.activity.GetUserActivity(c.Request.Context(), c.Param("username"), timeRange, domain.Credential{})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// GetUserInfo returns the public profile of a user
// GET /api/public/user/:username
func (h *Handler) GetUserInfo(c *gin.Context) {
	profile, err := h.activity.GetUserInfo(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Login returns the GitHub authorization URL
// GET /api/auth/login?redirect_uri=
func (h *Handler) Login(c *gin.Context) {
	authURL, state, err := h.oauth.AuthCodeURL(c.Query("redirect_uri"))
	if err != nil {
		h.respondError(c, oauthError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auth_url": authURL,
		"state":    state,
	})
}

// Callback exchanges the authorization code and opens a session
// GET /api/auth/callback?code=
func (h *Handler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		h.respondError(c, apperrors.NewBadRequestError("code is required"))
		return
	}

	ctx := c.Request.Context()
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.respondError(c, oauthError(err))
		return
	}

	profile, err := h.activity.GetAuthenticatedUser(ctx, domain.Credential{Token: token})
	if err != nil {
		h.respondError(c, err)
		return
	}

	session, err := h.sessions.Create(ctx, token, profile.Login, profile.AvatarURL)
	if err != nil {
		h.respondError(c, apperrors.NewInternalError("failed to create session", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"username":   session.Login,
		"avatar_url": session.AvatarURL,
	})
}

// GetAuthenticatedActivity returns activity as seen by the session's credential
// POST /api/auth/activity
func (h *Handler) GetAuthenticatedActivity(c *gin.Context) {
	session := currentSession(c)

	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.NewBadRequestError("invalid request body"))
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = session.Login
	}

	timeRange, err := parseTimeRange(req.TimeRange)
	if err != nil {
		h.respondError(c, err)
		return
	}

	activity, err := h.activity.GetUserActivity(c.Request.Context(), username, timeRange, credentialOf(session))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// Logout deletes the current session
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	session := currentSession(c)

	if err := h.sessions.Delete(c.Request.Context(), session.ID); err != nil {
		h.respondError(c, apperrors.NewInternalError("failed to logout", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me returns the profile of the authenticated user
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	profile, err := h.activity.GetAuthenticatedUser(c.Request.Context(), credentialOf(currentSession(c)))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// RequireSession resolves the bearer session id and aborts with 401 when it
// is missing, unknown or expired
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		id, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(id) == "" {
			h.respondError(c, apperrors.NewUnauthorizedError("missing or invalid authorization header"))
			c.Abort()
			return
		}

		session, err := h.sessions.Get(c.Request.Context(), strings.TrimSpace(id))
		if err != nil {
			h.respondError(c, apperrors.NewInternalError("failed to load session", err))
			c.Abort()
			return
		}
		if session == nil {
			h.respondError(c, apperrors.NewUnauthorizedError("invalid or expired session"))
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func currentSession(c *gin.Context) *domain.Session {
	return c.MustGet(sessionKey).(*domain.Session)
}

func credentialOf(s *domain.Session) domain.Credential {
	return domain.Credential{Token: s.Token, Login: s.Login}
}

func parseTimeRange(s string) (domain.TimeRange, error) {
	tr, err := domain.ParseTimeRange(s)
	if err != nil {
		return "", apperrors.NewBadRequestError(err.Error())
	}
	return tr, nil
}

func oauthError(err error) error {
	if errors.Is(err, auth.ErrNotConfigured) {
		return apperrors.NewInternalError("GitHub OAuth not configured. Set GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET.", nil)
	}
	return &apperrors.AppError{
		Code:    apperrors.ErrCodeBadRequest,
		Message: "failed to exchange code for token",
		Err:     err,
	}
}

// statusOf maps an error code to its HTTP status
func statusOf(code apperrors.ErrCode) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeUpstream:
		return http.StatusBadGateway
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("internal server error", err)
	}

	status := statusOf(appErr.Code)
	message := appErr.Message
	if appErr.Err != nil {
		message = message + ": " + appErr.Err.Error()
	}
	if h.env == "prod" {
		switch appErr.Code {
		case apperrors.ErrCodeUpstream, apperrors.ErrCodeRateLimited:
			message = "An error occurred while communicating with GitHub"
		case apperrors.ErrCodeInternal:
			message = "Internal server error"
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"request_id", c.GetString(requestIDKey), "path", c.FullPath(), "status", status, "error", err)
	}

	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": message,
		},
	})
}
