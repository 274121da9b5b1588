package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/htmlhost/htmlhost/internal/config"
	"github.com/htmlhost/htmlhost/internal/sessions"
	"github.com/htmlhost/htmlhost/internal/users"
	"github.com/htmlhost/htmlhost/pkg/logger"
	"github.com/htmlhost/htmlhost/pkg/middleware"
)

// LoginRequest is the body of POST /auth/login (JSON or form).
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg gin.IRouter) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)
	a.GET("/me", middleware.SessionMiddleware(h.sessionsSvc), h.Me)
}

// Login checks the credentials, issues a session token and sets it as the
// session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "INVALID_INPUT", "username and password are required")
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			logger.Warnf("login failed for %q from %s", req.Username, c.ClientIP())
			middleware.AbortWithError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
			return
		}
		logger.Errorf("login: user lookup failed: %v", err)
		middleware.AbortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	tok, sess, err := h.sessionsSvc.Issue(c.Request.Context(), u.Username)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		middleware.AbortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create session")
		return
	}
	h.setSessionCookie(c, tok, int(time.Until(sess.ExpiresAt).Seconds()))
	c.JSON(http.StatusOK, gin.H{"token": tok, "username": sess.Username, "expiresAt": sess.ExpiresAt})
}

// Logout revokes the presented session (if any) and clears the cookie. It
// always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	if raw := middleware.TokenFromRequest(c); raw != "" {
		if err := h.sessionsSvc.Revoke(c.Request.Context(), raw); err != nil {
			logger.Warnf("logout: revoke failed: %v", err)
		}
	}
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the user of the current session.
func (h *AuthHandler) Me(c *gin.Context) {
	v, _ := c.Get(middleware.ContextKeySession)
	sess, _ := v.(*sessions.Session)
	if sess == nil {
		middleware.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": sess.Username, "expiresAt": sess.ExpiresAt})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.cfg.Server.IsProduction(), true)
}
