package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/papertrading/internal/user/application"
	"github.com/wyfcoding/papertrading/internal/user/domain"
	"github.com/wyfcoding/papertrading/pkg/metrics"
	"github.com/wyfcoding/papertrading/pkg/middleware"
	"github.com/wyfcoding/papertrading/pkg/response"
)

type AuthHandler struct {
	cmd *application.AuthCommandService
	m   *metrics.Metrics
}

func NewAuthHandler(cmd *application.AuthCommandService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{cmd: cmd, m: m}
}

// RegisterPublicRoutes 注册无需登录的路由
func (h *AuthHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	g := r.Group("/v1/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
}

// RegisterProtectedRoutes 注册需要登录的路由
func (h *AuthHandler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/v1/auth/logout", h.Logout)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username     string `json:"username"`
		Password     string `json:"password"`
		Confirmation string `json:"confirmation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.cmd.Register(c.Request.Context(), application.RegisterCommand{
		Username:     req.Username,
		Password:     req.Password,
		Confirmation: req.Confirmation,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUsernameTaken):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error())
		return
	case errors.Is(err, domain.ErrEmptyUsername),
		errors.Is(err, domain.ErrEmptyPassword),
		errors.Is(err, domain.ErrPasswordMismatch):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	if h.m != nil {
		h.m.UsersRegistered.Inc()
	}
	response.Created(c, gin.H{"user_id": id})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	token, exp, err := h.cmd.Login(c.Request.Context(), application.LoginCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.ErrorWithStatus(c, http.StatusUnauthorized, err.Error())
			return
		}
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	if h.m != nil {
		h.m.SessionsActive.Inc()
	}
	response.Success(c, gin.H{"token": token, "type": "Bearer", "expires_at": exp})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, ok := middleware.CurrentSessionID(c)
	if !ok {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.cmd.Logout(c.Request.Context(), sessionID); err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	if h.m != nil {
		h.m.SessionsActive.Dec()
	}
	response.Success(c, gin.H{"logged_out": true})
}
