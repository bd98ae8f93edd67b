package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecodepin/ecodepin-api/middleware"
	"github.com/ecodepin/ecodepin-api/models"
	"github.com/ecodepin/ecodepin-api/services"
)

type AuthHandler struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type CreateSessionRequest struct {
	SessionID string `json:"session_id"`
}

type SessionResponse struct {
	User         *models.User `json:"user"`
	SessionToken string       `json:"session_token"`
}

func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	res, err := h.auth.CreateSession(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.setSessionCookie(c, res.Token, int(h.auth.SessionTTL().Seconds()))
	respond(c, http.StatusOK, "Login successful", SessionResponse{User: res.User, SessionToken: res.Token})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	respond(c, http.StatusOK, "User retrieved", user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.setSessionCookie(c, "", -1)
	respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", true, true)
}
