package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecodepin/ecodepin-api/middleware"
	"github.com/ecodepin/ecodepin-api/services"
)

type AdminHandler struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAdminHandler(auth *services.AuthService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{auth: auth, log: log}
}

func (h *AdminHandler) PurgeSessions(c *gin.Context) {
	deleted, err := h.auth.PurgeExpiredSessions(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	admin, _ := middleware.CurrentUser(c)
	h.log.Info("expired sessions purged", zap.String("admin_id", admin.ID), zap.Int64("deleted", deleted))
	respond(c, http.StatusOK, "Expired sessions purged", gin.H{"deleted": deleted})
}
