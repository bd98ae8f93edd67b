package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecodepin/ecodepin-api/middleware"
	"github.com/ecodepin/ecodepin-api/services"
)

type WalletHandler struct {
	wallets *services.WalletService
	log     *zap.Logger
}

func NewWalletHandler(wallets *services.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, log: log}
}

type ConnectWalletRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	WalletType    string `json:"wallet_type"`
}

type SwitchChainRequest struct {
	ChainID ChainID `json:"chain_id"`
}

// ChainID accepts a JSON number or a numeric string.
type ChainID int64

func (c *ChainID) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*c = 0
		return nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return err
	}
	*c = ChainID(n)
	return nil
}

func (h *WalletHandler) Supported(c *gin.Context) {
	respond(c, http.StatusOK, "Supported wallets retrieved", h.wallets.Supported())
}

func (h *WalletHandler) Connect(c *gin.Context) {
	var req ConnectWalletRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	user, _ := middleware.CurrentUser(c)

	updated, err := h.wallets.ConnectWallet(c.Request.Context(), user.ID, req.WalletAddress, req.WalletType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Wallet connected successfully", updated)
}

func (h *WalletHandler) Disconnect(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	updated, err := h.wallets.DisconnectWallet(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Wallet disconnected successfully", updated)
}

func (h *WalletHandler) SwitchChain(c *gin.Context) {
	var req SwitchChainRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	user, _ := middleware.CurrentUser(c)

	updated, err := h.wallets.SwitchChain(c.Request.Context(), user.ID, int64(req.ChainID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Chain switched successfully", updated)
}
