package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecodepin/ecodepin-api/middleware"
	"github.com/ecodepin/ecodepin-api/services"
)

type InvestmentHandler struct {
	investments *services.InvestmentService
	log         *zap.Logger
}

func NewInvestmentHandler(investments *services.InvestmentService, log *zap.Logger) *InvestmentHandler {
	return &InvestmentHandler{investments: investments, log: log}
}

type CreateInvestmentRequest struct {
	PlanID               string  `json:"plan_id" binding:"required"`
	Amount               float64 `json:"amount"`
	PaymentTransactionID string  `json:"payment_transaction_id"`
}

func (h *InvestmentHandler) Create(c *gin.Context) {
	var req CreateInvestmentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	user, _ := middleware.CurrentUser(c)

	inv, err := h.investments.CreateInvestment(c.Request.Context(), user.ID, req.PlanID, req.Amount, req.PaymentTransactionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Investment created", inv)
}

func (h *InvestmentHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	investments, err := h.investments.GetUserInvestments(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Investments retrieved", investments)
}

func (h *InvestmentHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	inv, err := h.investments.GetInvestmentByID(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Investment retrieved", inv)
}

func (h *InvestmentHandler) PortfolioStats(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	stats, err := h.investments.GetPortfolioStats(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Portfolio stats retrieved", stats)
}
