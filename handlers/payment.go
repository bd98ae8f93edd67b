package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecodepin/ecodepin-api/apperrors"
	"github.com/ecodepin/ecodepin-api/middleware"
	"github.com/ecodepin/ecodepin-api/services"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	payments *services.PaymentService
	log      *zap.Logger
}

func NewPaymentHandler(payments *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

type CheckoutRequest struct {
	PlanID    string  `json:"plan_id" binding:"required"`
	Amount    float64 `json:"amount"`
	OriginURL string  `json:"origin_url"`
}

func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	user, _ := middleware.CurrentUser(c)

	session, err := h.payments.CreateCheckoutSession(c.Request.Context(), user.ID, req.PlanID, req.Amount, req.OriginURL)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Checkout session created", session)
}

func (h *PaymentHandler) Status(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	status, err := h.payments.GetPaymentStatus(c.Request.Context(), user.ID, c.Param("sessionId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Payment status retrieved", status)
}

func (h *PaymentHandler) History(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	payments, err := h.payments.GetPaymentHistory(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Payment history retrieved", payments)
}

// StripeWebhook acknowledges provider callbacks. Signatures are not verified,
// so the payload is only logged.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.log.Warn("stripe webhook without signature header")
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, h.log, apperrors.InvalidInput("Invalid webhook payload"))
		return
	}

	h.payments.RecordWebhook(payload, signature)
	respond(c, http.StatusOK, "Webhook processed", gin.H{"received": true})
}
