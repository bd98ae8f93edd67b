package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecodepin/ecodepin-api/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
	log     *zap.Logger
}

func NewCatalogHandler(c *catalog.Catalog, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, log: log}
}

type CalculatorRequest struct {
	PlanID string  `json:"plan_id" binding:"required"`
	Amount float64 `json:"amount"`
}

func (h *CatalogHandler) ListSegments(c *gin.Context) {
	respond(c, http.StatusOK, "Segments retrieved", h.catalog.ListSegments())
}

func (h *CatalogHandler) GetSegment(c *gin.Context) {
	segment, err := h.catalog.GetSegment(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Segment retrieved", segment)
}

func (h *CatalogHandler) ListPlans(c *gin.Context) {
	respond(c, http.StatusOK, "Plans retrieved", h.catalog.ListPlans(c.Query("segment_id")))
}

func (h *CatalogHandler) GetPlan(c *gin.Context) {
	plan, err := h.catalog.GetPlan(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Plan retrieved", plan)
}

func (h *CatalogHandler) Calculate(c *gin.Context) {
	var req CalculatorRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	projection, err := h.catalog.CalculateReturns(req.PlanID, req.Amount)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Returns calculated", projection)
}
