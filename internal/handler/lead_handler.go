package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadscan/internal/port"
	"leadscan/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type LeadHandler struct {
	leads   port.LeadRepository
	scanSvc service.ScanService
}

func NewLeadHandler(leads port.LeadRepository, scanSvc service.ScanService) *LeadHandler {
	return &LeadHandler{leads: leads, scanSvc: scanSvc}
}

// List handles GET /api/v1/leads with limit/offset pagination.
func (h *LeadHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	leads, err := h.leads.List(c.Request.Context(), limit, offset)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"leads": leads, "limit": limit, "offset": offset})
}

// Get handles GET /api/v1/leads/:id.
func (h *LeadHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid lead id")
		return
	}

	lead, err := h.leads.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, lead)
}

// Rescan handles POST /api/v1/leads/:id/rescan. Re-runs extraction on
// the lead's stored images and reports drift against the stored details.
func (h *LeadHandler) Rescan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid lead id")
		return
	}

	report, err := h.scanSvc.RescanLead(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, report)
}
