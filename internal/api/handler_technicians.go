package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fieldservice-backend/internal/model"
)

const techniciansPath = "/api/technicians"

type createTechnicianRequest struct {
	Name     string `json:"name" binding:"required"`
	HomeBase string `json:"homeBase"`
}

// ListTechnicians handles GET /api/technicians.
func (h *Handler) ListTechnicians(c *gin.Context) {
	techs, err := h.store.ListTechnicians(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "")
		return
	}
	if techs == nil {
		techs = []model.Technician{}
	}
	c.JSON(http.StatusOK, techs)
}

// CreateTechnician handles POST /api/technicians.
func (h *Handler) CreateTechnician(c *gin.Context) {
	var req createTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	tech := model.Technician{Name: strings.TrimSpace(req.Name), HomeBase: req.HomeBase}
	if err := h.store.CreateTechnician(c.Request.Context(), &tech); err != nil {
		h.storeError(c, err, "")
		return
	}
	if h.cache != nil {
		h.cache.Delete(techniciansPath)
	}

	c.JSON(http.StatusCreated, tech)
}
