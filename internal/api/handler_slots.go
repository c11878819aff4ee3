package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldservice-backend/internal/slots"
	"fieldservice-backend/internal/store"
)

type slotsRequest struct {
	Address      string `json:"address"`
	TechnicianID string `json:"technicianId" binding:"required"`
	Date         string `json:"date" binding:"required"`
	SessionID    string `json:"sessionId"`
}

type previewRequest struct {
	Address      string              `json:"address"`
	Date         string              `json:"date" binding:"required"`
	SessionID    string              `json:"sessionId"`
	Appointments []slots.Appointment `json:"appointments"`
}

type slotsResponse struct {
	Date         string                `json:"date"`
	TechnicianID string                `json:"technicianId,omitempty"`
	Slots        []slots.CandidateSlot `json:"slots"`
}

// ComputeSlots handles POST /api/slots for a stored technician calendar.
func (h *Handler) ComputeSlots(c *gin.Context) {
	var req slotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": slots.ErrEmptyAddress.Error()})
		return
	}
	date, err := h.parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetTechnician(ctx, req.TechnicianID); err != nil {
		h.storeError(c, err, "technician not found")
		return
	}
	rows, err := h.store.AppointmentsForDay(ctx, req.TechnicianID, req.Date)
	if err != nil {
		h.storeError(c, err, "")
		return
	}
	appts, err := store.ToSlotAppointments(rows)
	if err != nil {
		h.log(c).Error("stored appointment is malformed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored appointment is malformed"})
		return
	}

	result, err := h.scheduler.ComputeLatest(ctx, sessionKey(req.SessionID, req.TechnicianID), slots.Request{
		NewAddress:   req.Address,
		Appointments: appts,
		Date:         date,
	})
	if err != nil {
		h.slotsError(c, err)
		return
	}

	c.JSON(http.StatusOK, slotsResponse{Date: req.Date, TechnicianID: req.TechnicianID, Slots: nonNil(result)})
}

// PreviewSlots handles POST /api/slots/preview over caller-supplied
// appointments. Nothing is read from or written to the store.
func (h *Handler) PreviewSlots(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	date, err := h.parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	result, err := h.scheduler.ComputeLatest(c.Request.Context(), sessionKey(req.SessionID, "preview"), slots.Request{
		NewAddress:   req.Address,
		Appointments: req.Appointments,
		Date:         date,
	})
	if err != nil {
		h.slotsError(c, err)
		return
	}

	c.JSON(http.StatusOK, slotsResponse{Date: req.Date, Slots: nonNil(result)})
}

// sessionKey scopes supersession to one caller session and calendar. An
// empty session disables it.
func sessionKey(sessionID, scope string) string {
	if sessionID == "" {
		return ""
	}
	return sessionID + "/" + scope
}

func nonNil(s []slots.CandidateSlot) []slots.CandidateSlot {
	if s == nil {
		return []slots.CandidateSlot{}
	}
	return s
}

func (h *Handler) slotsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, slots.ErrEmptyAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, slots.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "slot computation cancelled"})
	default:
		h.log(c).Error("slot computation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "slot computation failed"})
	}
}

// storeError answers 404 for store.ErrNotFound, 500 otherwise.
func (h *Handler) storeError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		if notFound == "" {
			notFound = "not found"
		}
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	h.log(c).Error("store failure", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
