package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/slots"
	"fieldservice-backend/internal/store"
)

type bookAppointmentRequest struct {
	ClientName string `json:"clientName" binding:"required"`
	Address    string `json:"address" binding:"required"`
	Suburb     string `json:"suburb"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"startTime" binding:"required"`
	EndTime    string `json:"endTime"`
}

// ListAppointments handles GET /api/technicians/:id/appointments?date=.
func (h *Handler) ListAppointments(c *gin.Context) {
	techID := c.Param("id")
	date := c.Query("date")
	if _, err := h.parseDate(date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetTechnician(ctx, techID); err != nil {
		h.storeError(c, err, "technician not found")
		return
	}
	appts, err := h.store.AppointmentsForDay(ctx, techID, date)
	if err != nil {
		h.storeError(c, err, "")
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	c.JSON(http.StatusOK, appts)
}

// BookAppointment handles POST /api/technicians/:id/appointments. The end
// time defaults to start plus the inspection duration.
func (h *Handler) BookAppointment(c *gin.Context) {
	var req bookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if _, err := h.parseDate(req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	start, err := slots.ParseClock(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end := start.Add(h.scheduler.Options().InspectionMinutes)
	if req.EndTime != "" {
		if end, err = slots.ParseClock(req.EndTime); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if end <= start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endTime must be after startTime"})
		return
	}

	ctx := c.Request.Context()
	techID := c.Param("id")
	if _, err := h.store.GetTechnician(ctx, techID); err != nil {
		h.storeError(c, err, "technician not found")
		return
	}

	appt := model.Appointment{
		TechnicianID: techID,
		Date:         req.Date,
		StartTime:    start.String(),
		EndTime:      end.String(),
		ClientName:   strings.TrimSpace(req.ClientName),
		Address:      strings.TrimSpace(req.Address),
		Suburb:       strings.TrimSpace(req.Suburb),
	}
	if err := h.store.BookAppointment(ctx, &appt); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.storeError(c, err, "")
		return
	}

	h.log(c).Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("technician_id", techID),
		zap.String("date", appt.Date),
		zap.String("start", appt.StartTime))
	if h.notifier != nil {
		h.notifier.Dispatch(appt.ID)
	}

	c.JSON(http.StatusCreated, appt)
}
