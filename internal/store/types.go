package store

import (
	"errors"
	"fmt"

	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/slots"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrSlotTaken = errors.New("slot overlaps an existing appointment")
)

// DateLayout is the storage format of Appointment.Date.
const DateLayout = "2006-01-02"

// ToSlotAppointments converts stored rows into scheduler input.
func ToSlotAppointments(rows []model.Appointment) ([]slots.Appointment, error) {
	out := make([]slots.Appointment, 0, len(rows))
	for _, row := range rows {
		appt, err := ToSlotAppointment(row)
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	return out, nil
}

// ToSlotAppointment converts one stored row.
func ToSlotAppointment(row model.Appointment) (slots.Appointment, error) {
	start, err := slots.ParseClock(row.StartTime)
	if err != nil {
		return slots.Appointment{}, fmt.Errorf("appointment %s start: %w", row.ID, err)
	}
	var end slots.Clock
	if row.EndTime != "" {
		if end, err = slots.ParseClock(row.EndTime); err != nil {
			return slots.Appointment{}, fmt.Errorf("appointment %s end: %w", row.ID, err)
		}
	}
	return slots.Appointment{
		ID:         row.ID,
		ClientName: row.ClientName,
		Address:    row.Address,
		Suburb:     row.Suburb,
		Start:      start,
		End:        end,
	}, nil
}
