package model

import "time"

// Appointment is a booked inspection. Date is "2006-01-02", StartTime and
// EndTime are local "15:04".
type Appointment struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	TechnicianID string    `gorm:"size:36;not null;index:idx_appointments_tech_date" json:"technicianId"`
	Date         string    `gorm:"size:10;not null;index:idx_appointments_tech_date" json:"date"`
	StartTime    string    `gorm:"size:5;not null" json:"startTime"`
	EndTime      string    `gorm:"size:5;not null" json:"endTime"`
	ClientName   string    `gorm:"size:256;not null" json:"clientName"`
	Address      string    `gorm:"size:512;not null" json:"address"`
	Suburb       string    `gorm:"size:128" json:"suburb"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Technician Technician `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
