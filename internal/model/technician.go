package model

import "time"

// Technician is a field inspector whose day is scheduled.
type Technician struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"size:128;not null" json:"name"`
	// HomeBase is display-only. Slot computation never travels from it: a
	// slot with no earlier appointment that day is unconstrained.
	HomeBase  string    `gorm:"size:256" json:"homeBase"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Appointments []Appointment `gorm:"foreignKey:TechnicianID" json:"-"`
}
