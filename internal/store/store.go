package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/slots"
)

// Store defines the booking data the service reads and writes.
type Store interface {
	ListTechnicians(ctx context.Context) ([]model.Technician, error)
	GetTechnician(ctx context.Context, id string) (model.Technician, error)
	CreateTechnician(ctx context.Context, tech *model.Technician) error
	AppointmentsForDay(ctx context.Context, technicianID, date string) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	BookAppointment(ctx context.Context, appt *model.Appointment) error
	SubscriptionsForTechnician(ctx context.Context, technicianID string) ([]model.PushSubscription, error)
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	SaveSubscription(ctx context.Context, sub *model.PushSubscription, technicianIDs []string) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ListTechnicians(ctx context.Context) ([]model.Technician, error) {
	var techs []model.Technician
	if err := s.db.WithContext(ctx).Order("name").Find(&techs).Error; err != nil {
		return nil, fmt.Errorf("failed to list technicians: %w", err)
	}
	return techs, nil
}

func (s *gormStore) GetTechnician(ctx context.Context, id string) (model.Technician, error) {
	var tech model.Technician
	err := s.db.WithContext(ctx).First(&tech, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Technician{}, ErrNotFound
	}
	if err != nil {
		return model.Technician{}, fmt.Errorf("failed to fetch technician %s: %w", id, err)
	}
	return tech, nil
}

func (s *gormStore) CreateTechnician(ctx context.Context, tech *model.Technician) error {
	if tech.ID == "" {
		tech.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(tech).Error; err != nil {
		return fmt.Errorf("failed to create technician: %w", err)
	}
	return nil
}

// AppointmentsForDay returns a technician's bookings on date, earliest first.
func (s *gormStore) AppointmentsForDay(ctx context.Context, technicianID, date string) ([]model.Appointment, error) {
	return appointmentsForDay(s.db.WithContext(ctx), technicianID, date)
}

func appointmentsForDay(tx *gorm.DB, technicianID, date string) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := tx.Where("technician_id = ? AND date = ?", technicianID, date).
		Order("start_time").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments for %s on %s: %w", technicianID, date, err)
	}
	return appts, nil
}

func (s *gormStore) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	var appt model.Appointment
	err := s.db.WithContext(ctx).First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Appointment{}, ErrNotFound
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("failed to fetch appointment %s: %w", id, err)
	}
	return appt, nil
}

// BookAppointment inserts appt unless it overlaps another booking of the
// same technician on the same day, in which case ErrSlotTaken is returned.
func (s *gormStore) BookAppointment(ctx context.Context, appt *model.Appointment) error {
	candidate, err := ToSlotAppointment(*appt)
	if err != nil {
		return err
	}
	if candidate.End <= candidate.Start {
		return fmt.Errorf("appointment must end after it starts")
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := appointmentsForDay(tx, appt.TechnicianID, appt.Date)
		if err != nil {
			return err
		}
		existing, err := ToSlotAppointments(rows)
		if err != nil {
			return err
		}
		if slots.Conflicts(candidate.Start, int(candidate.End-candidate.Start), existing) {
			return ErrSlotTaken
		}
		if err := tx.Create(appt).Error; err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
}

// SubscriptionsForTechnician returns the push subscriptions following a
// technician.
func (s *gormStore) SubscriptionsForTechnician(ctx context.Context, technicianID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_technician_mapping stm ON stm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("stm.technician_id = ?", technicianID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for technician %s: %w", technicianID, err)
	}
	return subs, nil
}

// GetSubscription loads a subscription with the technicians it follows.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Technicians").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PushSubscription{}, ErrNotFound
	}
	if err != nil {
		return model.PushSubscription{}, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return sub, nil
}

// SaveSubscription creates or replaces sub and sets the technicians it
// follows to exactly technicianIDs.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription, technicianIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(sub).Error; err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}

		var techs []*model.Technician
		if len(technicianIDs) > 0 {
			if err := tx.Where("id IN ?", technicianIDs).Find(&techs).Error; err != nil {
				return fmt.Errorf("failed to fetch technicians: %w", err)
			}
		}

		if err := tx.Model(sub).Association("Technicians").Replace(techs); err != nil {
			return fmt.Errorf("failed to update subscribed technicians: %w", err)
		}
		return nil
	})
}

// DeleteSubscription removes a subscription and its technician mappings.
// Deleting an unknown endpoint is not an error.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Technicians").Clear(); err != nil {
			return fmt.Errorf("failed to clear subscription mappings: %w", err)
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}
