package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/slots"
	"fieldservice-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool tells the subscribers of a technician about new bookings.
type WorkerPool struct {
	size    int
	jobs    chan string
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	logger  *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options, logger *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size*16),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger.Named("notification"),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debug("worker started", zap.Int("worker", id))
	for {
		select {
		case appointmentID := <-wp.jobs:
			wp.notifyBooking(ctx, appointmentID)
		case <-ctx.Done():
			wp.logger.Debug("worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a notification for a booked appointment. It never blocks
// the caller; when the queue is full the notification is dropped.
func (wp *WorkerPool) Dispatch(appointmentID string) bool {
	select {
	case wp.jobs <- appointmentID:
		return true
	default:
		wp.logger.Warn("notification queue full, dropping", zap.String("appointment_id", appointmentID))
		return false
	}
}

// Message is the text pushed for a new booking.
func Message(appt model.Appointment) string {
	when := appt.StartTime
	if start, err := slots.ParseClock(appt.StartTime); err == nil {
		when = start.Label()
	}
	where := appt.Suburb
	if where == "" {
		where = appt.Address
	}
	return fmt.Sprintf("New inspection booked: %s, %s at %s on %s", appt.ClientName, where, when, appt.Date)
}

func (wp *WorkerPool) notifyBooking(ctx context.Context, appointmentID string) {
	appt, err := wp.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		wp.logger.Error("failed to load booked appointment",
			zap.String("appointment_id", appointmentID), zap.Error(err))
		return
	}

	subscriptions, err := wp.store.SubscriptionsForTechnician(ctx, appt.TechnicianID)
	if err != nil {
		wp.logger.Error("failed to load subscriptions",
			zap.String("technician_id", appt.TechnicianID), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	wp.logger.Info("sending booking notifications",
		zap.String("appointment_id", appointmentID),
		zap.Int("subscriptions", len(subscriptions)))

	payload := []byte(Message(appt))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.logger.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.logger.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
