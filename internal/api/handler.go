package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"fieldservice-backend/internal/mw"
	"fieldservice-backend/internal/slots"
	"fieldservice-backend/internal/store"
)

// Notifier queues a push notification for a newly booked appointment.
type Notifier interface {
	Dispatch(appointmentID string) bool
}

// Deps are the collaborators the HTTP API is built from. Notifier and
// WebPush may be nil when push is not configured.
type Deps struct {
	Store     store.Store
	Scheduler *slots.Scheduler
	Notifier  Notifier
	WebPush   *webpush.Options
	Location  *time.Location
	Logger    *zap.Logger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	scheduler *slots.Scheduler
	notifier  Notifier
	webpush   *webpush.Options
	loc       *time.Location
	logger    *zap.Logger
	cache     *cache.Cache
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:     deps.Store,
		scheduler: deps.Scheduler,
		notifier:  deps.Notifier,
		webpush:   deps.WebPush,
		loc:       loc,
		logger:    logger.Named("api"),
	}
}

// parseDate reads a "2006-01-02" day in the scheduler's timezone.
func (h *Handler) parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(store.DateLayout, raw, h.loc)
}

// log returns the request-scoped logger set by mw.Logger.
func (h *Handler) log(c *gin.Context) *zap.Logger {
	return mw.From(c, h.logger)
}
