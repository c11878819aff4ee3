package oracle

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoRoute means the provider answered but found no drivable route.
	ErrNoRoute = errors.New("no route between addresses")
	// ErrEmptyAddress is returned before any request is made.
	ErrEmptyAddress = errors.New("origin and destination are required")
)

// Request is one origin/destination/departure triple. A zero DepartureTime
// means "now".
type Request struct {
	Origin        string
	Destination   string
	DepartureTime time.Time
}

// TravelTimeResult is the provider's answer for one Request.
type TravelTimeResult struct {
	DistanceKm               float64 `json:"distanceKm"`
	DurationMinutes          int     `json:"durationMinutes"`
	DurationInTrafficMinutes *int    `json:"durationInTrafficMinutes"`
	OriginAddress            string  `json:"originAddress"`
	DestinationAddress       string  `json:"destinationAddress"`
}

// TravelMinutes prefers the traffic-adjusted estimate and falls back to the
// free-flow one.
func (r TravelTimeResult) TravelMinutes() int {
	if r.DurationInTrafficMinutes != nil {
		return *r.DurationInTrafficMinutes
	}
	return r.DurationMinutes
}

// Oracle estimates driving time between two free-text addresses.
// Implementations must be safe for concurrent use.
type Oracle interface {
	TravelTime(ctx context.Context, req Request) (TravelTimeResult, error)
}

// Throttled is an Oracle that queues calls on a local rate limiter. Wait
// admits one call and Lookup performs it without queueing again, so a caller
// can bound the provider round trip with a deadline that excludes time spent
// in its own queue.
type Throttled interface {
	Oracle
	Wait(ctx context.Context) error
	Lookup(ctx context.Context, req Request) (TravelTimeResult, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, req Request) (TravelTimeResult, error)

// TravelTime calls f.
func (f Func) TravelTime(ctx context.Context, req Request) (TravelTimeResult, error) {
	return f(ctx, req)
}
