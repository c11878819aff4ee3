package slots

import (
	"fmt"
	"time"

	"fieldservice-backend/config"
)

// Options are the business rules the scheduler works with.
type Options struct {
	StartHour         int
	EndHour           int
	IntervalMinutes   int
	InspectionMinutes int
	DefaultSlot       Clock
	ClipToClose       bool

	// DepartFromAppointmentEnd sends the prior appointment's end instant as
	// the departure time instead of "now".
	DepartFromAppointmentEnd bool
	Concurrency              int
	OracleTimeout            time.Duration
}

// DefaultOptions mirrors the default scheduler configuration.
func DefaultOptions() Options {
	return Options{
		StartHour:         7,
		EndHour:           18,
		IntervalMinutes:   30,
		InspectionMinutes: 60,
		DefaultSlot:       At(9, 0),
		Concurrency:       4,
		OracleTimeout:     5 * time.Second,
	}
}

// OptionsFromConfig converts the loaded scheduler configuration.
func OptionsFromConfig(cfg config.SchedulerConfig) (Options, error) {
	def, err := ParseClock(cfg.DefaultSlot)
	if err != nil {
		return Options{}, fmt.Errorf("scheduler.default_slot: %w", err)
	}
	return Options{
		StartHour:                cfg.StartHour,
		EndHour:                  cfg.EndHour,
		IntervalMinutes:          cfg.IntervalMinutes,
		InspectionMinutes:        cfg.InspectionMinutes,
		DefaultSlot:              def,
		ClipToClose:              cfg.ClipToClose,
		DepartFromAppointmentEnd: cfg.DepartureMode == config.DepartureAppointmentEnd,
		Concurrency:              cfg.OracleConcurrency,
		OracleTimeout:            cfg.OracleTimeout,
	}, nil
}
