package slots

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"fieldservice-backend/internal/oracle"
)

// Scheduler computes bookable slots for a new appointment. It is safe for
// concurrent use; each call works on its own snapshot of the inputs.
type Scheduler struct {
	opts      Options
	evaluator *evaluator
	logger    *zap.Logger

	inflight atomic.Int32

	mu      sync.Mutex
	seq     uint64
	running map[string]*runHandle
}

type runHandle struct {
	id     uint64
	cancel context.CancelFunc
}

// New creates a Scheduler around an injected Oracle.
func New(o oracle.Oracle, opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("slots")
	return &Scheduler{
		opts:      opts,
		evaluator: &evaluator{oracle: o, opts: opts, logger: logger},
		logger:    logger,
		running:   make(map[string]*runHandle),
	}
}

// Options returns the business rules the scheduler was built with.
func (s *Scheduler) Options() Options {
	return s.opts
}

// Busy reports whether any computation is in progress.
func (s *Scheduler) Busy() bool {
	return s.inflight.Load() > 0
}

// ComputeAvailableSlots returns the bookable slots for req, earliest first,
// with at most one slot recommended. Oracle failures never fail the call;
// only an empty address or a cancelled ctx does.
func (s *Scheduler) ComputeAvailableSlots(ctx context.Context, req Request) ([]CandidateSlot, error) {
	if strings.TrimSpace(req.NewAddress) == "" {
		return nil, ErrEmptyAddress
	}

	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	started := time.Now()
	appts := normalize(req.Appointments, s.opts.InspectionMinutes)
	candidates := FilterConflicts(Grid(s.opts), appts, s.opts.InspectionMinutes)

	if len(appts) == 0 {
		recommendAt(candidates, s.opts.DefaultSlot)
		s.logger.Info("computed available slots",
			zap.String("date", dateLabel(req.Date)),
			zap.Int("appointments", 0),
			zap.Int("slots", len(candidates)),
			zap.Int64("oracle_calls", 0),
			zap.Duration("elapsed", time.Since(started)))
		return candidates, nil
	}

	accepted, stats, err := s.evaluator.evaluate(ctx, candidates, appts, req)
	if err != nil {
		s.logger.Info("slot computation cancelled",
			zap.String("date", dateLabel(req.Date)),
			zap.Int64("oracle_calls", stats.calls),
			zap.Error(err))
		return nil, err
	}

	sort.SliceStable(accepted, func(i, j int) bool { return accepted[i].Time < accepted[j].Time })
	Recommend(accepted)

	s.logger.Info("computed available slots",
		zap.String("date", dateLabel(req.Date)),
		zap.Int("appointments", len(appts)),
		zap.Int("candidates", len(candidates)),
		zap.Int("slots", len(accepted)),
		zap.Int64("oracle_calls", stats.calls),
		zap.Int64("oracle_failures", stats.failures),
		zap.Int("rejected_by_travel", stats.rejected),
		zap.Duration("elapsed", time.Since(started)))
	return accepted, nil
}

// ComputeLatest behaves like ComputeAvailableSlots but cancels any earlier
// computation still running under the same key, e.g. when the address being
// typed changes. The cancelled call returns ErrSuperseded. An empty key
// disables supersession.
func (s *Scheduler) ComputeLatest(ctx context.Context, key string, req Request) ([]CandidateSlot, error) {
	if key == "" {
		return s.ComputeAvailableSlots(ctx, req)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if prev, ok := s.running[key]; ok {
		prev.cancel()
	}
	s.seq++
	handle := &runHandle{id: s.seq, cancel: cancel}
	s.running[key] = handle
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if cur, ok := s.running[key]; ok && cur.id == handle.id {
			delete(s.running, key)
		}
		s.mu.Unlock()
	}()

	result, err := s.ComputeAvailableSlots(runCtx, req)
	// a newer run may have cancelled this one after evaluation finished
	if ctx.Err() == nil && runCtx.Err() != nil {
		return nil, ErrSuperseded
	}
	return result, err
}

// normalize copies appts, repairs missing end times and sorts by start.
func normalize(appts []Appointment, duration int) []Appointment {
	out := make([]Appointment, len(appts))
	copy(out, appts)
	for i := range out {
		if out[i].End <= out[i].Start {
			out[i].End = out[i].Start.Add(duration)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func dateLabel(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}
