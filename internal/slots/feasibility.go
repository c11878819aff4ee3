package slots

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"fieldservice-backend/internal/oracle"
)

// travelOutcome is the result of one Oracle lookup.
type travelOutcome struct {
	minutes int
	err     error
}

// evalStats summarises one evaluation for the request log line.
type evalStats struct {
	calls    int64
	failures int64
	rejected int
}

// evaluator drops slots that cannot be reached in time from the technician's
// earlier appointments.
type evaluator struct {
	oracle oracle.Oracle
	opts   Options
	logger *zap.Logger
}

// evaluate checks every (slot, earlier appointment) pair. appts must be
// sorted by start time. A failed lookup never rejects a slot; it only means
// no travel constraint was demonstrated for that pair.
func (e *evaluator) evaluate(ctx context.Context, candidates []CandidateSlot, appts []Appointment, req Request) ([]CandidateSlot, evalStats, error) {
	var stats evalStats

	// prior[i] lists the appointments that end at or before slot i starts.
	prior := make([][]int, len(candidates))
	outcomes := make([][]travelOutcome, len(candidates))
	var jobs []travelJob
	for i, slot := range candidates {
		for j, appt := range appts {
			if appt.End <= slot.Time {
				prior[i] = append(prior[i], j)
				jobs = append(jobs, travelJob{slot: i, appt: j})
			}
		}
		if len(prior[i]) > 0 {
			outcomes[i] = make([]travelOutcome, len(appts))
		}
	}

	if len(jobs) > 0 {
		var calls, failures atomic.Int64
		pool := newWorkerPool(e.opts.Concurrency, func(ctx context.Context, job travelJob) {
			calls.Add(1)
			out := e.lookup(ctx, candidates[job.slot], appts[job.appt], req)
			if out.err != nil {
				failures.Add(1)
			}
			// each job owns its own cell
			outcomes[job.slot][job.appt] = out
		})
		pool.Start(ctx)
		for _, job := range jobs {
			if !pool.Dispatch(ctx, job) {
				break
			}
		}
		pool.Wait()

		stats.calls, stats.failures = calls.Load(), failures.Load()
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
	}

	accepted := make([]CandidateSlot, 0, len(candidates))
	for i, slot := range candidates {
		if len(prior[i]) == 0 {
			accepted = append(accepted, slot)
			continue
		}

		reachable := true
		latest := prior[i][0]
		for _, j := range prior[i] {
			if appts[j].End >= appts[latest].End {
				latest = j
			}
			out := outcomes[i][j]
			if out.err != nil {
				continue
			}
			if slot.Time < appts[j].End.Add(out.minutes) {
				reachable = false
				break
			}
		}
		if !reachable {
			stats.rejected++
			continue
		}

		if out := outcomes[i][latest]; out.err == nil {
			slot.Travel = &TravelContext{
				PreviousClientName: appts[latest].ClientName,
				PreviousSuburb:     appts[latest].Suburb,
				TravelMinutes:      out.minutes,
			}
		}
		accepted = append(accepted, slot)
	}
	return accepted, stats, nil
}

// call runs one Oracle request bounded by OracleTimeout. Time spent queued on
// a throttled Oracle's own limiter is waited out under ctx and does not count
// against the timeout; only the request itself does.
func (e *evaluator) call(ctx context.Context, q oracle.Request) (oracle.TravelTimeResult, error) {
	do := e.oracle.TravelTime
	if throttled, ok := e.oracle.(oracle.Throttled); ok {
		if err := throttled.Wait(ctx); err != nil {
			return oracle.TravelTimeResult{}, err
		}
		do = throttled.Lookup
	}

	if e.opts.OracleTimeout > 0 {
		callCtx, cancel := context.WithTimeout(ctx, e.opts.OracleTimeout)
		defer cancel()
		return do(callCtx, q)
	}
	return do(ctx, q)
}

// lookup performs one bounded Oracle call and logs failures, since they
// silently loosen the feasibility check.
func (e *evaluator) lookup(ctx context.Context, slot CandidateSlot, appt Appointment, req Request) travelOutcome {
	q := oracle.Request{
		Origin:      appt.Address,
		Destination: req.NewAddress,
	}
	if e.opts.DepartFromAppointmentEnd && !req.Date.IsZero() {
		q.DepartureTime = appt.End.On(req.Date)
	}

	start := time.Now()
	result, err := e.call(ctx, q)
	if err == nil && result.TravelMinutes() < 0 {
		err = fmt.Errorf("negative travel time %d", result.TravelMinutes())
	}
	if err != nil {
		// a caller that walked away does not need a warning per pair
		if ctx.Err() == nil {
			e.logger.Warn("oracle call failed; travel check skipped",
				zap.String("slot", slot.Time.String()),
				zap.String("previous_appointment", appt.ID),
				zap.String("origin", appt.Address),
				zap.String("destination", req.NewAddress),
				zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
		}
		return travelOutcome{err: err}
	}

	e.logger.Debug("oracle travel time",
		zap.String("slot", slot.Time.String()),
		zap.String("previous_appointment", appt.ID),
		zap.Int("travel_minutes", result.TravelMinutes()),
		zap.Float64("distance_km", result.DistanceKm))
	return travelOutcome{minutes: result.TravelMinutes()}
}
