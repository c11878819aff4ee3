package slots

// Overlaps reports whether the half-open intervals [a, b) and [c, d)
// intersect. Touching endpoints do not overlap.
func Overlaps(a, b, c, d Clock) bool {
	return a < d && b > c
}

// Conflicts reports whether an inspection starting at start collides with
// any of appts.
func Conflicts(start Clock, duration int, appts []Appointment) bool {
	end := start.Add(duration)
	for _, appt := range appts {
		if Overlaps(start, end, appt.Start, appt.End) {
			return true
		}
	}
	return false
}

// FilterConflicts keeps the slots whose inspection window is clear of every
// existing appointment. The input order is preserved.
func FilterConflicts(grid []CandidateSlot, appts []Appointment, duration int) []CandidateSlot {
	free := make([]CandidateSlot, 0, len(grid))
	for _, slot := range grid {
		if !Conflicts(slot.Time, duration, appts) {
			free = append(free, slot)
		}
	}
	return free
}
