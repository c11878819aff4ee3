package slots

// Grid lists every candidate start time in [StartHour, EndHour) at the
// configured interval. Slots whose inspection would run past close are kept
// unless ClipToClose is set.
func Grid(opts Options) []CandidateSlot {
	opening, closing := At(opts.StartHour, 0), At(opts.EndHour, 0)
	if opts.IntervalMinutes <= 0 || opening >= closing {
		return nil
	}

	grid := make([]CandidateSlot, 0, int(closing-opening)/opts.IntervalMinutes+1)
	for t := opening; t < closing; t = t.Add(opts.IntervalMinutes) {
		if opts.ClipToClose && t.Add(opts.InspectionMinutes) > closing {
			break
		}
		grid = append(grid, CandidateSlot{Time: t, Label: t.Label()})
	}
	return grid
}
