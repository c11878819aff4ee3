package slots

// Recommend flags the first slot and clears every other flag. slots must be
// sorted by time.
func Recommend(slots []CandidateSlot) {
	for i := range slots {
		slots[i].Recommended = i == 0
	}
}

// recommendAt flags the slot starting at t, falling back to the earliest
// slot when t is not on the grid.
func recommendAt(slots []CandidateSlot, t Clock) {
	for i := range slots {
		if slots[i].Time == t {
			for j := range slots {
				slots[j].Recommended = j == i
			}
			return
		}
	}
	Recommend(slots)
}
