package slots

import (
	"errors"
	"time"
)

var (
	// ErrEmptyAddress rejects a request before any travel lookup is made.
	ErrEmptyAddress = errors.New("new appointment address is required")
	// ErrSuperseded is returned by ComputeLatest when a newer request under
	// the same key cancelled this one.
	ErrSuperseded = errors.New("scheduling request superseded by a newer one")
)

// Appointment is an existing fixed-duration booking on the same day for the
// same technician.
type Appointment struct {
	ID         string `json:"id"`
	ClientName string `json:"clientName"`
	Address    string `json:"address"`
	Suburb     string `json:"suburb"`
	Start      Clock  `json:"startTime"`
	End        Clock  `json:"endTime"`
}

// TravelContext explains which prior appointment a slot was checked against.
type TravelContext struct {
	PreviousClientName string `json:"previousClientName"`
	PreviousSuburb     string `json:"previousSuburb"`
	TravelMinutes      int    `json:"travelMinutes"`
}

// CandidateSlot is one bookable start time.
type CandidateSlot struct {
	Time        Clock          `json:"time"`
	Label       string         `json:"label"`
	Travel      *TravelContext `json:"travelContext,omitempty"`
	Recommended bool           `json:"isRecommended"`
}

// Request is the input of one scheduling computation. Appointments need not
// be sorted. Date is used for labelling and, when departures are tied to
// appointment end times, to build the departure instant.
type Request struct {
	NewAddress   string
	Appointments []Appointment
	Date         time.Time
}
