package entities

// WindowAvailability is the per-window view of one delivery date.
type WindowAvailability struct {
	Window    string  `json:"window"`
	Capacity  int     `json:"capacity"`
	Reserved  float64 `json:"reserved"`
	Remaining float64 `json:"remaining"`
}

// AvailabilityResponse is the result of the availability derivation for one date.
// A blacked-out date carries an empty window list and a human-readable reason.
type AvailabilityResponse struct {
	Date       string               `json:"date"`
	Windows    []WindowAvailability `json:"windows"`
	IsBlackout bool                 `json:"isBlackout"`
	Reason     string               `json:"reason,omitempty"`
}

// Availability blackout reasons.
const (
	ReasonLeadTime = "Lead time"
	ReasonBlackout = "Blackout"
)
