package models

// Space statuses as written by the external occupancy publisher.
const (
	SpaceOccupied = "occupied"
	SpaceEmpty    = "empty"
)

// Space is the read-only occupancy state of a single parking space.
type Space struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SpaceEvent is a realtime notification about a space status change.
type SpaceEvent struct {
	LotID string `json:"lotId"`
	Space Space  `json:"space"`
}

// UnregisteredEntry records a camera detection of a plate that is not
// registered to any account.
type UnregisteredEntry struct {
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Image      string  `json:"image,omitempty"`
}
