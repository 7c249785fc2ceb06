// Package protocol defines the JSON messages published on the bus while a
// conversion is in flight.
package protocol

import "time"

// Progress is emitted after every completed chunk. Current is monotonically
// increasing and never exceeds Total.
type Progress struct {
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// Done is the terminal event of a conversion, successful or not.
type Done struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"` // done, aborted
	Error     string    `json:"error,omitempty"`
	Bytes     int       `json:"bytes"`
	Format    string    `json:"format,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectProgressPrefix = "convert.progress"
	SubjectDonePrefix     = "convert.done"
)

func ProgressSubject(sessionID string) string { return SubjectProgressPrefix + "." + sessionID }

func DoneSubject(sessionID string) string { return SubjectDonePrefix + "." + sessionID }
