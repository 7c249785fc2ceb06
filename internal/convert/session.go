package convert

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusAborted Status = "aborted"
)

// Session is the transient state of one conversion: created → running →
// done|aborted. It replaces any notion of process-wide current-conversion
// state; everything flows through the session instance.
type Session struct {
	ID     string
	Source string

	mu        sync.Mutex
	status    Status
	current   int
	total     int
	errMsg    string
	updatedAt time.Time
}

// Snapshot is a point-in-time copy of a session safe to hand to callers.
type Snapshot struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Status    Status    `json:"status"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSession(source string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Source:    source,
		status:    StatusCreated,
		updatedAt: time.Now().UTC(),
	}
}

func (s *Session) start(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusRunning
	s.total = total
	s.updatedAt = time.Now().UTC()
}

// advance bumps the progress counter; it only ever moves forward.
func (s *Session) advance() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < s.total {
		s.current++
	}
	s.updatedAt = time.Now().UTC()
	return s.current, s.total
}

func (s *Session) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusDone
	s.updatedAt = time.Now().UTC()
}

// abort freezes progress where it stopped and records the failure.
func (s *Session) abort(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusAborted
	if err != nil {
		s.errMsg = err.Error()
	}
	s.updatedAt = time.Now().UTC()
}

func (s *Session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.ID,
		Source:    s.Source,
		Status:    s.status,
		Current:   s.current,
		Total:     s.total,
		Error:     s.errMsg,
		UpdatedAt: s.updatedAt,
	}
}
