package session

import (
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/project"
)

// Session is a single contiguous interval of tracked time against one
// project. EndTime is nil while the session is open; Duration is only
// meaningful once the session has been stopped, and a stopped session
// is never mutated again.
type Session struct {
	ID           string           `json:"id" db:"id"`
	ProjectID    string           `json:"project_id" db:"project_id"`
	UserID       string           `json:"user_id" db:"user_id"`
	StartTime    time.Time        `json:"start_time" db:"start_time"`
	EndTime      *time.Time       `json:"end_time,omitempty" db:"end_time"`
	Duration     int64            `json:"duration" db:"duration"`
	Category     project.Category `json:"category" db:"category"`
	OnChainProof string           `json:"on_chain_proof,omitempty" db:"on_chain_proof"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// Open reports whether the session is still running.
func (s Session) Open() bool {
	return s.EndTime == nil
}

// Elapsed re-derives the in-progress duration of an open session in
// whole seconds. It is display-only; the authoritative duration is the
// one computed at stop time.
func (s Session) Elapsed(now time.Time) int64 {
	if !s.Open() {
		return s.Duration
	}
	elapsed := int64(now.Sub(s.StartTime) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
