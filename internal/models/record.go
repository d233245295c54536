package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultClimbType = "볼더링"

type Record struct {
	ID         int64     `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Date       time.Time `json:"date"`
	Location   string    `json:"location"`
	ClimbType  string    `json:"climb_type"`
	Difficulty string    `json:"difficulty"`
	Success    bool      `json:"success"`
	CreatedAt  time.Time `json:"created_at"`
}

// DateKey is the calendar key of the record, YYYY-MM-DD.
func (r Record) DateKey() string {
	return r.Date.Format(time.DateOnly)
}

type RecordSummary struct {
	TotalSessions   int            `json:"total_sessions"`
	Successes       int            `json:"successes"`
	SuccessRate     float64        `json:"success_rate"`
	LastSessionDate *string        `json:"last_session_date"`
	HardestSent     *string        `json:"hardest_sent"`
	ByClimbType     map[string]int `json:"by_climb_type"`
}
