package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusRelaxed  = 0
	StatusModerate = 1
	StatusBusy     = 2
	StatusCrowded  = 3
)

var statusLabels = map[int]string{
	StatusRelaxed:  "여유",
	StatusModerate: "보통",
	StatusBusy:     "혼잡",
	StatusCrowded:  "매우 혼잡",
}

type Gym struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	Phone         *string   `json:"phone"`
	Description   *string   `json:"description"`
	CurrentStatus int       `json:"current_status"`
	LastUpdated   time.Time `json:"last_updated"`
}

func ValidGymStatus(status int) bool {
	_, ok := statusLabels[status]
	return ok
}

func GymStatusLabel(status int) string {
	return statusLabels[status]
}
