package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultColorLevel = "빨강"

	DifficultyEasy     = "easy"
	DifficultyModerate = "moderate"
	DifficultyHard     = "hard"
)

var PerceivedDifficulties = []string{DifficultyEasy, DifficultyModerate, DifficultyHard}

type Beta struct {
	ID          int64         `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	VideoURL    string        `json:"video_url"`
	EmbedURL    string        `json:"embed_url"`
	GymName     string        `json:"gym_name"`
	ColorLevel  string        `json:"color_level"`
	Description *string       `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	Author      *Author       `json:"profiles,omitempty"`
	Ratings     RatingSummary `json:"ratings"`
}

type RouteRating struct {
	ID                  int64     `json:"id"`
	BetaID              int64     `json:"beta_id"`
	UserID              uuid.UUID `json:"user_id"`
	PerceivedDifficulty string    `json:"perceived_difficulty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type RatingSummary struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
	Mine   *string        `json:"mine"`
}

func NewRatingSummary() RatingSummary {
	counts := make(map[string]int, len(PerceivedDifficulties))
	for _, difficulty := range PerceivedDifficulties {
		counts[difficulty] = 0
	}
	return RatingSummary{Counts: counts}
}
