package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LevelBeginner     = "BEGINNER"
	LevelIntermediate = "INTERMEDIATE"
	LevelAdvanced     = "ADVANCED"

	StyleBoulder = "BOULDER"
	StyleLead    = "LEAD"
	StyleTopRope = "TOPROPE"
)

type Profile struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DisplayNickname string    `json:"display_nickname"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	ClimbingLevel   *string   `json:"climbing_level"`
	PreferredGym    *string   `json:"preferred_gym"`
	ClimbingStyle   []string  `json:"climbing_style"`
	AvatarURL       *string   `json:"avatar_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Author is the slice of a profile shown next to feed content.
type Author struct {
	ID              uuid.UUID `json:"id"`
	DisplayNickname string    `json:"display_nickname"`
	AvatarURL       *string   `json:"avatar_url"`
}
