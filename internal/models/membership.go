package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MembershipActive    = "active"
	MembershipExtended  = "extended"
	MembershipCancelled = "cancelled"
)

type Membership struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type UserWithMemberships struct {
	Profile
	Memberships      []Membership `json:"memberships"`
	ActiveMembership *Membership  `json:"active_membership"`
}
