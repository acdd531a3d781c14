package models

import "time"

// Activity is one entry of a board or workspace audit trail
type Activity struct {
	ID         string     `json:"id" db:"id"`
	EntityKind EntityKind `json:"entity_kind" db:"entity_kind"`
	EntityID   string     `json:"entity_id" db:"entity_id"`
	ActorID    string     `json:"actor_id" db:"actor_id"`
	Action     string     `json:"action" db:"action"`
	Detail     string     `json:"detail,omitempty" db:"detail"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
