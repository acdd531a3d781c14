package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is an invite to join a board or workspace
type Invitation struct {
	ID         string           `json:"id" db:"id"`
	EntityKind EntityKind       `json:"entity_kind" db:"entity_kind"`
	EntityID   string           `json:"entity_id" db:"entity_id"`
	Email      string           `json:"email" db:"email"`
	InviterID  string           `json:"inviter_id" db:"inviter_id"`
	Role       Role             `json:"role" db:"role"`
	Token      string           `json:"token" db:"token"`
	Status     InvitationStatus `json:"status" db:"status"`
	ExpiresAt  time.Time        `json:"expires_at" db:"expires_at"`
	AcceptedBy *string          `json:"accepted_by,omitempty" db:"accepted_by"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}

// InviteRequest is the body of an invitation endpoint
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  Role   `json:"role" validate:"omitempty,oneof=admin member"`
}

// AcceptInvitationRequest is the body of POST /api/invitations/accept
type AcceptInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}
