package models

import "time"

// CardMember is an assignment of a user to a card
type CardMember struct {
	User       UserRef   `json:"user"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Card is a task on a board list
type Card struct {
	ID          string       `json:"id" db:"id"`
	BoardID     string       `json:"board_id" db:"board_id"`
	ListID      string       `json:"list_id" db:"list_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description,omitempty" db:"description"`
	CreatedBy   string       `json:"created_by" db:"created_by"`
	Members     []CardMember `json:"members" db:"members"`
	Position    int          `json:"position" db:"position"`
	Completed   bool         `json:"completed" db:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	DueAt       *time.Time   `json:"due_at,omitempty" db:"due_at"`
	Archived    bool         `json:"archived" db:"archived"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// IsAssigned reports whether userID is one of the card's assigned members
func (c *Card) IsAssigned(userID string) bool {
	if c == nil || userID == "" {
		return false
	}
	for _, m := range c.Members {
		if m.User.Key() == userID {
			return true
		}
	}
	return false
}

// CardCreateRequest is the body of POST /api/boards/{id}/cards
type CardCreateRequest struct {
	ListID      string     `json:"list_id" validate:"required"`
	Title       string     `json:"title" validate:"required,max=500"`
	Description string     `json:"description" validate:"max=10000"`
	DueAt       *time.Time `json:"due_at"`
}

// CardUpdateRequest is a partial card edit
type CardUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=500"`
	Description *string    `json:"description" validate:"omitempty,max=10000"`
	DueAt       *time.Time `json:"due_at"`
}

// CardMoveRequest moves a card to a list/position
type CardMoveRequest struct {
	ListID   string `json:"list_id" validate:"required"`
	Position int    `json:"position" validate:"min=0"`
}

// CardCompleteRequest toggles completion
type CardCompleteRequest struct {
	Completed bool `json:"completed"`
}

// CardMembersRequest replaces a card's assigned members
type CardMembersRequest struct {
	UserIDs []string `json:"user_ids" validate:"dive,required"`
}
