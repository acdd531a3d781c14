package models

import "time"

// Board is a kanban board with its own membership and settings
type Board struct {
	ID          string        `json:"id" db:"id"`
	WorkspaceID string        `json:"workspace_id,omitempty" db:"workspace_id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description,omitempty" db:"description"`
	Background  string        `json:"background,omitempty" db:"background"`
	CreatedBy   string        `json:"created_by" db:"created_by"`
	Members     []Member      `json:"members" db:"members"`
	Settings    BoardSettings `json:"settings" db:"settings"`
	Archived    bool          `json:"archived" db:"archived"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

func (b *Board) EntityKind() EntityKind { return KindBoard }

func (b *Board) MemberList() []Member {
	if b == nil {
		return nil
	}
	return b.Members
}

// List is a column on a board
type List struct {
	ID        string    `json:"id" db:"id"`
	BoardID   string    `json:"board_id" db:"board_id"`
	Title     string    `json:"title" db:"title"`
	Position  int       `json:"position" db:"position"`
	Archived  bool      `json:"archived" db:"archived"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BoardCreateRequest is the body of POST /api/workspaces/{id}/boards
type BoardCreateRequest struct {
	Name        string        `json:"name" validate:"required,max=120"`
	Description string        `json:"description" validate:"max=2000"`
	Background  string        `json:"background" validate:"max=200"`
	Settings    BoardSettings `json:"settings"`
}

// BoardUpdateRequest is a partial update of board metadata
type BoardUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Background  *string `json:"background" validate:"omitempty,max=200"`
}

// BoardSettingsRequest replaces individual general settings
type BoardSettingsRequest struct {
	CardEditing        *CardPolicy `json:"cardEditing"`
	CardMoving         *CardPolicy `json:"cardMoving"`
	MemberListCreation *Toggle     `json:"memberListCreation"`
	MemberInvitation   *Toggle     `json:"memberInvitation"`
}

// ListCreateRequest is the body of POST /api/boards/{id}/lists
type ListCreateRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Position *int   `json:"position" validate:"omitempty,min=0"`
}

// ListUpdateRequest renames or repositions a list
type ListUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Position *int    `json:"position" validate:"omitempty,min=0"`
}
