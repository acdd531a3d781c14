package models

import "time"

// EntityKind names a permission-scoped aggregate
type EntityKind string

const (
	KindBoard     EntityKind = "board"
	KindWorkspace EntityKind = "workspace"
)

// Workspace groups boards and carries its own membership
type Workspace struct {
	ID          string            `json:"id" db:"id"`
	Name        string            `json:"name" db:"name"`
	Description string            `json:"description,omitempty" db:"description"`
	CreatedBy   string            `json:"created_by" db:"created_by"`
	Members     []Member          `json:"members" db:"members"`
	Settings    WorkspaceSettings `json:"settings" db:"settings"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

func (w *Workspace) EntityKind() EntityKind { return KindWorkspace }

func (w *Workspace) MemberList() []Member {
	if w == nil {
		return nil
	}
	return w.Members
}

// WorkspaceCreateRequest is the body of POST /api/workspaces
type WorkspaceCreateRequest struct {
	Name        string            `json:"name" validate:"required,max=120"`
	Description string            `json:"description" validate:"max=2000"`
	Settings    WorkspaceSettings `json:"settings"`
}

// WorkspaceUpdateRequest is a partial update; nil fields are left unchanged
type WorkspaceUpdateRequest struct {
	Name        *string        `json:"name" validate:"omitempty,max=120"`
	Description *string        `json:"description" validate:"omitempty,max=2000"`
	Settings    *SettingsPatch `json:"settings"`
}

// SettingsPatch carries workspace setting changes keyed like the stored document
type SettingsPatch struct {
	BoardCreation     *RoleThreshold `json:"boardCreation"`
	InviteRestriction *RoleThreshold `json:"inviteRestriction"`
}

// Keys lists the setting keys present in the patch
func (p *SettingsPatch) Keys() []string {
	if p == nil {
		return nil
	}
	var keys []string
	if p.BoardCreation != nil {
		keys = append(keys, SettingBoardCreation)
	}
	if p.InviteRestriction != nil {
		keys = append(keys, SettingInviteRestriction)
	}
	return keys
}
