package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Role is a membership role on a board or workspace
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the three known roles
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// RefKind tags which form a UserRef was stored in
type RefKind int

const (
	RefKindNone RefKind = iota
	// RefKindID is a bare user id ("u1")
	RefKindID
	// RefKindExpanded is a populated user record ({"id":"u1","email":...})
	RefKindExpanded
)

// UserRef is the user field of a membership record. Stored documents carry
// either a bare id or an expanded user object; Kind records which one was read.
type UserRef struct {
	Kind RefKind
	ID   string
	User *User
}

// RefID builds a reference record for a bare user id
func RefID(id string) UserRef {
	return UserRef{Kind: RefKindID, ID: id}
}

// RefUser builds an expanded record
func RefUser(u *User) UserRef {
	if u == nil {
		return UserRef{}
	}
	return UserRef{Kind: RefKindExpanded, ID: u.ID, User: u}
}

// Key returns the string form of the referenced user id, or "" when unset.
func (r UserRef) Key() string {
	switch r.Kind {
	case RefKindID:
		return r.ID
	case RefKindExpanded:
		if r.User != nil && r.User.ID != "" {
			return r.User.ID
		}
		return r.ID
	default:
		return ""
	}
}

// MarshalJSON always writes the bare id so stored documents stay normalized
func (r UserRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Key())
}

// UnmarshalJSON accepts a bare id string, a number, or an expanded user object
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = UserRef{}
		return nil
	}
	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = RefID(id)
		return nil
	case '{':
		var u User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		*r = RefUser(&u)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid user reference: %s", string(data))
		}
		*r = RefID(n.String())
		return nil
	}
}

// Member is one membership record of a board or workspace
type Member struct {
	User        UserRef   `json:"user"`
	Role        Role      `json:"role"`
	Permissions []string  `json:"permissions"`
	JoinedAt    time.Time `json:"joined_at"`
}

// HasExplicit reports whether the member's stored permission list names capability
func (m *Member) HasExplicit(capability string) bool {
	for _, p := range m.Permissions {
		if p == capability {
			return true
		}
	}
	return false
}

// MemberUpdateRequest is the body of a member role change
type MemberUpdateRequest struct {
	Role Role `json:"role" validate:"required,oneof=admin member"`
}
