package permissions

import (
	"strings"

	"taskboard-backend/pkg/models"
)

// Capability names one authorizable action
type Capability string

// Board capabilities
const (
	ViewBoard      Capability = "view_board"
	EditBoard      Capability = "edit_board"
	DeleteBoard    Capability = "delete_board"
	ArchiveBoard   Capability = "archive_board"
	ManageSettings Capability = "manage_settings"
	ManageMembers  Capability = "manage_members"
	InviteMembers  Capability = "invite_members"
	CreateLists    Capability = "create_lists"
	EditLists      Capability = "edit_lists"
	ArchiveLists   Capability = "archive_lists"
	DeleteLists    Capability = "delete_lists"
	CreateCards    Capability = "create_cards"
	EditCards      Capability = "edit_cards"
	MoveCards      Capability = "move_cards"
	ArchiveCards   Capability = "archive_cards"
	DeleteCards    Capability = "delete_cards"
	EditOwnCards   Capability = "edit_own_cards"
	MoveOwnCards   Capability = "move_own_cards"
	EditOtherCards Capability = "edit_other_cards"
	MoveOtherCards Capability = "move_other_cards"
	CommentCards   Capability = "comment_cards"
)

// Workspace capabilities. manage_settings, manage_members and
// invite_members share their names with the board vocabulary.
const (
	ViewWorkspace          Capability = "view_workspace"
	EditWorkspace          Capability = "edit_workspace"
	DeleteWorkspace        Capability = "delete_workspace"
	ManageRoles            Capability = "manage_roles"
	ManageCriticalSettings Capability = "manage_critical_settings"
	ManagePermissions      Capability = "manage_permissions"
	CreateBoards           Capability = "create_boards"
)

var boardVocabulary = []Capability{
	ViewBoard, EditBoard, DeleteBoard, ArchiveBoard, ManageSettings, ManageMembers, InviteMembers,
	CreateLists, EditLists, ArchiveLists, DeleteLists,
	CreateCards, EditCards, MoveCards, ArchiveCards, DeleteCards,
	EditOwnCards, MoveOwnCards, EditOtherCards, MoveOtherCards, CommentCards,
}

var workspaceVocabulary = []Capability{
	ViewWorkspace, EditWorkspace, DeleteWorkspace, ManageSettings, ManageMembers, InviteMembers,
	ManageRoles, ManageCriticalSettings, ManagePermissions, CreateBoards,
}

// adminDenied is what an admin never gets from the role table
var adminDenied = map[models.EntityKind][]Capability{
	models.KindBoard:     {DeleteBoard},
	models.KindWorkspace: {DeleteWorkspace, ManageRoles, ManageCriticalSettings, ManagePermissions},
}

// memberDefaults is the unconditional member allow-list. Setting-gated
// capabilities (create_lists, invite_members, *_other_cards, create_boards)
// are resolved against entity settings instead.
var memberDefaults = map[models.EntityKind][]Capability{
	models.KindBoard:     {ViewBoard, CreateCards, EditOwnCards, MoveOwnCards, CommentCards},
	models.KindWorkspace: {ViewWorkspace},
}

// settingGated capabilities are decided by entity settings on every check,
// so they are never written into Member.Permissions.
var settingGated = map[models.EntityKind][]Capability{
	models.KindBoard:     {CreateLists, InviteMembers, EditCards, EditOtherCards, MoveCards, MoveOtherCards},
	models.KindWorkspace: {CreateBoards, InviteMembers},
}

var criticalSettings = map[string]bool{
	models.SettingInviteRestriction: true,
	models.SettingBoardCreation:     true,
}

func vocabulary(kind models.EntityKind) []Capability {
	switch kind {
	case models.KindBoard:
		return boardVocabulary
	case models.KindWorkspace:
		return workspaceVocabulary
	}
	return nil
}

// DefaultCapabilities returns the capability set a role is granted by default.
// Unknown kinds or roles get an empty set.
func DefaultCapabilities(kind models.EntityKind, role models.Role) []Capability {
	all := vocabulary(kind)
	if all == nil {
		return []Capability{}
	}
	switch role {
	case models.RoleOwner:
		return append([]Capability(nil), all...)
	case models.RoleAdmin:
		out := make([]Capability, 0, len(all))
		for _, c := range all {
			if !contains(adminDenied[kind], c) {
				out = append(out, c)
			}
		}
		return out
	case models.RoleMember:
		return append([]Capability(nil), memberDefaults[kind]...)
	}
	return []Capability{}
}

// StoredDefaults is what gets saved as a member's permissions when they join
// or change role: the role defaults minus the setting-gated capabilities.
// A stored grant wins over settings, so storing e.g. create_boards would
// make boardCreation=owner meaningless for admins.
func StoredDefaults(kind models.EntityKind, role models.Role) []string {
	caps := DefaultCapabilities(kind, role)
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		if !contains(settingGated[kind], c) {
			out = append(out, string(c))
		}
	}
	return out
}

// IsKnown reports whether capability belongs to the vocabulary of kind
func IsKnown(kind models.EntityKind, capability Capability) bool {
	return contains(vocabulary(kind), capability)
}

// IsCritical reports whether a workspace setting key may only be changed by the owner
func IsCritical(setting string) bool {
	return criticalSettings[setting]
}

// Describe turns "create_lists" into "create lists"
func Describe(capability Capability) string {
	return strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(string(capability))
}

func contains(list []Capability, c Capability) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
