package permissions

import (
	"strings"
	"testing"

	"taskboard-backend/pkg/models"
)

func TestDefaultCapabilitiesOwnerCoversAdministrative(t *testing.T) {
	for _, kind := range []models.EntityKind{models.KindBoard, models.KindWorkspace} {
		owner := DefaultCapabilities(kind, models.RoleOwner)
		if len(owner) == 0 {
			t.Fatalf("%s: owner must have capabilities", kind)
		}
		for _, role := range []models.Role{models.RoleAdmin, models.RoleMember} {
			for _, c := range DefaultCapabilities(kind, role) {
				s := string(c)
				administrative := strings.HasPrefix(s, "manage_") || strings.HasPrefix(s, "archive_") || strings.HasPrefix(s, "delete_")
				if administrative && !contains(owner, c) {
					t.Fatalf("%s: %s holds %s that owner lacks", kind, role, c)
				}
			}
			if len(DefaultCapabilities(kind, role)) >= len(owner) {
				t.Fatalf("%s: %s must hold strictly fewer defaults than owner", kind, role)
			}
		}
	}
}

func TestDefaultCapabilitiesUnknownRoleIsEmpty(t *testing.T) {
	if got := DefaultCapabilities(models.KindBoard, models.Role("guest")); len(got) != 0 {
		t.Fatalf("expected empty set for unknown role, got %v", got)
	}
	if got := DefaultCapabilities(models.EntityKind("project"), models.RoleOwner); len(got) != 0 {
		t.Fatalf("expected empty set for unknown kind, got %v", got)
	}
}

func TestAdminTableExcludesDenyList(t *testing.T) {
	admin := DefaultCapabilities(models.KindWorkspace, models.RoleAdmin)
	for _, c := range []Capability{DeleteWorkspace, ManageRoles, ManageCriticalSettings, ManagePermissions} {
		if contains(admin, c) {
			t.Fatalf("workspace admin must not hold %s", c)
		}
	}
	if contains(DefaultCapabilities(models.KindBoard, models.RoleAdmin), DeleteBoard) {
		t.Fatalf("board admin must not hold delete_board")
	}
}

func TestVocabulariesStaySeparate(t *testing.T) {
	if IsKnown(models.KindBoard, CreateBoards) {
		t.Fatalf("create_boards is a workspace capability")
	}
	if IsKnown(models.KindWorkspace, EditCards) {
		t.Fatalf("edit_cards is a board capability")
	}
	if !IsKnown(models.KindWorkspace, InviteMembers) || !IsKnown(models.KindBoard, InviteMembers) {
		t.Fatalf("invite_members exists in both vocabularies")
	}
}

func TestIsCriticalAndDescribe(t *testing.T) {
	if !IsCritical("inviteRestriction") || !IsCritical("boardCreation") || IsCritical("name") {
		t.Fatalf("critical settings mismatch")
	}
	if got := Describe(CreateLists); got != "create lists" {
		t.Fatalf("expected %q, got %q", "create lists", got)
	}
	if got := StoredDefaults(models.KindBoard, models.RoleMember); len(got) != 5 || got[0] != "view_board" {
		t.Fatalf("unexpected member permission strings %v", got)
	}
}

func TestStoredDefaultsLeaveOutSettingGatedCapabilities(t *testing.T) {
	cases := []struct {
		kind    models.EntityKind
		role    models.Role
		without []Capability
		with    []Capability
	}{
		{models.KindWorkspace, models.RoleAdmin, []Capability{CreateBoards, InviteMembers}, []Capability{ViewWorkspace, EditWorkspace, ManageMembers}},
		{models.KindWorkspace, models.RoleOwner, []Capability{CreateBoards, InviteMembers}, []Capability{DeleteWorkspace, ManageRoles}},
		{models.KindBoard, models.RoleAdmin, []Capability{EditCards, MoveCards, EditOtherCards, MoveOtherCards, CreateLists, InviteMembers}, []Capability{ArchiveBoard, EditOwnCards, DeleteCards}},
		{models.KindBoard, models.RoleMember, []Capability{CreateLists, EditOtherCards}, []Capability{ViewBoard, CreateCards, EditOwnCards}},
	}
	for _, tc := range cases {
		stored := StoredDefaults(tc.kind, tc.role)
		has := func(c Capability) bool {
			for _, s := range stored {
				if s == string(c) {
					return true
				}
			}
			return false
		}
		for _, c := range tc.without {
			if has(c) {
				t.Errorf("%s %s: stored %s", tc.kind, tc.role, c)
			}
		}
		for _, c := range tc.with {
			if !has(c) {
				t.Errorf("%s %s: missing %s", tc.kind, tc.role, c)
			}
		}
	}
}
