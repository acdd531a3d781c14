package permissions

import (
	"errors"
	"testing"

	"taskboard-backend/pkg/models"
)

func member(id string, role models.Role, perms ...string) models.Member {
	return models.Member{User: models.RefID(id), Role: role, Permissions: perms}
}

func boardWith(general models.BoardGeneralSettings, members ...models.Member) *models.Board {
	return &models.Board{ID: "b1", Members: members, Settings: models.BoardSettings{General: general}}
}

func workspaceWith(settings models.WorkspaceSettings, members ...models.Member) *models.Workspace {
	return &models.Workspace{ID: "w1", Members: members, Settings: settings}
}

func TestFindMemberHandlesBothForms(t *testing.T) {
	r := NewResolver()
	members := []models.Member{
		{User: models.RefID("u1"), Role: models.RoleOwner},
		{User: models.RefUser(&models.User{ID: "u2", Email: "u2@example.com"}), Role: models.RoleAdmin},
		{Role: models.RoleMember},
	}
	if m := r.FindMember(members, "u1"); m == nil || m.Role != models.RoleOwner {
		t.Fatalf("expected bare-id member u1")
	}
	if m := r.FindMember(members, "u2"); m == nil || m.Role != models.RoleAdmin {
		t.Fatalf("expected expanded member u2")
	}
	if m := r.FindMember(members, "u3"); m != nil {
		t.Fatalf("expected nil for absent user")
	}
	if m := r.FindMember(nil, "u1"); m != nil {
		t.Fatalf("expected nil for nil members")
	}
	if m := r.FindMember(members, ""); m != nil {
		t.Fatalf("expected nil for empty id")
	}
}

func TestOwnerHasEveryKnownCapability(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{CardEditing: models.CardPolicyCardCreatorOnly}, member("owner", models.RoleOwner))
	for _, c := range boardVocabulary {
		if !r.HasPermission(b, "owner", c) {
			t.Fatalf("owner denied %s on board", c)
		}
	}
	w := workspaceWith(models.WorkspaceSettings{BoardCreation: models.ThresholdOwner}, member("owner", models.RoleOwner))
	for _, c := range workspaceVocabulary {
		if !r.HasPermission(w, "owner", c) {
			t.Fatalf("owner denied %s on workspace", c)
		}
	}
}

func TestDenyByDefaultForUnknownCapability(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{}, member("o", models.RoleOwner), member("a", models.RoleAdmin), member("m", models.RoleMember))
	for _, id := range []string{"o", "a", "m"} {
		if r.HasPermission(b, id, "launch_rockets") {
			t.Fatalf("%s granted an unknown capability", id)
		}
		if r.HasPermission(b, id, CreateBoards) {
			t.Fatalf("%s granted a workspace capability on a board", id)
		}
	}
}

func TestExplicitGrantOverridesRole(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{}, member("m", models.RoleMember, "archive_board"), member("plain", models.RoleMember))
	if !r.HasPermission(b, "m", ArchiveBoard) {
		t.Fatalf("explicit archive_board grant ignored")
	}
	if r.HasPermission(b, "plain", ArchiveBoard) {
		t.Fatalf("member without grant must not archive")
	}
	// explicit grants also beat the admin deny-list
	b.Members = append(b.Members, member("a", models.RoleAdmin, "delete_board"))
	if !r.HasPermission(b, "a", DeleteBoard) {
		t.Fatalf("explicit delete_board grant ignored for admin")
	}
}

func TestAdminBoardRules(t *testing.T) {
	r := NewResolver()
	cases := []struct {
		name    string
		general models.BoardGeneralSettings
		cap     Capability
		want    bool
	}{
		{"delete denied", models.BoardGeneralSettings{}, DeleteBoard, false},
		{"archive allowed", models.BoardGeneralSettings{}, ArchiveBoard, true},
		{"edit default", models.BoardGeneralSettings{}, EditCards, true},
		{"edit all members", models.BoardGeneralSettings{CardEditing: models.CardPolicyAllMembers}, EditCards, true},
		{"edit creator only", models.BoardGeneralSettings{CardEditing: models.CardPolicyCardCreatorOnly}, EditCards, false},
		{"edit other creator only", models.BoardGeneralSettings{CardEditing: models.CardPolicyCardCreatorOnly}, EditOtherCards, false},
		{"edit unrecognized", models.BoardGeneralSettings{CardEditing: "whoever"}, EditCards, false},
		{"move follows cardMoving", models.BoardGeneralSettings{CardEditing: models.CardPolicyCardCreatorOnly}, MoveCards, true},
		{"move creator only", models.BoardGeneralSettings{CardMoving: models.CardPolicyCardCreatorOnly}, MoveCards, false},
		{"create lists", models.BoardGeneralSettings{}, CreateLists, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := boardWith(tc.general, member("a", models.RoleAdmin))
			if got := r.HasPermission(b, "a", tc.cap); got != tc.want {
				t.Fatalf("HasPermission(admin, %s) = %v, want %v", tc.cap, got, tc.want)
			}
		})
	}
}

func TestMemberBoardRules(t *testing.T) {
	r := NewResolver()
	cases := []struct {
		name    string
		general models.BoardGeneralSettings
		cap     Capability
		want    bool
	}{
		{"view", models.BoardGeneralSettings{}, ViewBoard, true},
		{"create cards", models.BoardGeneralSettings{}, CreateCards, true},
		{"edit own", models.BoardGeneralSettings{}, EditOwnCards, true},
		{"edit cards", models.BoardGeneralSettings{CardEditing: models.CardPolicyAllMembers}, EditCards, false},
		{"edit other all members", models.BoardGeneralSettings{CardEditing: models.CardPolicyAllMembers}, EditOtherCards, true},
		{"edit other admins only", models.BoardGeneralSettings{CardEditing: models.CardPolicyAdminsOnly}, EditOtherCards, false},
		{"move other all members", models.BoardGeneralSettings{CardMoving: models.CardPolicyAllMembers}, MoveOtherCards, true},
		{"invite enabled", models.BoardGeneralSettings{MemberInvitation: models.ToggleEnabled}, InviteMembers, true},
		{"invite default", models.BoardGeneralSettings{}, InviteMembers, false},
		{"archive", models.BoardGeneralSettings{}, ArchiveBoard, false},
		{"manage settings", models.BoardGeneralSettings{}, ManageSettings, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := boardWith(tc.general, member("m", models.RoleMember))
			if got := r.HasPermission(b, "m", tc.cap); got != tc.want {
				t.Fatalf("HasPermission(member, %s) = %v, want %v", tc.cap, got, tc.want)
			}
		})
	}
}

func TestMemberListCreationFollowsSetting(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{MemberListCreation: models.ToggleEnabled}, member("m", models.RoleMember))
	if !r.HasPermission(b, "m", CreateLists) {
		t.Fatalf("expected create_lists when enabled")
	}
	b.Settings.General.MemberListCreation = models.ToggleDisabled
	if r.HasPermission(b, "m", CreateLists) {
		t.Fatalf("expected no create_lists when disabled")
	}
}

func TestWorkspaceTriStateSettings(t *testing.T) {
	r := NewResolver()
	cases := []struct {
		threshold models.RoleThreshold
		admin     bool
		member    bool
	}{
		{models.ThresholdOwner, false, false},
		{models.ThresholdAdmin, true, false},
		{models.ThresholdMember, true, true},
		{"bogus", false, false},
	}
	for _, tc := range cases {
		w := workspaceWith(models.WorkspaceSettings{BoardCreation: tc.threshold, InviteRestriction: tc.threshold},
			member("o", models.RoleOwner), member("a", models.RoleAdmin), member("m", models.RoleMember))
		for _, c := range []Capability{CreateBoards, InviteMembers} {
			if got := r.HasPermission(w, "a", c); got != tc.admin {
				t.Fatalf("threshold %q: admin %s = %v, want %v", tc.threshold, c, got, tc.admin)
			}
			if got := r.HasPermission(w, "m", c); got != tc.member {
				t.Fatalf("threshold %q: member %s = %v, want %v", tc.threshold, c, got, tc.member)
			}
			if !r.HasPermission(w, "o", c) {
				t.Fatalf("threshold %q: owner denied %s", tc.threshold, c)
			}
		}
	}
}

// stored builds a member the way the handlers persist one
func stored(kind models.EntityKind, id string, role models.Role) models.Member {
	return member(id, role, StoredDefaults(kind, role)...)
}

func TestStoredGrantsKeepWorkspaceThresholds(t *testing.T) {
	r := NewResolver()
	cases := []struct {
		threshold models.RoleThreshold
		admin     bool
		member    bool
	}{
		{models.ThresholdOwner, false, false},
		{models.ThresholdAdmin, true, false},
		{models.ThresholdMember, true, true},
		{"", true, true}, // boardCreation defaults to member
		{"bogus", false, false},
	}
	for _, tc := range cases {
		w := workspaceWith(models.WorkspaceSettings{BoardCreation: tc.threshold},
			stored(models.KindWorkspace, "a", models.RoleAdmin), stored(models.KindWorkspace, "m", models.RoleMember))
		if got := r.HasPermission(w, "a", CreateBoards); got != tc.admin {
			t.Errorf("boardCreation %q: admin create_boards = %v, want %v", tc.threshold, got, tc.admin)
		}
		if got := r.HasPermission(w, "m", CreateBoards); got != tc.member {
			t.Errorf("boardCreation %q: member create_boards = %v, want %v", tc.threshold, got, tc.member)
		}
	}
}

func TestStoredGrantsMatchRoleTable(t *testing.T) {
	r := NewResolver()
	policies := []models.CardPolicy{"", models.CardPolicyAdminsOnly, models.CardPolicyAllMembers, models.CardPolicyCardCreatorOnly}
	toggles := []models.Toggle{models.ToggleEnabled, models.ToggleDisabled}
	for _, p := range policies {
		for _, tg := range toggles {
			general := models.BoardGeneralSettings{CardEditing: p, CardMoving: p, MemberListCreation: tg, MemberInvitation: tg}
			bare := boardWith(general, member("a", models.RoleAdmin), member("m", models.RoleMember))
			withGrants := boardWith(general, stored(models.KindBoard, "a", models.RoleAdmin), stored(models.KindBoard, "m", models.RoleMember))
			for _, id := range []string{"a", "m"} {
				for _, c := range boardVocabulary {
					if want, got := r.HasPermission(bare, id, c), r.HasPermission(withGrants, id, c); got != want {
						t.Errorf("policy %q toggle %q: %s %s = %v with stored grants, %v from the table", p, tg, id, c, got, want)
					}
				}
			}
		}
	}
	for _, th := range []models.RoleThreshold{models.ThresholdOwner, models.ThresholdAdmin, models.ThresholdMember} {
		settings := models.WorkspaceSettings{BoardCreation: th, InviteRestriction: th}
		bare := workspaceWith(settings, member("a", models.RoleAdmin), member("m", models.RoleMember))
		withGrants := workspaceWith(settings, stored(models.KindWorkspace, "a", models.RoleAdmin), stored(models.KindWorkspace, "m", models.RoleMember))
		for _, id := range []string{"a", "m"} {
			for _, c := range workspaceVocabulary {
				if want, got := r.HasPermission(bare, id, c), r.HasPermission(withGrants, id, c); got != want {
					t.Errorf("threshold %q: %s %s = %v with stored grants, %v from the table", th, id, c, got, want)
				}
			}
		}
	}
}

func TestWorkspaceAdminDenyList(t *testing.T) {
	r := NewResolver()
	w := workspaceWith(models.WorkspaceSettings{}, member("a", models.RoleAdmin))
	for _, c := range []Capability{DeleteWorkspace, ManageRoles, ManageCriticalSettings, ManagePermissions} {
		if r.HasPermission(w, "a", c) {
			t.Fatalf("admin granted %s", c)
		}
	}
	for _, c := range []Capability{ViewWorkspace, EditWorkspace, ManageMembers, ManageSettings} {
		if !r.HasPermission(w, "a", c) {
			t.Fatalf("admin denied %s", c)
		}
	}
}

func TestNonMemberDeniedEverything(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{CardEditing: models.CardPolicyAllMembers, MemberListCreation: models.ToggleEnabled}, member("o", models.RoleOwner))
	for _, c := range boardVocabulary {
		if r.HasPermission(b, "stranger", c) {
			t.Fatalf("non-member granted %s", c)
		}
	}
}

func TestMalformedInputIsSafe(t *testing.T) {
	r := NewResolver()
	var nilBoard *models.Board
	if r.HasPermission(nil, "u1", ViewBoard) {
		t.Fatalf("nil entity granted")
	}
	if r.HasPermission(nilBoard, "u1", ViewBoard) {
		t.Fatalf("typed nil board granted")
	}
	b := boardWith(models.BoardGeneralSettings{}, member("u1", models.RoleOwner))
	if r.HasPermission(b, "", ViewBoard) || r.HasPermission(b, "u1", "") {
		t.Fatalf("missing arguments granted")
	}
	if r.CanEditCard(nil, &models.Card{}, "u1") || r.CanMoveCard(b, nil, "u1") || r.CanCompleteCard(b, &models.Card{}, "") {
		t.Fatalf("card checks with missing input granted")
	}
}

func TestCreatorOnlyOverridesOwner(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{CardEditing: models.CardPolicyCardCreatorOnly, CardMoving: models.CardPolicyCardCreatorOnly},
		member("owner", models.RoleOwner), member("m", models.RoleMember))
	card := &models.Card{ID: "c1", CreatedBy: "m"}

	if !r.HasPermission(b, "owner", EditCards) {
		t.Fatalf("owner must still hold edit_cards at board level")
	}
	if r.CanEditCard(b, card, "owner") {
		t.Fatalf("creator-only mode must deny the owner on someone else's card")
	}
	if r.CanMoveCard(b, card, "owner") {
		t.Fatalf("creator-only moving must deny the owner on someone else's card")
	}
	if !r.CanEditCard(b, card, "m") || !r.CanMoveCard(b, card, "m") {
		t.Fatalf("creator must be able to edit and move")
	}
}

func TestCardEditScenario(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{CardEditing: models.CardPolicyAllMembers},
		member("u1", models.RoleOwner), member("u2", models.RoleAdmin), member("u3", models.RoleMember))
	card := &models.Card{ID: "k", CreatedBy: "u1", Members: []models.CardMember{{User: models.RefID("u3")}}}

	want := map[string]bool{"u1": true, "u2": true, "u3": true, "u4": false}
	for id, ok := range want {
		if got := r.CanEditCard(b, card, id); got != ok {
			t.Fatalf("CanEditCard(%s) = %v, want %v", id, got, ok)
		}
	}

	// assignee keeps edit_own_cards even when the board is admins_only
	b.Settings.General.CardEditing = models.CardPolicyAdminsOnly
	if !r.CanEditCard(b, card, "u3") {
		t.Fatalf("assigned member must edit via edit_own_cards")
	}
	b.Members = append(b.Members, member("u5", models.RoleMember))
	if r.CanEditCard(b, card, "u5") {
		t.Fatalf("unassigned member must not edit in admins_only mode")
	}
}

func TestCreatorIsAnsweredByOwnCapability(t *testing.T) {
	r := NewResolver()
	// guests carry only explicit grants
	b := boardWith(models.BoardGeneralSettings{CardEditing: models.CardPolicyAllMembers, CardMoving: models.CardPolicyAllMembers},
		member("creator", "guest", "edit_other_cards", "move_other_cards"),
		member("other", "guest", "edit_other_cards", "move_other_cards"))
	card := &models.Card{ID: "k", CreatedBy: "creator"}

	if r.CanEditCard(b, card, "creator") || r.CanMoveCard(b, card, "creator") {
		t.Fatalf("creator without *_own_cards must not fall through to *_other_cards")
	}
	if !r.CanEditCard(b, card, "other") || !r.CanMoveCard(b, card, "other") {
		t.Fatalf("non-creator with *_other_cards denied")
	}
}

func TestCanCompleteCard(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{CardEditing: models.CardPolicyCardCreatorOnly},
		member("o", models.RoleOwner), member("a", models.RoleAdmin), member("m", models.RoleMember), member("n", models.RoleMember))
	card := &models.Card{CreatedBy: "n", Members: []models.CardMember{{User: models.RefID("m")}}}
	for id, want := range map[string]bool{"o": true, "a": true, "m": true, "n": false} {
		if got := r.CanCompleteCard(b, card, id); got != want {
			t.Fatalf("CanCompleteCard(%s) = %v, want %v", id, got, want)
		}
	}
}

func TestVerifyMatchesHasPermission(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{MemberInvitation: models.ToggleEnabled},
		member("o", models.RoleOwner), member("a", models.RoleAdmin), member("m", models.RoleMember, "archive_lists"))
	caps := append(append([]Capability(nil), boardVocabulary...), "unknown_thing")
	for _, id := range []string{"o", "a", "m", "x"} {
		for _, c := range caps {
			err := r.VerifyPermission(b, id, c)
			has := r.HasPermission(b, id, c)
			if has && err != nil {
				t.Fatalf("%s/%s: granted but Verify failed: %v", id, c, err)
			}
			if !has {
				if !errors.Is(err, ErrPermissionDenied) {
					t.Fatalf("%s/%s: expected PermissionDenied, got %v", id, c, err)
				}
				pe, _ := AsError(err)
				if pe.Capability != c || pe.StatusHint() != 403 {
					t.Fatalf("%s/%s: unexpected error payload %+v", id, c, pe)
				}
			}
		}
	}
}

func TestVerifyMissingArgumentsIsInvalidArgument(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{}, member("o", models.RoleOwner))
	checks := []error{
		r.VerifyPermission(nil, "o", ViewBoard),
		r.VerifyPermission(b, "", ViewBoard),
		r.VerifyPermission(b, "o", ""),
		r.VerifyWorkspacePermission(nil, "o", ViewWorkspace),
		r.VerifyCardEdit(b, nil, "o"),
		r.VerifyCardMove(nil, &models.Card{}, "o"),
		r.VerifyCardCompletion(b, &models.Card{}, ""),
		r.VerifyCriticalSettings(nil, "o"),
	}
	for i, err := range checks {
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("check %d: expected InvalidArgument, got %v", i, err)
		}
		if pe, ok := AsError(err); !ok || pe.StatusHint() != 500 {
			t.Fatalf("check %d: expected status hint 500", i)
		}
	}
}

func TestDeniedMessageUsesReadableCapability(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{}, member("m", models.RoleMember))
	err := r.VerifyPermission(b, "m", CreateLists)
	if err == nil || err.Error() != "You do not have permission to create lists" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCriticalSettingsOwnerOnly(t *testing.T) {
	r := NewResolver()
	w := workspaceWith(models.WorkspaceSettings{}, member("o", models.RoleOwner), member("a", models.RoleAdmin, "manage_critical_settings"))
	if !r.CanModifyCriticalSettings(w, "o") {
		t.Fatalf("owner must modify critical settings")
	}
	if r.CanModifyCriticalSettings(w, "a") {
		t.Fatalf("admin must not modify critical settings, even with an explicit grant")
	}
	if err := r.VerifyCriticalSettings(w, "a"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}

func TestValidateRoleChange(t *testing.T) {
	r := NewResolver()
	w := workspaceWith(models.WorkspaceSettings{}, member("o", models.RoleOwner), member("a", models.RoleAdmin), member("m", models.RoleMember))

	if err := r.ValidateRoleChange(w, "o", "m", models.RoleAdmin); err != nil {
		t.Fatalf("owner promoting member: %v", err)
	}
	if err := r.ValidateRoleChange(w, "a", "m", models.RoleAdmin); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("workspace admin lacks manage_roles, got %v", err)
	}
	if err := r.ValidateRoleChange(w, "o", "o", models.RoleMember); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("owner demotion must be refused, got %v", err)
	}
	if err := r.ValidateRoleChange(w, "o", "m", models.RoleOwner); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("promotion to owner must be refused, got %v", err)
	}
	if err := r.ValidateRoleChange(w, "o", "ghost", models.RoleMember); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}

	b := boardWith(models.BoardGeneralSettings{}, member("o", models.RoleOwner), member("a", models.RoleAdmin), member("m", models.RoleMember))
	if err := r.ValidateRoleChange(b, "a", "m", models.RoleAdmin); err != nil {
		t.Fatalf("board admin holds manage_members: %v", err)
	}
}

func TestValidateMemberRemoval(t *testing.T) {
	r := NewResolver()
	b := boardWith(models.BoardGeneralSettings{}, member("o", models.RoleOwner), member("a", models.RoleAdmin), member("m", models.RoleMember), member("n", models.RoleMember))
	if err := r.ValidateMemberRemoval(b, "m", "m"); err != nil {
		t.Fatalf("member leaving: %v", err)
	}
	if err := r.ValidateMemberRemoval(b, "m", "n"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("member removing member must be denied, got %v", err)
	}
	if err := r.ValidateMemberRemoval(b, "a", "n"); err != nil {
		t.Fatalf("admin removing member: %v", err)
	}
	if err := r.ValidateMemberRemoval(b, "o", "o"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("owner removal must be refused, got %v", err)
	}
}
