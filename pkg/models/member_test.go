package models

import (
	"encoding/json"
	"testing"
)

func TestUserRefUnmarshalForms(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind RefKind
		key  string
	}{
		{name: "bare id", raw: `"u1"`, kind: RefKindID, key: "u1"},
		{name: "expanded", raw: `{"id":"u2","email":"b@example.com"}`, kind: RefKindExpanded, key: "u2"},
		{name: "numeric id", raw: `42`, kind: RefKindID, key: "42"},
		{name: "null", raw: `null`, kind: RefKindNone, key: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ref UserRef
			if err := json.Unmarshal([]byte(tc.raw), &ref); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.raw, err)
			}
			if ref.Kind != tc.kind {
				t.Fatalf("expected kind %d, got %d", tc.kind, ref.Kind)
			}
			if ref.Key() != tc.key {
				t.Fatalf("expected key %q, got %q", tc.key, ref.Key())
			}
		})
	}
}

func TestUserRefRejectsGarbage(t *testing.T) {
	var ref UserRef
	if err := json.Unmarshal([]byte(`[1,2]`), &ref); err == nil {
		t.Fatalf("expected error for array user reference")
	}
}

func TestMemberMarshalsBareID(t *testing.T) {
	m := Member{User: RefUser(&User{ID: "u9", Email: "x@example.com"}), Role: RoleAdmin}
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back struct {
		User string `json:"user"`
	}
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.User != "u9" {
		t.Fatalf("expected stored user u9, got %q", back.User)
	}
}

func TestSettingsDefaultsAndRestrictiveFallback(t *testing.T) {
	var empty BoardSettings
	if got := empty.EffectiveCardEditing(); got != CardPolicyAdminsOnly {
		t.Fatalf("expected admins_only default, got %s", got)
	}
	bogus := BoardSettings{General: BoardGeneralSettings{CardMoving: "everyone", MemberListCreation: "yes"}}
	if got := bogus.EffectiveCardMoving(); got != CardPolicyCardCreatorOnly {
		t.Fatalf("expected card_creator_only for unknown value, got %s", got)
	}
	if bogus.MemberListCreationEnabled() {
		t.Fatalf("unknown toggle must not enable list creation")
	}

	ws := WorkspaceSettings{BoardCreation: "anyone"}
	if got := ws.EffectiveBoardCreation(); got != ThresholdOwner {
		t.Fatalf("expected owner for unknown threshold, got %s", got)
	}
	if got := ws.EffectiveInviteRestriction(); got != ThresholdAdmin {
		t.Fatalf("expected admin default, got %s", got)
	}
}

func TestRoleThresholdAllows(t *testing.T) {
	if !ThresholdAdmin.Allows(RoleOwner) || !ThresholdAdmin.Allows(RoleAdmin) || ThresholdAdmin.Allows(RoleMember) {
		t.Fatalf("admin threshold mismatch")
	}
	if ThresholdOwner.Allows(RoleAdmin) {
		t.Fatalf("owner threshold must reject admin")
	}
	if Role("guest").Valid() || RoleThreshold("member").Allows(Role("guest")) {
		t.Fatalf("unknown role must not pass")
	}
}
