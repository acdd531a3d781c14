package permissions

import (
	"errors"
	"testing"

	"taskboard-backend/pkg/models"
)

type recordingAuthorizer struct {
	*Resolver
	calls []string
}

func (a *recordingAuthorizer) VerifyPermission(entity Entity, userID string, capability Capability) error {
	a.calls = append(a.calls, "permission:"+string(capability))
	return a.Resolver.VerifyPermission(entity, userID, capability)
}

func (a *recordingAuthorizer) VerifyCriticalSettings(workspace *models.Workspace, userID string) error {
	a.calls = append(a.calls, "critical")
	return a.Resolver.VerifyCriticalSettings(workspace, userID)
}

func TestGateSettingsChangeRouting(t *testing.T) {
	auth := &recordingAuthorizer{Resolver: NewResolver()}
	gate := NewGate(auth)
	w := workspaceWith(models.WorkspaceSettings{}, member("o", models.RoleOwner), member("a", models.RoleAdmin))

	if err := gate.RequireSettingsChange(w, "a", nil); err != nil {
		t.Fatalf("admin holds manage_settings: %v", err)
	}
	if err := gate.RequireSettingsChange(w, "a", []string{models.SettingBoardCreation}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("admin must not change boardCreation, got %v", err)
	}
	if err := gate.RequireSettingsChange(w, "o", []string{models.SettingInviteRestriction}); err != nil {
		t.Fatalf("owner changing inviteRestriction: %v", err)
	}
	want := []string{"permission:manage_settings", "critical", "critical"}
	if len(auth.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, auth.calls)
	}
	for i := range want {
		if auth.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, auth.calls)
		}
	}
}

func TestGateDefaultsToResolver(t *testing.T) {
	gate := NewGate(nil)
	b := boardWith(models.BoardGeneralSettings{}, member("m", models.RoleMember))
	if err := gate.RequireCapability(b, "m", ViewBoard); err != nil {
		t.Fatalf("member must view board: %v", err)
	}
	err := gate.RequireCapability(b, "m", DeleteBoard)
	pe, ok := AsError(err)
	if !ok || pe.Kind != KindPermissionDenied || pe.Capability != DeleteBoard {
		t.Fatalf("expected PermissionDenied{delete_board}, got %v", err)
	}
	if gate.Can(b, "m", DeleteBoard) {
		t.Fatalf("Can must mirror RequireCapability")
	}
	card := &models.Card{CreatedBy: "m"}
	if err := gate.RequireCardEdit(b, card, "m"); err != nil {
		t.Fatalf("creator edits own card: %v", err)
	}
	if err := gate.RequireCardCompletion(b, card, "m"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("unassigned member completes card: %v", err)
	}
}
