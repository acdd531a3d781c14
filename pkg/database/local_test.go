package database

import (
	"errors"
	"testing"
	"time"

	"taskboard-backend/pkg/models"
)

func newTestDB(t *testing.T) *LocalDatabase {
	t.Helper()
	db, err := NewLocalDatabase(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalDatabase: %v", err)
	}
	return db
}

func member(id string, role models.Role) models.Member {
	return models.Member{User: models.RefID(id), Role: role}
}

func TestLocalUsers(t *testing.T) {
	db := newTestDB(t)
	u := &models.User{Email: "Ann@Example.com", Password: "hash"}
	if err := db.CreateUser(u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Provider != "email" {
		t.Fatalf("user not initialised: %+v", u)
	}
	if err := db.CreateUser(&models.User{Email: "ann@example.com"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email: got %v", err)
	}

	// a second user must not wipe the first user's password hash
	if err := db.CreateUser(&models.User{Email: "bob@example.com", Password: "other"}); err != nil {
		t.Fatalf("CreateUser bob: %v", err)
	}
	got, err := db.GetUserByEmail("ann@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.Password != "hash" {
		t.Errorf("password hash lost: %q", got.Password)
	}
	if _, err := db.GetUserByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByID missing: got %v", err)
	}
}

func TestLocalWorkspaceConflict(t *testing.T) {
	db := newTestDB(t)
	ws := &models.Workspace{Name: "Team", CreatedBy: "u1", Members: []models.Member{member("u1", models.RoleOwner)}}
	if err := db.CreateWorkspace(ws); err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}

	a, _ := db.GetWorkspace(ws.ID)
	b, _ := db.GetWorkspace(ws.ID)

	a.Name = "first"
	if err := db.UpdateWorkspace(a); err != nil {
		t.Fatalf("first update: %v", err)
	}
	b.Name = "second"
	if err := db.UpdateWorkspace(b); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale update: got %v, want ErrConflict", err)
	}

	stored, _ := db.GetWorkspace(ws.ID)
	if stored.Name != "first" {
		t.Errorf("name = %q, want first", stored.Name)
	}

	missing := &models.Workspace{ID: "nope"}
	if err := db.UpdateWorkspace(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing update: got %v", err)
	}

	list, err := db.ListUserWorkspaces("u1")
	if err != nil || len(list) != 1 {
		t.Errorf("ListUserWorkspaces = %v, %v", list, err)
	}
	if list, _ := db.ListUserWorkspaces("u2"); len(list) != 0 {
		t.Errorf("non-member sees %d workspaces", len(list))
	}
}

func TestLocalBoardMembersRoundTrip(t *testing.T) {
	db := newTestDB(t)
	b := &models.Board{
		Name:      "Roadmap",
		CreatedBy: "u1",
		Members: []models.Member{
			member("u1", models.RoleOwner),
			{User: models.UserRef{Kind: models.RefKindExpanded, ID: "u2", User: &models.User{ID: "u2", Email: "b@x"}}, Role: models.RoleMember},
		},
		Settings: models.BoardSettings{General: models.BoardGeneralSettings{CardEditing: models.CardPolicyAllMembers}},
	}
	if err := db.CreateBoard(b); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	got, err := db.GetBoard(b.ID)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if len(got.Members) != 2 || got.Members[1].User.Key() != "u2" {
		t.Fatalf("members = %+v", got.Members)
	}
	if got.Settings.EffectiveCardEditing() != models.CardPolicyAllMembers {
		t.Errorf("settings lost: %+v", got.Settings)
	}
}

func TestLocalDeleteBoardCascades(t *testing.T) {
	db := newTestDB(t)
	b := &models.Board{Name: "B", CreatedBy: "u1"}
	if err := db.CreateBoard(b); err != nil {
		t.Fatal(err)
	}
	l := &models.List{BoardID: b.ID, Title: "Todo", CreatedBy: "u1"}
	if err := db.CreateList(l); err != nil {
		t.Fatal(err)
	}
	c := &models.Card{BoardID: b.ID, ListID: l.ID, Title: "x", CreatedBy: "u1"}
	if err := db.CreateCard(c); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteBoard(b.ID); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if _, err := db.GetList(l.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("list survived: %v", err)
	}
	if _, err := db.GetCard(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("card survived: %v", err)
	}
	if err := db.DeleteBoard(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestLocalListsOrderedByPosition(t *testing.T) {
	db := newTestDB(t)
	for i, title := range []string{"c", "a", "b"} {
		pos := []int{2, 0, 1}[i]
		if err := db.CreateList(&models.List{BoardID: "b1", Title: title, Position: pos}); err != nil {
			t.Fatal(err)
		}
	}
	lists, err := db.ListListsByBoard("b1")
	if err != nil {
		t.Fatal(err)
	}
	var titles string
	for _, l := range lists {
		titles += l.Title
	}
	if titles != "abc" {
		t.Errorf("order = %q", titles)
	}
}

func TestLocalInvitations(t *testing.T) {
	db := newTestDB(t)
	inv := &models.Invitation{
		EntityKind: models.KindBoard, EntityID: "b1", Email: "New@x.io", InviterID: "u1",
		Role: models.RoleMember, Token: "tok", Status: models.InvitationPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.CreateInvitation(inv); err != nil {
		t.Fatal(err)
	}
	mine, err := db.ListInvitationsByEmail("new@x.io")
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListInvitationsByEmail = %v, %v", mine, err)
	}
	got, err := db.GetInvitationByToken("tok")
	if err != nil {
		t.Fatal(err)
	}
	got.Status = models.InvitationAccepted
	if err := db.UpdateInvitation(got); err != nil {
		t.Fatal(err)
	}
	again, _ := db.GetInvitationByToken("tok")
	if again.Status != models.InvitationAccepted {
		t.Errorf("status = %s", again.Status)
	}
}

func TestLocalActivitiesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	for _, action := range []string{"one", "two", "three"} {
		if err := db.RecordActivity(&models.Activity{EntityKind: models.KindBoard, EntityID: "b1", ActorID: "u1", Action: action}); err != nil {
			t.Fatal(err)
		}
	}
	_ = db.RecordActivity(&models.Activity{EntityKind: models.KindWorkspace, EntityID: "b1", Action: "other"})

	got, err := db.ListActivities(models.KindBoard, "b1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Action != "three" || got[1].Action != "two" {
		t.Errorf("activities = %+v", got)
	}
}

func TestNewDatabaseSelection(t *testing.T) {
	if _, err := NewDatabase(DatabaseConfig{}); err == nil {
		t.Error("empty config should fail")
	}
	db, err := NewDatabase(DatabaseConfig{UseLocalDB: true, LocalDataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if _, ok := db.(*LocalDatabase); !ok {
		t.Errorf("got %T, want *LocalDatabase", db)
	}
}

func TestAddConnectionParams(t *testing.T) {
	cases := map[string]string{
		"postgres://u@h/db":                 "postgres://u@h/db?connect_timeout=10",
		"postgres://u@h/db?sslmode=disable": "postgres://u@h/db?sslmode=disable&connect_timeout=10",
		"host=localhost dbname=x":           "host=localhost dbname=x connect_timeout=10",
	}
	for in, want := range cases {
		if got := addConnectionParams(in, "connect_timeout=10"); got != want {
			t.Errorf("addConnectionParams(%q) = %q, want %q", in, got, want)
		}
	}
}
