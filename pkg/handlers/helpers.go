package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskboard-backend/pkg/config"
	"taskboard-backend/pkg/database"
	"taskboard-backend/pkg/middleware"
	"taskboard-backend/pkg/models"
	"taskboard-backend/pkg/permissions"
	"taskboard-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
)

// base carries what every resource handler needs
type base struct {
	config   *config.Config
	db       database.DatabaseInterface
	gate     *permissions.Gate
	notifier Notifier
}

func newBase(cfg *config.Config, db database.DatabaseInterface, notifier Notifier) base {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return base{config: cfg, db: db, gate: permissions.NewGate(nil), notifier: notifier}
}

// currentUser writes 401 and returns false when the request is anonymous
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return nil, false
	}
	return user, true
}

// urlParam returns a trimmed path parameter, writing 400 when it is empty
func urlParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(chiRoute.URLParam(r, name))
	if v == "" {
		utils.WriteBadRequestResponse(w, name+" is required")
		return "", false
	}
	return v, true
}

// writeStoreError maps storage sentinels to HTTP statuses
func writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		utils.WriteNotFoundResponse(w, what+" not found")
	case errors.Is(err, database.ErrConflict):
		utils.WriteConflictResponse(w, what+" was modified by another request, reload and retry")
	case errors.Is(err, database.ErrDuplicate):
		utils.WriteConflictResponse(w, what+" already exists")
	default:
		fmt.Printf("❌ %s: %v\n", what, err)
		utils.WriteInternalServerErrorResponse(w, "Failed to access "+what)
	}
}

// record appends to the activity log and fans the event out. Failures are
// logged only: the mutation has already been committed.
func (b *base) record(r *http.Request, kind models.EntityKind, entityID, actorID, action, detail string, recipients []string) {
	a := &models.Activity{EntityKind: kind, EntityID: entityID, ActorID: actorID, Action: action, Detail: detail}
	if err := b.db.RecordActivity(a); err != nil {
		fmt.Printf("⚠️  failed to record activity %s on %s/%s: %v\n", action, kind, entityID, err)
	}
	b.notifier.Notify(r.Context(), Event{EntityKind: kind, EntityID: entityID, ActorID: actorID, Action: action, Recipients: recipients})
}

// newMember builds a membership record with the role's default permissions
func newMember(kind models.EntityKind, userID string, role models.Role) models.Member {
	return models.Member{
		User:        models.RefID(userID),
		Role:        role,
		Permissions: permissions.StoredDefaults(kind, role),
		JoinedAt:    time.Now().UTC(),
	}
}

// setMemberRole rewrites the role and resets permissions to the role defaults
func setMemberRole(kind models.EntityKind, members []models.Member, userID string, role models.Role) bool {
	for i := range members {
		if members[i].User.Key() == userID {
			members[i].Role = role
			members[i].Permissions = permissions.StoredDefaults(kind, role)
			return true
		}
	}
	return false
}

func withoutMember(members []models.Member, userID string) []models.Member {
	out := make([]models.Member, 0, len(members))
	for _, m := range members {
		if m.User.Key() != userID {
			out = append(out, m)
		}
	}
	return out
}

func queryInt(r *http.Request, key string, def, max int) int {
	n, err := strconv.Atoi(utils.GetQueryParam(r, key, ""))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// createInvitation is shared by the board and workspace invite endpoints.
// The caller has already passed the invite_members check.
func (b *base) createInvitation(w http.ResponseWriter, r *http.Request, entity permissions.Entity, entityID string, inviter *models.User, req *models.InviteRequest) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	if u, err := b.db.GetUserByEmail(email); err == nil {
		if permissions.NewResolver().FindMember(entity.MemberList(), u.ID) != nil {
			utils.WriteConflictResponse(w, "User is already a member")
			return
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		writeStoreError(w, err, "user")
		return
	}

	tok, err := utils.GenerateURLToken(utils.InvitationTokenBytes)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate invitation token")
		return
	}
	inv := &models.Invitation{
		EntityKind: entity.EntityKind(),
		EntityID:   entityID,
		Email:      email,
		InviterID:  inviter.ID,
		Role:       role,
		Token:      tok,
		Status:     models.InvitationPending,
		ExpiresAt:  time.Now().UTC().Add(b.config.InvitationTTL),
	}
	if err := b.db.CreateInvitation(inv); err != nil {
		writeStoreError(w, err, "invitation")
		return
	}
	b.record(r, inv.EntityKind, entityID, inviter.ID, "member.invited", email, []string{email})
	utils.WriteCreatedResponse(w, map[string]interface{}{"invitation": inv})
}
