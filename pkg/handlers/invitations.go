package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"taskboard-backend/pkg/config"
	"taskboard-backend/pkg/database"
	"taskboard-backend/pkg/models"
	"taskboard-backend/pkg/permissions"
	"taskboard-backend/pkg/utils"
)

type InvitationHandler struct {
	base
}

func NewInvitationHandler(cfg *config.Config, db database.DatabaseInterface, notifier Notifier) *InvitationHandler {
	return &InvitationHandler{base: newBase(cfg, db, notifier)}
}

// GET /api/invitations/my
func (h *InvitationHandler) ListMyInvitations(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.db.ListInvitationsByEmail(user.Email)
	if err != nil {
		writeStoreError(w, err, "invitations")
		return
	}
	now := time.Now()
	pending := make([]models.Invitation, 0, len(items))
	for _, inv := range items {
		if inv.Status == models.InvitationPending && now.Before(inv.ExpiresAt) {
			pending = append(pending, inv)
		}
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"invitations": pending})
}

// POST /api/invitations/accept
func (h *InvitationHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.AcceptInvitationRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	inv, err := h.db.GetInvitationByToken(strings.TrimSpace(req.Token))
	if err != nil {
		writeStoreError(w, err, "invitation")
		return
	}
	if inv.Status != models.InvitationPending {
		utils.WriteConflictResponse(w, "Invitation is no longer pending")
		return
	}
	if !time.Now().Before(inv.ExpiresAt) {
		inv.Status = models.InvitationExpired
		if err := h.db.UpdateInvitation(inv); err != nil {
			fmt.Printf("⚠️  failed to mark invitation %s expired: %v\n", inv.ID, err)
		}
		utils.WriteErrorResponseWithCode(w, http.StatusGone, "INVITATION_EXPIRED", "Invitation has expired", "")
		return
	}
	if !strings.EqualFold(inv.Email, user.Email) {
		utils.WriteForbiddenResponse(w, "Invitation was sent to a different email address")
		return
	}

	role := inv.Role
	if role != models.RoleAdmin {
		role = models.RoleMember
	}
	var entity interface{}
	switch inv.EntityKind {
	case models.KindBoard:
		board, err := h.db.GetBoard(inv.EntityID)
		if err != nil {
			writeStoreError(w, err, "board")
			return
		}
		if permissions.NewResolver().FindMember(board.Members, user.ID) == nil {
			board.Members = append(board.Members, newMember(models.KindBoard, user.ID, role))
			if err := h.db.UpdateBoard(board); err != nil {
				writeStoreError(w, err, "board")
				return
			}
		}
		entity = board
	case models.KindWorkspace:
		ws, err := h.db.GetWorkspace(inv.EntityID)
		if err != nil {
			writeStoreError(w, err, "workspace")
			return
		}
		if permissions.NewResolver().FindMember(ws.Members, user.ID) == nil {
			ws.Members = append(ws.Members, newMember(models.KindWorkspace, user.ID, role))
			if err := h.db.UpdateWorkspace(ws); err != nil {
				writeStoreError(w, err, "workspace")
				return
			}
		}
		entity = ws
	default:
		utils.WriteBadRequestResponse(w, "Invitation target is invalid")
		return
	}

	inv.Status = models.InvitationAccepted
	inv.AcceptedBy = &user.ID
	if err := h.db.UpdateInvitation(inv); err != nil {
		writeStoreError(w, err, "invitation")
		return
	}
	h.record(r, inv.EntityKind, inv.EntityID, user.ID, "member.joined", string(role), []string{inv.InviterID})
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"invitation": inv,
		string(inv.EntityKind): entity,
	})
}
