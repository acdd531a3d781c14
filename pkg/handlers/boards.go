package handlers

import (
	"net/http"
	"strings"

	"taskboard-backend/pkg/config"
	"taskboard-backend/pkg/database"
	"taskboard-backend/pkg/models"
	"taskboard-backend/pkg/permissions"
	"taskboard-backend/pkg/utils"
)

type BoardHandler struct {
	base
}

func NewBoardHandler(cfg *config.Config, db database.DatabaseInterface, notifier Notifier) *BoardHandler {
	return &BoardHandler{base: newBase(cfg, db, notifier)}
}

const boardSettingsHint = "settings: cardEditing/cardMoving must be admins_only, all_members or card_creator_only; memberListCreation/memberInvitation must be enabled or disabled"

func validBoardSettings(s models.BoardGeneralSettings) bool {
	return (s.CardEditing == "" || s.CardEditing.Valid()) &&
		(s.CardMoving == "" || s.CardMoving.Valid()) &&
		(s.MemberListCreation == "" || s.MemberListCreation.Valid()) &&
		(s.MemberInvitation == "" || s.MemberInvitation.Valid())
}

func (h *BoardHandler) loadBoard(w http.ResponseWriter, r *http.Request) (*models.Board, bool) {
	id, ok := urlParam(w, r, "id")
	if !ok {
		return nil, false
	}
	board, err := h.db.GetBoard(id)
	if err != nil {
		writeStoreError(w, err, "board")
		return nil, false
	}
	return board, true
}

// authorize loads the caller and the board and checks capability in one go
func (h *BoardHandler) authorize(w http.ResponseWriter, r *http.Request, capability permissions.Capability) (*models.User, *models.Board, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, nil, false
	}
	board, ok := h.loadBoard(w, r)
	if !ok {
		return nil, nil, false
	}
	if err := h.gate.RequireCapability(board, user.ID, capability); err != nil {
		utils.WritePermissionError(w, err)
		return nil, nil, false
	}
	return user, board, true
}

// GET /api/boards/{id}
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	user, board, ok := h.authorize(w, r, permissions.ViewBoard)
	if !ok {
		return
	}
	lists, err := h.db.ListListsByBoard(board.ID)
	if err != nil {
		writeStoreError(w, err, "lists")
		return
	}
	cards, err := h.db.ListCardsByBoard(board.ID)
	if err != nil {
		writeStoreError(w, err, "cards")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"board": board,
		"lists": lists,
		"cards": cards,
		"can": map[string]bool{
			"create_lists":    h.gate.Can(board, user.ID, permissions.CreateLists),
			"create_cards":    h.gate.Can(board, user.ID, permissions.CreateCards),
			"invite_members":  h.gate.Can(board, user.ID, permissions.InviteMembers),
			"manage_settings": h.gate.Can(board, user.ID, permissions.ManageSettings),
		},
	})
}

// PUT /api/boards/{id}
func (h *BoardHandler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	user, board, ok := h.authorize(w, r, permissions.EditBoard)
	if !ok {
		return
	}
	var req models.BoardUpdateRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if req.Name != nil {
		board.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.Background != nil {
		board.Background = *req.Background
	}
	if err := h.db.UpdateBoard(board); err != nil {
		writeStoreError(w, err, "board")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "board.updated", "", memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"board": board})
}

// PUT /api/boards/{id}/settings
func (h *BoardHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, board, ok := h.authorize(w, r, permissions.ManageSettings)
	if !ok {
		return
	}
	var req models.BoardSettingsRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	g := &board.Settings.General
	var changed []string
	if req.CardEditing != nil {
		g.CardEditing = *req.CardEditing
		changed = append(changed, "cardEditing")
	}
	if req.CardMoving != nil {
		g.CardMoving = *req.CardMoving
		changed = append(changed, "cardMoving")
	}
	if req.MemberListCreation != nil {
		g.MemberListCreation = *req.MemberListCreation
		changed = append(changed, "memberListCreation")
	}
	if req.MemberInvitation != nil {
		g.MemberInvitation = *req.MemberInvitation
		changed = append(changed, "memberInvitation")
	}
	if !validBoardSettings(*g) {
		utils.WriteValidationErrorResponse(w, "Validation failed", boardSettingsHint)
		return
	}
	if err := h.db.UpdateBoard(board); err != nil {
		writeStoreError(w, err, "board")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "board.settings_changed", strings.Join(changed, ","), memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"board": board})
}

// POST /api/boards/{id}/archive
func (h *BoardHandler) ArchiveBoard(w http.ResponseWriter, r *http.Request) {
	user, board, ok := h.authorize(w, r, permissions.ArchiveBoard)
	if !ok {
		return
	}
	board.Archived = true
	if err := h.db.UpdateBoard(board); err != nil {
		writeStoreError(w, err, "board")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "board.archived", "", memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"board": board})
}

// DELETE /api/boards/{id}
func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	user, board, ok := h.authorize(w, r, permissions.DeleteBoard)
	if !ok {
		return
	}
	if err := h.db.DeleteBoard(board.ID); err != nil {
		writeStoreError(w, err, "board")
		return
	}
	if board.WorkspaceID != "" {
		h.record(r, models.KindWorkspace, board.WorkspaceID, user.ID, "board.deleted", board.ID, nil)
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "board.deleted", board.Name, memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": board.ID})
}

// PUT /api/boards/{id}/members/{userID}
func (h *BoardHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	board, ok := h.loadBoard(w, r)
	if !ok {
		return
	}
	targetID, ok := urlParam(w, r, "userID")
	if !ok {
		return
	}
	var req models.MemberUpdateRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gate.RequireRoleChange(board, user.ID, targetID, req.Role); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	setMemberRole(models.KindBoard, board.Members, targetID, req.Role)
	if err := h.db.UpdateBoard(board); err != nil {
		writeStoreError(w, err, "board")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "member.role_changed", targetID+":"+string(req.Role), []string{targetID})
	utils.WriteSuccessResponse(w, map[string]interface{}{"board": board})
}

// DELETE /api/boards/{id}/members/{userID}
func (h *BoardHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	board, ok := h.loadBoard(w, r)
	if !ok {
		return
	}
	targetID, ok := urlParam(w, r, "userID")
	if !ok {
		return
	}
	if err := h.gate.RequireMemberRemoval(board, user.ID, targetID); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	board.Members = withoutMember(board.Members, targetID)
	if err := h.db.UpdateBoard(board); err != nil {
		writeStoreError(w, err, "board")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "member.removed", targetID, []string{targetID})
	utils.WriteSuccessResponse(w, map[string]interface{}{"board": board})
}

// POST /api/boards/{id}/invitations
func (h *BoardHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	board, ok := h.loadBoard(w, r)
	if !ok {
		return
	}
	var req models.InviteRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gate.RequireCapability(board, user.ID, permissions.InviteMembers); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	h.createInvitation(w, r, board, board.ID, user, &req)
}

// GET /api/boards/{id}/activity
func (h *BoardHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	_, board, ok := h.authorize(w, r, permissions.ViewBoard)
	if !ok {
		return
	}
	items, err := h.db.ListActivities(models.KindBoard, board.ID, queryInt(r, "limit", 50, 200))
	if err != nil {
		writeStoreError(w, err, "activity")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"activity": items})
}
