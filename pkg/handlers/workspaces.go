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

type WorkspaceHandler struct {
	base
}

func NewWorkspaceHandler(cfg *config.Config, db database.DatabaseInterface, notifier Notifier) *WorkspaceHandler {
	return &WorkspaceHandler{base: newBase(cfg, db, notifier)}
}

func (h *WorkspaceHandler) loadWorkspace(w http.ResponseWriter, r *http.Request) (*models.Workspace, bool) {
	id, ok := urlParam(w, r, "id")
	if !ok {
		return nil, false
	}
	ws, err := h.db.GetWorkspace(id)
	if err != nil {
		writeStoreError(w, err, "workspace")
		return nil, false
	}
	return ws, true
}

func validWorkspaceSettings(s models.WorkspaceSettings) bool {
	return (s.BoardCreation == "" || s.BoardCreation.Valid()) &&
		(s.InviteRestriction == "" || s.InviteRestriction.Valid())
}

// POST /api/workspaces
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.WorkspaceCreateRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if !validWorkspaceSettings(req.Settings) {
		utils.WriteValidationErrorResponse(w, "Validation failed", "settings: boardCreation and inviteRestriction must be owner, admin or member")
		return
	}

	ws := &models.Workspace{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedBy:   user.ID,
		Members:     []models.Member{newMember(models.KindWorkspace, user.ID, models.RoleOwner)},
		Settings:    req.Settings,
	}
	if err := h.db.CreateWorkspace(ws); err != nil {
		writeStoreError(w, err, "workspace")
		return
	}
	h.record(r, models.KindWorkspace, ws.ID, user.ID, "workspace.created", ws.Name, nil)
	utils.WriteCreatedResponse(w, map[string]interface{}{"workspace": ws})
}

// GET /api/workspaces
func (h *WorkspaceHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.db.ListUserWorkspaces(user.ID)
	if err != nil {
		writeStoreError(w, err, "workspaces")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"workspaces": items})
}

// GET /api/workspaces/{id}
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	if err := h.gate.RequireCapability(ws, user.ID, permissions.ViewWorkspace); err != nil {
		utils.WritePermissionError(w, err)
		return
	}

	boards, err := h.db.ListBoardsByWorkspace(ws.ID)
	if err != nil {
		writeStoreError(w, err, "boards")
		return
	}
	// only boards the caller can open
	visible := make([]models.Board, 0, len(boards))
	for i := range boards {
		if h.gate.Can(&boards[i], user.ID, permissions.ViewBoard) {
			visible = append(visible, boards[i])
		}
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"workspace": ws,
		"boards":    visible,
		"can": map[string]bool{
			"create_boards":   h.gate.Can(ws, user.ID, permissions.CreateBoards),
			"invite_members":  h.gate.Can(ws, user.ID, permissions.InviteMembers),
			"manage_settings": h.gate.Can(ws, user.ID, permissions.ManageSettings),
		},
	})
}

// PUT /api/workspaces/{id}
func (h *WorkspaceHandler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	var req models.WorkspaceUpdateRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gate.RequireCapability(ws, user.ID, permissions.EditWorkspace); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	if keys := req.Settings.Keys(); len(keys) > 0 {
		if err := h.gate.RequireSettingsChange(ws, user.ID, keys); err != nil {
			utils.WritePermissionError(w, err)
			return
		}
		if p := req.Settings.BoardCreation; p != nil {
			ws.Settings.BoardCreation = *p
		}
		if p := req.Settings.InviteRestriction; p != nil {
			ws.Settings.InviteRestriction = *p
		}
		if !validWorkspaceSettings(ws.Settings) {
			utils.WriteValidationErrorResponse(w, "Validation failed", "settings: boardCreation and inviteRestriction must be owner, admin or member")
			return
		}
	}
	if req.Name != nil {
		ws.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		ws.Description = *req.Description
	}

	if err := h.db.UpdateWorkspace(ws); err != nil {
		writeStoreError(w, err, "workspace")
		return
	}
	h.record(r, models.KindWorkspace, ws.ID, user.ID, "workspace.updated", strings.Join(req.Settings.Keys(), ","), memberIDs(ws.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"workspace": ws})
}

// DELETE /api/workspaces/{id}
func (h *WorkspaceHandler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	if err := h.gate.RequireCapability(ws, user.ID, permissions.DeleteWorkspace); err != nil {
		utils.WritePermissionError(w, err)
		return
	}

	boards, err := h.db.ListBoardsByWorkspace(ws.ID)
	if err != nil {
		writeStoreError(w, err, "boards")
		return
	}
	for _, b := range boards {
		if err := h.db.DeleteBoard(b.ID); err != nil {
			writeStoreError(w, err, "board")
			return
		}
	}
	if err := h.db.DeleteWorkspace(ws.ID); err != nil {
		writeStoreError(w, err, "workspace")
		return
	}
	h.record(r, models.KindWorkspace, ws.ID, user.ID, "workspace.deleted", ws.Name, memberIDs(ws.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": ws.ID})
}

// PUT /api/workspaces/{id}/members/{userID}
func (h *WorkspaceHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
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
	if err := h.gate.RequireRoleChange(ws, user.ID, targetID, req.Role); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	setMemberRole(models.KindWorkspace, ws.Members, targetID, req.Role)
	if err := h.db.UpdateWorkspace(ws); err != nil {
		writeStoreError(w, err, "workspace")
		return
	}
	h.record(r, models.KindWorkspace, ws.ID, user.ID, "member.role_changed", targetID+":"+string(req.Role), []string{targetID})
	utils.WriteSuccessResponse(w, map[string]interface{}{"workspace": ws})
}

// DELETE /api/workspaces/{id}/members/{userID}
func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	targetID, ok := urlParam(w, r, "userID")
	if !ok {
		return
	}
	if err := h.gate.RequireMemberRemoval(ws, user.ID, targetID); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	ws.Members = withoutMember(ws.Members, targetID)
	if err := h.db.UpdateWorkspace(ws); err != nil {
		writeStoreError(w, err, "workspace")
		return
	}
	h.record(r, models.KindWorkspace, ws.ID, user.ID, "member.removed", targetID, []string{targetID})
	utils.WriteSuccessResponse(w, map[string]interface{}{"workspace": ws})
}

// POST /api/workspaces/{id}/boards
func (h *WorkspaceHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	var req models.BoardCreateRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gate.RequireCapability(ws, user.ID, permissions.CreateBoards); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	if !validBoardSettings(req.Settings.General) {
		utils.WriteValidationErrorResponse(w, "Validation failed", boardSettingsHint)
		return
	}

	board := &models.Board{
		WorkspaceID: ws.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Background:  req.Background,
		CreatedBy:   user.ID,
		Members:     []models.Member{newMember(models.KindBoard, user.ID, models.RoleOwner)},
		Settings:    req.Settings,
	}
	if err := h.db.CreateBoard(board); err != nil {
		writeStoreError(w, err, "board")
		return
	}
	h.record(r, models.KindWorkspace, ws.ID, user.ID, "board.created", board.ID, nil)
	h.record(r, models.KindBoard, board.ID, user.ID, "board.created", board.Name, nil)
	utils.WriteCreatedResponse(w, map[string]interface{}{"board": board})
}

// POST /api/workspaces/{id}/invitations
func (h *WorkspaceHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	var req models.InviteRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gate.RequireCapability(ws, user.ID, permissions.InviteMembers); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	h.createInvitation(w, r, ws, ws.ID, user, &req)
}

// GET /api/workspaces/{id}/activity
func (h *WorkspaceHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	if err := h.gate.RequireCapability(ws, user.ID, permissions.ViewWorkspace); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	items, err := h.db.ListActivities(models.KindWorkspace, ws.ID, queryInt(r, "limit", 50, 200))
	if err != nil {
		writeStoreError(w, err, "activity")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"activity": items})
}
