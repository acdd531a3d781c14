package handlers

import (
	"net/http"
	"strings"

	"taskboard-backend/pkg/models"
	"taskboard-backend/pkg/permissions"
	"taskboard-backend/pkg/utils"
)

// loadList fetches {listID} and makes sure it belongs to board
func (h *BoardHandler) loadList(w http.ResponseWriter, r *http.Request, board *models.Board, param string) (*models.List, bool) {
	id, ok := urlParam(w, r, param)
	if !ok {
		return nil, false
	}
	return h.listOnBoard(w, board, id)
}

func (h *BoardHandler) listOnBoard(w http.ResponseWriter, board *models.Board, listID string) (*models.List, bool) {
	list, err := h.db.GetList(listID)
	if err != nil {
		writeStoreError(w, err, "list")
		return nil, false
	}
	if list.BoardID != board.ID {
		utils.WriteNotFoundResponse(w, "list not found")
		return nil, false
	}
	return list, true
}

// POST /api/boards/{id}/lists
func (h *BoardHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	user, board, ok := h.authorize(w, r, permissions.CreateLists)
	if !ok {
		return
	}
	var req models.ListCreateRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	list := &models.List{BoardID: board.ID, Title: strings.TrimSpace(req.Title), CreatedBy: user.ID}
	if req.Position != nil {
		list.Position = *req.Position
	} else {
		existing, err := h.db.ListListsByBoard(board.ID)
		if err != nil {
			writeStoreError(w, err, "lists")
			return
		}
		list.Position = len(existing)
	}
	if err := h.db.CreateList(list); err != nil {
		writeStoreError(w, err, "list")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "list.created", list.Title, memberIDs(board.Members, user.ID))
	utils.WriteCreatedResponse(w, map[string]interface{}{"list": list})
}

// PUT /api/boards/{id}/lists/{listID}
func (h *BoardHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	user, board, ok := h.authorize(w, r, permissions.EditLists)
	if !ok {
		return
	}
	list, ok := h.loadList(w, r, board, "listID")
	if !ok {
		return
	}
	var req models.ListUpdateRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if req.Title != nil {
		list.Title = strings.TrimSpace(*req.Title)
	}
	if req.Position != nil {
		list.Position = *req.Position
	}
	if err := h.db.UpdateList(list); err != nil {
		writeStoreError(w, err, "list")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "list.updated", list.ID, memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"list": list})
}

// POST /api/boards/{id}/lists/{listID}/archive
func (h *BoardHandler) ArchiveList(w http.ResponseWriter, r *http.Request) {
	user, board, ok := h.authorize(w, r, permissions.ArchiveLists)
	if !ok {
		return
	}
	list, ok := h.loadList(w, r, board, "listID")
	if !ok {
		return
	}
	list.Archived = true
	if err := h.db.UpdateList(list); err != nil {
		writeStoreError(w, err, "list")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "list.archived", list.ID, memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"list": list})
}
