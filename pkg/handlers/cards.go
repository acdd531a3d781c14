package handlers

import (
	"net/http"
	"strings"
	"time"

	"taskboard-backend/pkg/models"
	"taskboard-backend/pkg/permissions"
	"taskboard-backend/pkg/utils"
)

// loadCard resolves the caller, {id} and {cardID}. Cards are only reached
// through their board so a card id from another board is a 404.
func (h *BoardHandler) loadCard(w http.ResponseWriter, r *http.Request) (*models.User, *models.Board, *models.Card, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, nil, nil, false
	}
	board, ok := h.loadBoard(w, r)
	if !ok {
		return nil, nil, nil, false
	}
	cardID, ok := urlParam(w, r, "cardID")
	if !ok {
		return nil, nil, nil, false
	}
	card, err := h.db.GetCard(cardID)
	if err != nil {
		writeStoreError(w, err, "card")
		return nil, nil, nil, false
	}
	if card.BoardID != board.ID {
		utils.WriteNotFoundResponse(w, "card not found")
		return nil, nil, nil, false
	}
	return user, board, card, true
}

// POST /api/boards/{id}/cards
func (h *BoardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	user, board, ok := h.authorize(w, r, permissions.CreateCards)
	if !ok {
		return
	}
	var req models.CardCreateRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	list, ok := h.listOnBoard(w, board, req.ListID)
	if !ok {
		return
	}
	if list.Archived {
		utils.WriteBadRequestResponse(w, "Cannot add cards to an archived list")
		return
	}

	cards, err := h.db.ListCardsByBoard(board.ID)
	if err != nil {
		writeStoreError(w, err, "cards")
		return
	}
	position := 0
	for _, c := range cards {
		if c.ListID == list.ID {
			position++
		}
	}
	card := &models.Card{
		BoardID:     board.ID,
		ListID:      list.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		CreatedBy:   user.ID,
		Members:     []models.CardMember{},
		Position:    position,
		DueAt:       req.DueAt,
	}
	if err := h.db.CreateCard(card); err != nil {
		writeStoreError(w, err, "card")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "card.created", card.ID, memberIDs(board.Members, user.ID))
	utils.WriteCreatedResponse(w, map[string]interface{}{"card": card})
}

// PUT /api/boards/{id}/cards/{cardID}
func (h *BoardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	user, board, card, ok := h.loadCard(w, r)
	if !ok {
		return
	}
	var req models.CardUpdateRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gate.RequireCardEdit(board, card, user.ID); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	if req.Title != nil {
		card.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		card.Description = *req.Description
	}
	if req.DueAt != nil {
		card.DueAt = req.DueAt
	}
	if err := h.db.UpdateCard(card); err != nil {
		writeStoreError(w, err, "card")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "card.updated", card.ID, memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"card": card})
}

// POST /api/boards/{id}/cards/{cardID}/move
func (h *BoardHandler) MoveCard(w http.ResponseWriter, r *http.Request) {
	user, board, card, ok := h.loadCard(w, r)
	if !ok {
		return
	}
	var req models.CardMoveRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gate.RequireCardMove(board, card, user.ID); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	target, ok := h.listOnBoard(w, board, req.ListID)
	if !ok {
		return
	}
	from := card.ListID
	card.ListID = target.ID
	card.Position = req.Position
	if err := h.db.UpdateCard(card); err != nil {
		writeStoreError(w, err, "card")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "card.moved", card.ID+":"+from+"->"+target.ID, memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"card": card})
}

// POST /api/boards/{id}/cards/{cardID}/complete
func (h *BoardHandler) CompleteCard(w http.ResponseWriter, r *http.Request) {
	user, board, card, ok := h.loadCard(w, r)
	if !ok {
		return
	}
	var req models.CardCompleteRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gate.RequireCardCompletion(board, card, user.ID); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	card.Completed = req.Completed
	if req.Completed {
		now := time.Now().UTC()
		card.CompletedAt = &now
	} else {
		card.CompletedAt = nil
	}
	if err := h.db.UpdateCard(card); err != nil {
		writeStoreError(w, err, "card")
		return
	}
	action := "card.completed"
	if !req.Completed {
		action = "card.reopened"
	}
	h.record(r, models.KindBoard, board.ID, user.ID, action, card.ID, memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"card": card})
}

// DELETE /api/boards/{id}/cards/{cardID}
func (h *BoardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	user, board, card, ok := h.loadCard(w, r)
	if !ok {
		return
	}
	if err := h.gate.RequireCapability(board, user.ID, permissions.DeleteCards); err != nil {
		utils.WritePermissionError(w, err)
		return
	}
	if err := h.db.DeleteCard(card.ID); err != nil {
		writeStoreError(w, err, "card")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "card.deleted", card.ID, memberIDs(board.Members, user.ID))
	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": card.ID})
}

// PUT /api/boards/{id}/cards/{cardID}/members
func (h *BoardHandler) SetCardMembers(w http.ResponseWriter, r *http.Request) {
	user, board, card, ok := h.loadCard(w, r)
	if !ok {
		return
	}
	var req models.CardMembersRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gate.RequireCardEdit(board, card, user.ID); err != nil {
		utils.WritePermissionError(w, err)
		return
	}

	resolver := permissions.NewResolver()
	previous := make(map[string]time.Time, len(card.Members))
	for _, m := range card.Members {
		previous[m.User.Key()] = m.AssignedAt
	}
	now := time.Now().UTC()
	seen := make(map[string]bool, len(req.UserIDs))
	assigned := make([]models.CardMember, 0, len(req.UserIDs))
	for _, id := range req.UserIDs {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		seen[id] = true
		if resolver.FindMember(board.Members, id) == nil {
			utils.WriteValidationErrorResponse(w, "Validation failed", "user "+id+" is not a board member")
			return
		}
		at, ok := previous[id]
		if !ok {
			at = now
		}
		assigned = append(assigned, models.CardMember{User: models.RefID(id), AssignedAt: at})
	}
	card.Members = assigned
	if err := h.db.UpdateCard(card); err != nil {
		writeStoreError(w, err, "card")
		return
	}
	h.record(r, models.KindBoard, board.ID, user.ID, "card.members_changed", card.ID, req.UserIDs)
	utils.WriteSuccessResponse(w, map[string]interface{}{"card": card})
}
