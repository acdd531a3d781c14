package permissions

import (
	"errors"

	"taskboard-backend/pkg/models"
)

// Entity is a permission-scoped aggregate: *models.Board or *models.Workspace
type Entity interface {
	EntityKind() models.EntityKind
	MemberList() []models.Member
}

// ErrNotMember is returned by the role validators when the target has no membership
var ErrNotMember = errors.New("user is not a member")

// Resolver answers "may user U do C on entity E". It holds no state; every
// method is a pure function of the snapshot it is given.
type Resolver struct{}

// NewResolver returns a Resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

func isNilEntity(e Entity) bool {
	switch v := e.(type) {
	case nil:
		return true
	case *models.Board:
		return v == nil
	case *models.Workspace:
		return v == nil
	}
	return false
}

// FindMember returns the membership record of userID, or nil.
func (r *Resolver) FindMember(members []models.Member, userID string) *models.Member {
	if len(members) == 0 || userID == "" {
		return nil
	}
	for i := range members {
		if members[i].User.Key() == userID {
			return &members[i]
		}
	}
	return nil
}

// HasPermission is the query form: it never fails, missing input is a "no".
func (r *Resolver) HasPermission(entity Entity, userID string, capability Capability) bool {
	if isNilEntity(entity) || userID == "" || capability == "" {
		return false
	}
	member := r.FindMember(entity.MemberList(), userID)
	if member == nil {
		return false
	}
	kind := entity.EntityKind()

	// owner bypass covers the kind's vocabulary only; unknown names stay denied
	if member.Role == models.RoleOwner && IsKnown(kind, capability) {
		return true
	}
	// explicit grants beat role defaults
	if member.HasExplicit(string(capability)) {
		return true
	}

	switch member.Role {
	case models.RoleAdmin:
		return r.adminAllows(entity, capability)
	case models.RoleMember:
		return r.memberAllows(entity, capability)
	}
	return false
}

func (r *Resolver) adminAllows(entity Entity, capability Capability) bool {
	kind := entity.EntityKind()
	if contains(adminDenied[kind], capability) {
		return false
	}
	switch e := entity.(type) {
	case *models.Board:
		switch capability {
		case EditCards, EditOtherCards:
			return e.Settings.EffectiveCardEditing() != models.CardPolicyCardCreatorOnly
		case MoveCards, MoveOtherCards:
			return e.Settings.EffectiveCardMoving() != models.CardPolicyCardCreatorOnly
		}
	case *models.Workspace:
		switch capability {
		case CreateBoards:
			return e.Settings.EffectiveBoardCreation().Allows(models.RoleAdmin)
		case InviteMembers:
			return e.Settings.EffectiveInviteRestriction().Allows(models.RoleAdmin)
		}
	}
	return IsKnown(kind, capability)
}

func (r *Resolver) memberAllows(entity Entity, capability Capability) bool {
	switch e := entity.(type) {
	case *models.Board:
		switch capability {
		case CreateLists:
			return e.Settings.MemberListCreationEnabled()
		case InviteMembers:
			return e.Settings.MemberInvitationEnabled()
		case EditOtherCards:
			return e.Settings.EffectiveCardEditing() == models.CardPolicyAllMembers
		case MoveOtherCards:
			return e.Settings.EffectiveCardMoving() == models.CardPolicyAllMembers
		}
	case *models.Workspace:
		switch capability {
		case CreateBoards:
			return e.Settings.EffectiveBoardCreation().Allows(models.RoleMember)
		case InviteMembers:
			return e.Settings.EffectiveInviteRestriction().Allows(models.RoleMember)
		}
	}
	return contains(memberDefaults[entity.EntityKind()], capability)
}

type cardAction struct {
	any, own, other Capability
	policy          func(models.BoardSettings) models.CardPolicy
}

var (
	editAction = cardAction{EditCards, EditOwnCards, EditOtherCards, models.BoardSettings.EffectiveCardEditing}
	moveAction = cardAction{MoveCards, MoveOwnCards, MoveOtherCards, models.BoardSettings.EffectiveCardMoving}
)

func (r *Resolver) canActOnCard(board *models.Board, card *models.Card, userID string, a cardAction) bool {
	if board == nil || card == nil || userID == "" {
		return false
	}
	// Creator-only mode applies to the owner as well.
	if a.policy(board.Settings) == models.CardPolicyCardCreatorOnly {
		return card.CreatedBy == userID
	}
	if r.HasPermission(board, userID, a.any) {
		return true
	}
	// creator and assignees are answered by the own-capability alone
	if card.CreatedBy == userID || card.IsAssigned(userID) {
		return r.HasPermission(board, userID, a.own)
	}
	return r.HasPermission(board, userID, a.other)
}

// CanEditCard applies the board's cardEditing policy to a single card
func (r *Resolver) CanEditCard(board *models.Board, card *models.Card, userID string) bool {
	return r.canActOnCard(board, card, userID, editAction)
}

// CanMoveCard applies the board's cardMoving policy to a single card
func (r *Resolver) CanMoveCard(board *models.Board, card *models.Card, userID string) bool {
	return r.canActOnCard(board, card, userID, moveAction)
}

// CanCompleteCard lets owners and admins complete any card and everybody
// else only the cards they are assigned to. No setting changes this.
func (r *Resolver) CanCompleteCard(board *models.Board, card *models.Card, userID string) bool {
	if board == nil || card == nil || userID == "" {
		return false
	}
	if m := r.FindMember(board.Members, userID); m != nil {
		if m.Role == models.RoleOwner || m.Role == models.RoleAdmin {
			return true
		}
	}
	return card.IsAssigned(userID)
}

// CanModifyCriticalSettings is true only for the workspace owner
func (r *Resolver) CanModifyCriticalSettings(workspace *models.Workspace, userID string) bool {
	if workspace == nil || userID == "" {
		return false
	}
	m := r.FindMember(workspace.Members, userID)
	return m != nil && m.Role == models.RoleOwner
}

// VerifyPermission is the assertion form of HasPermission
func (r *Resolver) VerifyPermission(entity Entity, userID string, capability Capability) error {
	if err := requireArgs(entity, userID, capability); err != nil {
		return err
	}
	if !r.HasPermission(entity, userID, capability) {
		return denied(capability)
	}
	return nil
}

// VerifyWorkspacePermission is VerifyPermission restricted to workspaces
func (r *Resolver) VerifyWorkspacePermission(workspace *models.Workspace, userID string, capability Capability) error {
	if workspace == nil {
		return invalid("workspace")
	}
	return r.VerifyPermission(workspace, userID, capability)
}

// VerifyCardEdit fails with PermissionDenied{edit_cards} when CanEditCard is false
func (r *Resolver) VerifyCardEdit(board *models.Board, card *models.Card, userID string) error {
	if err := requireCardArgs(board, card, userID); err != nil {
		return err
	}
	if !r.CanEditCard(board, card, userID) {
		return denied(EditCards)
	}
	return nil
}

// VerifyCardMove fails with PermissionDenied{move_cards} when CanMoveCard is false
func (r *Resolver) VerifyCardMove(board *models.Board, card *models.Card, userID string) error {
	if err := requireCardArgs(board, card, userID); err != nil {
		return err
	}
	if !r.CanMoveCard(board, card, userID) {
		return denied(MoveCards)
	}
	return nil
}

// VerifyCardCompletion fails when CanCompleteCard is false
func (r *Resolver) VerifyCardCompletion(board *models.Board, card *models.Card, userID string) error {
	if err := requireCardArgs(board, card, userID); err != nil {
		return err
	}
	if !r.CanCompleteCard(board, card, userID) {
		return &Error{
			Kind:       KindPermissionDenied,
			Capability: "complete_cards",
			Message:    "Only card members, admins, or the owner can complete this card",
		}
	}
	return nil
}

// VerifyCriticalSettings fails unless userID owns the workspace
func (r *Resolver) VerifyCriticalSettings(workspace *models.Workspace, userID string) error {
	if workspace == nil {
		return invalid("workspace")
	}
	if userID == "" {
		return invalid("user id")
	}
	if !r.CanModifyCriticalSettings(workspace, userID) {
		return &Error{
			Kind:       KindPermissionDenied,
			Capability: ManageCriticalSettings,
			Message:    "Only the workspace owner can change invitation and board creation settings",
		}
	}
	return nil
}

// ValidateRoleChange checks that actorID may set targetID's role to newRole
// without breaking the single-owner invariant.
func (r *Resolver) ValidateRoleChange(entity Entity, actorID, targetID string, newRole models.Role) error {
	if isNilEntity(entity) {
		return invalid("entity")
	}
	if actorID == "" || targetID == "" {
		return invalid("user id")
	}
	if newRole != models.RoleAdmin && newRole != models.RoleMember {
		return &Error{Kind: KindInvalidArgument, Message: "role must be admin or member"}
	}
	required := ManageMembers
	if entity.EntityKind() == models.KindWorkspace {
		required = ManageRoles
	}
	if !r.HasPermission(entity, actorID, required) {
		return denied(required)
	}
	target := r.FindMember(entity.MemberList(), targetID)
	if target == nil {
		return ErrNotMember
	}
	if target.Role == models.RoleOwner {
		return &Error{Kind: KindPermissionDenied, Capability: required, Message: "The owner's role cannot be changed"}
	}
	return nil
}

// ValidateMemberRemoval allows members to leave and managers to remove
// others. The owner can never be removed.
func (r *Resolver) ValidateMemberRemoval(entity Entity, actorID, targetID string) error {
	if isNilEntity(entity) {
		return invalid("entity")
	}
	if actorID == "" || targetID == "" {
		return invalid("user id")
	}
	target := r.FindMember(entity.MemberList(), targetID)
	if target == nil {
		return ErrNotMember
	}
	if target.Role == models.RoleOwner {
		return &Error{Kind: KindPermissionDenied, Capability: ManageMembers, Message: "The owner cannot be removed"}
	}
	if actorID == targetID {
		return nil
	}
	return r.VerifyPermission(entity, actorID, ManageMembers)
}

func requireArgs(entity Entity, userID string, capability Capability) error {
	if isNilEntity(entity) {
		return invalid("entity")
	}
	if userID == "" {
		return invalid("user id")
	}
	if capability == "" {
		return invalid("capability")
	}
	return nil
}

func requireCardArgs(board *models.Board, card *models.Card, userID string) error {
	if board == nil {
		return invalid("board")
	}
	if card == nil {
		return invalid("card")
	}
	if userID == "" {
		return invalid("user id")
	}
	return nil
}
