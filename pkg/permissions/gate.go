package permissions

import "taskboard-backend/pkg/models"

// Authorizer is the resolver surface the Gate depends on
type Authorizer interface {
	VerifyPermission(entity Entity, userID string, capability Capability) error
	VerifyCardEdit(board *models.Board, card *models.Card, userID string) error
	VerifyCardMove(board *models.Board, card *models.Card, userID string) error
	VerifyCardCompletion(board *models.Board, card *models.Card, userID string) error
	VerifyCriticalSettings(workspace *models.Workspace, userID string) error
	ValidateRoleChange(entity Entity, actorID, targetID string, newRole models.Role) error
	ValidateMemberRemoval(entity Entity, actorID, targetID string) error
	HasPermission(entity Entity, userID string, capability Capability) bool
}

var _ Authorizer = (*Resolver)(nil)

// Gate is what request handlers call after loading an entity and before
// mutating it. A nil error means the action is authorized.
type Gate struct {
	auth Authorizer
}

// NewGate wraps an Authorizer; nil selects the default Resolver
func NewGate(auth Authorizer) *Gate {
	if auth == nil {
		auth = NewResolver()
	}
	return &Gate{auth: auth}
}

func (g *Gate) RequireCapability(entity Entity, userID string, capability Capability) error {
	return g.auth.VerifyPermission(entity, userID, capability)
}

func (g *Gate) RequireCardEdit(board *models.Board, card *models.Card, userID string) error {
	return g.auth.VerifyCardEdit(board, card, userID)
}

func (g *Gate) RequireCardMove(board *models.Board, card *models.Card, userID string) error {
	return g.auth.VerifyCardMove(board, card, userID)
}

func (g *Gate) RequireCardCompletion(board *models.Board, card *models.Card, userID string) error {
	return g.auth.VerifyCardCompletion(board, card, userID)
}

func (g *Gate) RequireCriticalSettings(workspace *models.Workspace, userID string) error {
	return g.auth.VerifyCriticalSettings(workspace, userID)
}

// RequireSettingsChange gates a workspace settings patch: critical keys
// need the owner, anything else needs manage_settings.
func (g *Gate) RequireSettingsChange(workspace *models.Workspace, userID string, keys []string) error {
	for _, k := range keys {
		if IsCritical(k) {
			return g.RequireCriticalSettings(workspace, userID)
		}
	}
	return g.auth.VerifyPermission(workspace, userID, ManageSettings)
}

func (g *Gate) RequireRoleChange(entity Entity, actorID, targetID string, newRole models.Role) error {
	return g.auth.ValidateRoleChange(entity, actorID, targetID, newRole)
}

func (g *Gate) RequireMemberRemoval(entity Entity, actorID, targetID string) error {
	return g.auth.ValidateMemberRemoval(entity, actorID, targetID)
}

// Can is the non-failing query, used to shape responses (e.g. hiding controls)
func (g *Gate) Can(entity Entity, userID string, capability Capability) bool {
	return g.auth.HasPermission(entity, userID, capability)
}
