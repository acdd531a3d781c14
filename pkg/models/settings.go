package models

// CardPolicy controls who may edit or move cards on a board
type CardPolicy string

const (
	CardPolicyAdminsOnly      CardPolicy = "admins_only"
	CardPolicyAllMembers      CardPolicy = "all_members"
	CardPolicyCardCreatorOnly CardPolicy = "card_creator_only"
)

// Toggle is an enabled/disabled board switch
type Toggle string

const (
	ToggleEnabled  Toggle = "enabled"
	ToggleDisabled Toggle = "disabled"
)

// RoleThreshold is the lowest role allowed to perform a workspace action
type RoleThreshold string

const (
	ThresholdOwner  RoleThreshold = "owner"
	ThresholdAdmin  RoleThreshold = "admin"
	ThresholdMember RoleThreshold = "member"
)

// Critical workspace setting keys. Only the owner may change these.
const (
	SettingInviteRestriction = "inviteRestriction"
	SettingBoardCreation     = "boardCreation"
)

// BoardGeneralSettings holds the board toggles consulted by permission checks
type BoardGeneralSettings struct {
	CardEditing        CardPolicy `json:"cardEditing,omitempty"`
	CardMoving         CardPolicy `json:"cardMoving,omitempty"`
	MemberListCreation Toggle     `json:"memberListCreation,omitempty"`
	MemberInvitation   Toggle     `json:"memberInvitation,omitempty"`
}

// BoardSettings is the settings document of a board
type BoardSettings struct {
	General BoardGeneralSettings `json:"general"`
}

// WorkspaceSettings is the settings document of a workspace
type WorkspaceSettings struct {
	BoardCreation     RoleThreshold `json:"boardCreation,omitempty"`
	InviteRestriction RoleThreshold `json:"inviteRestriction,omitempty"`
}

func effectiveCardPolicy(p CardPolicy) CardPolicy {
	switch p {
	case "":
		return CardPolicyAdminsOnly
	case CardPolicyAdminsOnly, CardPolicyAllMembers, CardPolicyCardCreatorOnly:
		return p
	default:
		// unrecognized values never widen access
		return CardPolicyCardCreatorOnly
	}
}

func effectiveToggle(t Toggle) Toggle {
	if t == ToggleEnabled {
		return ToggleEnabled
	}
	return ToggleDisabled
}

func effectiveThreshold(t, def RoleThreshold) RoleThreshold {
	switch t {
	case "":
		return def
	case ThresholdOwner, ThresholdAdmin, ThresholdMember:
		return t
	default:
		return ThresholdOwner
	}
}

// EffectiveCardEditing returns the card editing policy with defaults applied
func (s BoardSettings) EffectiveCardEditing() CardPolicy {
	return effectiveCardPolicy(s.General.CardEditing)
}

// EffectiveCardMoving returns the card moving policy with defaults applied
func (s BoardSettings) EffectiveCardMoving() CardPolicy {
	return effectiveCardPolicy(s.General.CardMoving)
}

// MemberListCreationEnabled reports whether plain members may create lists
func (s BoardSettings) MemberListCreationEnabled() bool {
	return effectiveToggle(s.General.MemberListCreation) == ToggleEnabled
}

// MemberInvitationEnabled reports whether plain members may invite others
func (s BoardSettings) MemberInvitationEnabled() bool {
	return effectiveToggle(s.General.MemberInvitation) == ToggleEnabled
}

// EffectiveBoardCreation returns who may create boards (default: member)
func (s WorkspaceSettings) EffectiveBoardCreation() RoleThreshold {
	return effectiveThreshold(s.BoardCreation, ThresholdMember)
}

// EffectiveInviteRestriction returns who may invite (default: admin)
func (s WorkspaceSettings) EffectiveInviteRestriction() RoleThreshold {
	return effectiveThreshold(s.InviteRestriction, ThresholdAdmin)
}

// Allows reports whether role meets the threshold
func (t RoleThreshold) Allows(role Role) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleAdmin:
		return t == ThresholdAdmin || t == ThresholdMember
	case RoleMember:
		return t == ThresholdMember
	}
	return false
}

// Valid reports whether p is a known card policy
func (p CardPolicy) Valid() bool {
	return p == CardPolicyAdminsOnly || p == CardPolicyAllMembers || p == CardPolicyCardCreatorOnly
}

// Valid reports whether t is a known toggle
func (t Toggle) Valid() bool {
	return t == ToggleEnabled || t == ToggleDisabled
}

// Valid reports whether t is a known threshold
func (t RoleThreshold) Valid() bool {
	return t == ThresholdOwner || t == ThresholdAdmin || t == ThresholdMember
}
