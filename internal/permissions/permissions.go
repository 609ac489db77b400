package permissions

import "github.com/mauv0809/pitchside/internal/match"

// Capabilities is what the viewer may do in a match.
type Capabilities struct {
	CanScore       bool `json:"can_score"`
	CanEditMatch   bool `json:"can_edit_match"`
	CanManageTeams bool `json:"can_manage_teams"`
	// CanCorrectEvents covers editing and deleting recorded events.
	CanCorrectEvents bool `json:"can_correct_events"`
	// CanPay is true for eligible members without edit rights. They may
	// nominate themselves as payer; editors offer or assign the role instead.
	CanPay  bool `json:"can_pay"`
	IsAdmin bool `json:"is_admin"`
}

// Resolve derives the capability set of a member. member may be nil for a
// viewer who has not joined the match.
func Resolve(member *match.Member, isAdmin bool) Capabilities {
	if isAdmin {
		return Capabilities{
			CanScore:         true,
			CanEditMatch:     true,
			CanManageTeams:   true,
			CanCorrectEvents: true,
			IsAdmin:          true,
		}
	}
	if member == nil {
		return Capabilities{}
	}

	organizer := member.Role == match.RoleOrganizer
	return Capabilities{
		CanScore:         organizer || member.Role == match.RolePlayer || member.CanEdit,
		CanEditMatch:     organizer,
		CanManageTeams:   organizer,
		CanCorrectEvents: organizer || member.CanEdit,
		CanPay:           member.Eligible() && !organizer && !member.CanEdit,
	}
}

// ForSnapshot resolves the capabilities of the snapshot's viewer.
func ForSnapshot(snap *match.Snapshot) Capabilities {
	if snap == nil {
		return Capabilities{}
	}
	return Resolve(snap.Self(), snap.Me.IsAdmin)
}
