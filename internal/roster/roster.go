// Package roster manages who takes part in a match: joining, spectating,
// leaving, edit grants and repeating a finished match.
package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/match"
)

// Create opens a new match organized by the caller and returns its id.
func Create(ctx context.Context, client api.Client, params api.CreateMatchParams) (int64, error) {
	params.Venue = strings.TrimSpace(params.Venue)
	if params.Venue == "" {
		return 0, fmt.Errorf("%w: a venue is required", api.ErrInvalid)
	}
	id, err := client.CreateMatch(ctx, params)
	if err != nil {
		return 0, err
	}
	log.Info("Created match", "match_id", id, "venue", params.Venue)
	return id, nil
}

// Manager issues roster commands for one match.
type Manager struct {
	session Session
	client  api.Client
}

func NewManager(session Session, client api.Client) *Manager {
	return &Manager{session: session, client: client}
}

func (m *Manager) run(ctx context.Context, name string, check func(snap *match.Snapshot) (skip bool, err error), cmd func(ctx context.Context, matchID int64) error) error {
	return m.session.Do(ctx, name, func(ctx context.Context) error {
		snap := m.session.Snapshot()
		if snap == nil {
			return fmt.Errorf("%w: match not loaded yet", api.ErrTransient)
		}
		skip, err := check(snap)
		if err != nil || skip {
			return err
		}
		return cmd(ctx, snap.Match.ID)
	})
}

// organizes reports whether the viewer runs the match.
func organizes(snap *match.Snapshot) bool {
	if snap.Me.IsAdmin {
		return true
	}
	self := snap.Self()
	return self != nil && self.Role == match.RoleOrganizer
}

// Join signs the viewer up as a player. Members who already play are left
// alone.
func (m *Manager) Join(ctx context.Context) error {
	return m.run(ctx, "join",
		func(snap *match.Snapshot) (bool, error) {
			self := snap.Self()
			return self != nil && self.Eligible(), nil
		},
		m.client.Join)
}

// Spectate follows the match without playing.
func (m *Manager) Spectate(ctx context.Context) error {
	return m.run(ctx, "spectate",
		func(snap *match.Snapshot) (bool, error) {
			self := snap.Self()
			if self == nil {
				return false, nil
			}
			if self.Role == match.RoleOrganizer {
				return false, fmt.Errorf("%w: the organizer always plays", api.ErrInvalid)
			}
			return self.Role == match.RoleSpectator, nil
		},
		m.client.Spectate)
}

// Leave removes the viewer from the match. The organizer cannot leave.
func (m *Manager) Leave(ctx context.Context) error {
	return m.run(ctx, "leave",
		func(snap *match.Snapshot) (bool, error) {
			self := snap.Self()
			if self == nil {
				return false, fmt.Errorf("%w: you are not a member", api.ErrInvalid)
			}
			if self.Role == match.RoleOrganizer {
				return false, fmt.Errorf("%w: the organizer cannot leave", api.ErrInvalid)
			}
			return false, nil
		},
		m.client.Leave)
}

// Grant sets the edit right of a member.
func (m *Manager) Grant(ctx context.Context, tgID int64, canEdit bool) error {
	return m.run(ctx, "permissions",
		func(snap *match.Snapshot) (bool, error) {
			if !organizes(snap) {
				return false, fmt.Errorf("%w: only the organizer grants edit rights", api.ErrForbidden)
			}
			mem := snap.MemberOf(tgID)
			if mem == nil {
				return false, fmt.Errorf("%w: member %d", api.ErrNotFound, tgID)
			}
			return mem.CanEdit == canEdit, nil
		},
		func(ctx context.Context, matchID int64) error {
			log.Info("Updating member permissions", "match_id", matchID, "tg_id", tgID, "can_edit", canEdit)
			return m.client.UpdatePermissions(ctx, matchID, tgID, canEdit)
		})
}

// Repeat creates a new match at the same venue with the players of this
// finished one and returns its id.
func (m *Manager) Repeat(ctx context.Context) (int64, error) {
	var created int64
	err := m.run(ctx, "repeat",
		func(snap *match.Snapshot) (bool, error) {
			if snap.Match.Status != match.StatusFinished {
				return false, fmt.Errorf("%w: only finished matches can be repeated", api.ErrInvalid)
			}
			if !organizes(snap) {
				return false, fmt.Errorf("%w: only the organizer repeats a match", api.ErrForbidden)
			}
			if len(snap.Eligible()) == 0 {
				return false, fmt.Errorf("%w: nobody played", api.ErrInvalid)
			}
			return false, nil
		},
		func(ctx context.Context, matchID int64) error {
			id, err := m.client.Repeat(ctx, matchID)
			if err != nil {
				return err
			}
			created = id
			log.Info("Repeated match", "match_id", matchID, "new_match_id", id)
			return nil
		})
	return created, err
}
