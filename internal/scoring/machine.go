// Package scoring implements the live scoring lifecycle of a match:
// kick-off, goals, segments and the final whistle.
package scoring

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/permissions"
)

// Machine checks every scoring command against the current snapshot before
// issuing it. It keeps no state of its own.
type Machine struct {
	session Session
	client  api.Client
}

// NewMachine creates a scoring machine for the session's match.
func NewMachine(session Session, client api.Client) *Machine {
	return &Machine{session: session, client: client}
}

// Phase is the phase of the last applied snapshot.
func (m *Machine) Phase() Phase {
	snap := m.session.Snapshot()
	if snap == nil {
		return PhaseForming
	}
	return PhaseOf(snap.Match.Status)
}

type guard func(snap *match.Snapshot, caps permissions.Capabilities) error

// run executes cmd after the guards pass on the current snapshot.
func (m *Machine) run(ctx context.Context, name string, guards []guard, cmd func(ctx context.Context, snap *match.Snapshot) error) error {
	return m.session.Do(ctx, name, func(ctx context.Context) error {
		snap := m.session.Snapshot()
		if snap == nil {
			return fmt.Errorf("%w: match not loaded yet", api.ErrTransient)
		}
		caps := permissions.ForSnapshot(snap)
		for _, g := range guards {
			if err := g(snap, caps); err != nil {
				log.Debug("Scoring command refused", "match_id", m.session.MatchID(), "command", name, "reason", err)
				return err
			}
		}
		return cmd(ctx, snap)
	})
}

func canScore(_ *match.Snapshot, caps permissions.Capabilities) error {
	if !caps.CanScore {
		return fmt.Errorf("%w: scoring needs player or editor rights", api.ErrForbidden)
	}
	return nil
}

func canEditMatch(_ *match.Snapshot, caps permissions.Capabilities) error {
	if !caps.CanEditMatch {
		return fmt.Errorf("%w: only an organizer can do that", api.ErrForbidden)
	}
	return nil
}

func canCorrect(_ *match.Snapshot, caps permissions.Capabilities) error {
	if !caps.CanCorrectEvents {
		return fmt.Errorf("%w: event corrections need editor rights", api.ErrForbidden)
	}
	return nil
}

func inPhase(want Phase) guard {
	return func(snap *match.Snapshot, _ permissions.Capabilities) error {
		if got := PhaseOf(snap.Match.Status); got != want {
			return fmt.Errorf("%w: match is %s, not %s", api.ErrInvalid, got, want)
		}
		return nil
	}
}

func hasActiveSegment(snap *match.Snapshot, _ permissions.Capabilities) error {
	if snap.ActiveSegment() == nil {
		return fmt.Errorf("%w: no active segment", api.ErrInvalid)
	}
	return nil
}

// Start kicks the match off. Teams must have been persisted and must still
// cover the eligible members exactly.
func (m *Machine) Start(ctx context.Context) error {
	teamsPersisted := func(snap *match.Snapshot, _ permissions.Capabilities) error {
		if snap.TeamCurrent == nil {
			return fmt.Errorf("%w: select teams before kick-off", api.ErrInvalid)
		}
		if err := match.ValidatePartition(snap.TeamCurrent.CurrentTeams, snap.Eligible()); err != nil {
			return fmt.Errorf("%w: %w", api.ErrInvalid, err)
		}
		return nil
	}
	return m.run(ctx, "start", []guard{canEditMatch, inPhase(PhaseForming), teamsPersisted},
		func(ctx context.Context, snap *match.Snapshot) error {
			log.Info("Starting match", "match_id", snap.Match.ID)
			return m.client.Start(ctx, snap.Match.ID)
		})
}

// Goal records a goal for team in the active segment.
func (m *Machine) Goal(ctx context.Context, team match.Team, scorer int64, assist *int64) error {
	valid := func(snap *match.Snapshot, _ permissions.Capabilities) error {
		if !team.Valid() {
			return fmt.Errorf("%w: unknown team %q", api.ErrInvalid, team)
		}
		if snap.MemberOf(scorer) == nil {
			return fmt.Errorf("%w: scorer %d is not a member", api.ErrInvalid, scorer)
		}
		if assist != nil && (*assist == scorer || snap.MemberOf(*assist) == nil) {
			return fmt.Errorf("%w: invalid assist %d", api.ErrInvalid, *assist)
		}
		return nil
	}
	return m.run(ctx, "goal", []guard{canScore, inPhase(PhaseLive), hasActiveSegment, valid},
		func(ctx context.Context, snap *match.Snapshot) error {
			_, err := m.client.Goal(ctx, snap.Match.ID, api.GoalParams{Team: team, ScorerTgID: scorer, AssistTgID: assist})
			return err
		})
}

// OwnGoal records an own goal conceded by team. The point goes to the other
// side.
func (m *Machine) OwnGoal(ctx context.Context, team match.Team) error {
	valid := func(_ *match.Snapshot, _ permissions.Capabilities) error {
		if !team.Valid() {
			return fmt.Errorf("%w: unknown team %q", api.ErrInvalid, team)
		}
		return nil
	}
	return m.run(ctx, "own_goal", []guard{canScore, inPhase(PhaseLive), hasActiveSegment, valid},
		func(ctx context.Context, snap *match.Snapshot) error {
			_, err := m.client.OwnGoal(ctx, snap.Match.ID, team)
			return err
		})
}

func eventExists(eventID int64) guard {
	return func(snap *match.Snapshot, _ permissions.Capabilities) error {
		if snap.EventByID(eventID) == nil {
			return fmt.Errorf("%w: event %d", api.ErrNotFound, eventID)
		}
		return nil
	}
}

// EditEvent changes the attribution of an event. The segment score is
// whatever the server reports afterwards.
func (m *Machine) EditEvent(ctx context.Context, eventID int64, patch api.EventPatch) error {
	return m.run(ctx, "edit_event", []guard{canCorrect, inPhase(PhaseLive), eventExists(eventID)},
		func(ctx context.Context, snap *match.Snapshot) error {
			return m.client.PatchEvent(ctx, snap.Match.ID, eventID, patch)
		})
}

// DeleteEvent removes an event; the server recomputes the segment score
// from the remaining events.
func (m *Machine) DeleteEvent(ctx context.Context, eventID int64) error {
	return m.run(ctx, "delete_event", []guard{canCorrect, inPhase(PhaseLive), eventExists(eventID)},
		func(ctx context.Context, snap *match.Snapshot) error {
			return m.client.DeleteEvent(ctx, snap.Match.ID, eventID)
		})
}

// NewSegment ends the active segment and opens a fresh one at 0:0.
func (m *Machine) NewSegment(ctx context.Context, isButtGame bool) error {
	return m.run(ctx, "new_segment", []guard{canScore, inPhase(PhaseLive)},
		func(ctx context.Context, snap *match.Snapshot) error {
			res, err := m.client.NewSegment(ctx, snap.Match.ID, isButtGame)
			if err != nil {
				return err
			}
			log.Info("Opened segment", "match_id", snap.Match.ID, "segment_id", res.SegmentID, "seg_no", res.SegNo, "butt_game", isButtGame)
			return nil
		})
}

// DeleteSegment removes an ended segment together with its events.
func (m *Machine) DeleteSegment(ctx context.Context, segmentID int64) error {
	ended := func(snap *match.Snapshot, _ permissions.Capabilities) error {
		seg := snap.SegmentByID(segmentID)
		if seg == nil {
			return fmt.Errorf("%w: segment %d", api.ErrNotFound, segmentID)
		}
		if seg.Active() {
			return fmt.Errorf("%w: segment %d is still being played", api.ErrInvalid, segmentID)
		}
		return nil
	}
	return m.run(ctx, "delete_segment", []guard{canEditMatch, inPhase(PhaseLive), ended},
		func(ctx context.Context, snap *match.Snapshot) error {
			return m.client.DeleteSegment(ctx, snap.Match.ID, segmentID)
		})
}

// Finish ends the match. This is terminal.
func (m *Machine) Finish(ctx context.Context, isButtGame bool) error {
	return m.run(ctx, "finish", []guard{canEditMatch, inPhase(PhaseLive)},
		func(ctx context.Context, snap *match.Snapshot) error {
			log.Info("Finishing match", "match_id", snap.Match.ID, "butt_game", isButtGame)
			return m.client.Finish(ctx, snap.Match.ID, isButtGame)
		})
}

// CorrectSegment is the administrative path for fixing the score of an
// ended segment. It is allowed after the match has finished.
func (m *Machine) CorrectSegment(ctx context.Context, segmentID int64, patch api.SegmentPatch) error {
	admin := func(_ *match.Snapshot, caps permissions.Capabilities) error {
		if !caps.IsAdmin {
			return fmt.Errorf("%w: corrections are admin only", api.ErrForbidden)
		}
		return nil
	}
	historical := func(snap *match.Snapshot, _ permissions.Capabilities) error {
		seg := snap.SegmentByID(segmentID)
		if seg == nil {
			return fmt.Errorf("%w: segment %d", api.ErrNotFound, segmentID)
		}
		if seg.Active() && patch.EndedAt == nil {
			return fmt.Errorf("%w: segment %d has not ended", api.ErrInvalid, segmentID)
		}
		if (patch.ScoreA != nil && *patch.ScoreA < 0) || (patch.ScoreB != nil && *patch.ScoreB < 0) {
			return fmt.Errorf("%w: scores cannot be negative", api.ErrInvalid)
		}
		return nil
	}
	return m.run(ctx, "correct_segment", []guard{admin, historical},
		func(ctx context.Context, snap *match.Snapshot) error {
			log.Warn("Correcting segment score", "match_id", snap.Match.ID, "segment_id", segmentID)
			return m.client.AdminPatchSegment(ctx, snap.Match.ID, segmentID, patch)
		})
}
