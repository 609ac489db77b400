// Package teams derives the editable team state of a match and turns team
// edits into API commands.
package teams

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/permissions"
)

// Engine holds the local team state of one match. The state is reset from
// every applied snapshot; edits are submitted to the server and become
// authoritative only through the refetch that follows.
type Engine struct {
	session Session
	client  api.Client

	mu    sync.Mutex
	state State
}

// NewEngine creates an engine. Register Sync as a session listener.
func NewEngine(session Session, client api.Client) *Engine {
	return &Engine{session: session, client: client}
}

// State returns a copy of the current team state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Sync resets the local state from a freshly applied snapshot.
func (e *Engine) Sync(_, next *match.Snapshot) {
	if next == nil {
		return
	}
	st := State{Eligible: next.Eligible(), Loaded: true}
	for _, v := range next.TeamVariants {
		v.Teams = v.Teams.Clone()
		st.Variants = append(st.Variants, v)
	}
	caps := permissions.ForSnapshot(next)
	st.Editable = caps.CanManageTeams && next.Match.Status == match.StatusCreated

	if cur := next.TeamCurrent; cur != nil {
		st.VariantNo = cur.BaseVariantNo
		st.Teams = cur.CurrentTeams.Clone()
		st.IsCustom = cur.IsCustom
		if cur.WhyNowWorseText != nil {
			st.WhyWorse = *cur.WhyNowWorseText
		}
	} else if v := next.DefaultVariant(); v != nil {
		st.VariantNo = v.VariantNo
		st.Teams = v.Teams.Clone()
	}

	e.mu.Lock()
	e.state = st
	e.mu.Unlock()
}

// run issues cmd through the session. When it fails the local state is
// reset from the last applied snapshot so rejected edits are not kept.
func (e *Engine) run(ctx context.Context, name string, cmd func(ctx context.Context) error) error {
	err := e.session.Do(ctx, name, cmd)
	if err != nil {
		e.Sync(nil, e.session.Snapshot())
	}
	return err
}

func (e *Engine) checkEditable() error {
	if !e.state.Loaded {
		return fmt.Errorf("%w: match not loaded yet", api.ErrTransient)
	}
	if !e.state.Editable {
		return fmt.Errorf("%w: teams can only be changed by an organizer before kick-off", api.ErrForbidden)
	}
	return nil
}

func (e *Engine) checkPartition(teams match.Teams) error {
	if err := match.ValidatePartition(teams, e.state.Eligible); err != nil {
		return fmt.Errorf("%w: %w", api.ErrInvalid, err)
	}
	return nil
}

// SelectVariant adopts the partition of a generated variant and persists it.
func (e *Engine) SelectVariant(ctx context.Context, variantNo int) error {
	return e.run(ctx, "teams_select", func(ctx context.Context) error {
		return e.selectVariant(ctx, variantNo)
	})
}

func (e *Engine) selectVariant(ctx context.Context, variantNo int) error {
	e.mu.Lock()
	if err := e.checkEditable(); err != nil {
		e.mu.Unlock()
		return err
	}
	v := e.state.Variant(variantNo)
	if v == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: variant %d", api.ErrNotFound, variantNo)
	}
	if err := e.checkPartition(v.Teams); err != nil {
		e.mu.Unlock()
		return err
	}
	teams := v.Teams.Clone()
	teams.NameA, teams.NameB = e.state.Teams.NameA, e.state.Teams.NameB
	e.state.VariantNo = variantNo
	e.state.Teams = teams
	e.state.IsCustom = false
	e.state.WhyWorse = ""
	e.mu.Unlock()

	return e.client.SelectTeams(ctx, e.session.MatchID(), api.SelectTeamsParams{VariantNo: variantNo})
}

// Browse moves the selection step variants forward (negative for backward),
// wrapping around the ends.
func (e *Engine) Browse(ctx context.Context, step int) error {
	return e.run(ctx, "teams_select", func(ctx context.Context) error {
		e.mu.Lock()
		n := len(e.state.Variants)
		if n == 0 {
			e.mu.Unlock()
			return fmt.Errorf("%w: no variants generated yet", api.ErrInvalid)
		}
		idx := e.state.VariantIndex()
		if idx < 0 {
			// No variant selected: step 1 lands on the first, -1 on the last.
			idx = 0
			if step > 0 {
				idx = -1
			}
		}
		next := ((idx+step)%n + n) % n
		no := e.state.Variants[next].VariantNo
		e.mu.Unlock()
		return e.selectVariant(ctx, no)
	})
}

// MovePlayer moves playerID to target. Moving a player onto the team they
// are already on is a no-op and issues no command.
func (e *Engine) MovePlayer(ctx context.Context, playerID string, target match.Team) error {
	if !target.Valid() {
		return fmt.Errorf("%w: unknown team %q", api.ErrInvalid, target)
	}
	e.mu.Lock()
	side, found := e.state.Teams.TeamOf(playerID)
	e.mu.Unlock()
	if found && side == target {
		return nil
	}

	return e.run(ctx, "teams_custom", func(ctx context.Context) error {
		e.mu.Lock()
		if err := e.checkEditable(); err != nil {
			e.mu.Unlock()
			return err
		}
		if err := e.checkPartition(e.state.Teams); err != nil {
			e.mu.Unlock()
			return err
		}
		source, ok := e.state.Teams.TeamOf(playerID)
		if !ok {
			e.mu.Unlock()
			return fmt.Errorf("%w: player %s is not on a team", api.ErrNotFound, playerID)
		}
		if source == target {
			e.mu.Unlock()
			return nil
		}
		next := e.state.Teams.Clone()
		kept := make(match.IDList, 0, len(next.Side(source)))
		for _, id := range next.Side(source) {
			if id != playerID {
				kept = append(kept, id)
			}
		}
		if source == match.TeamA {
			next.A, next.B = kept, append(next.B, playerID)
		} else {
			next.B, next.A = kept, append(next.A, playerID)
		}
		st := e.commitCustom(next)
		e.mu.Unlock()

		log.Debug("Moving player", "match_id", e.session.MatchID(), "player", playerID, "from", source, "to", target)
		return e.submitCustom(ctx, st, "", "")
	})
}

// QuickSwap exchanges the player at index on source with the player at the
// same index on the other team. The swap is positional; when either slot is
// absent nothing happens.
func (e *Engine) QuickSwap(ctx context.Context, source match.Team, index int) error {
	if !source.Valid() {
		return fmt.Errorf("%w: unknown team %q", api.ErrInvalid, source)
	}
	e.mu.Lock()
	present := index >= 0 && index < len(e.state.Teams.A) && index < len(e.state.Teams.B)
	e.mu.Unlock()
	if !present {
		log.Debug("Quick swap slot is empty", "match_id", e.session.MatchID(), "team", source, "index", index)
		return nil
	}

	return e.run(ctx, "teams_custom", func(ctx context.Context) error {
		e.mu.Lock()
		if err := e.checkEditable(); err != nil {
			e.mu.Unlock()
			return err
		}
		if err := e.checkPartition(e.state.Teams); err != nil {
			e.mu.Unlock()
			return err
		}
		next := e.state.Teams.Clone()
		if index >= len(next.A) || index >= len(next.B) {
			e.mu.Unlock()
			return nil
		}
		next.A[index], next.B[index] = next.B[index], next.A[index]
		st := e.commitCustom(next)
		e.mu.Unlock()

		return e.submitCustom(ctx, st, "", "")
	})
}

// commitCustom stores next as the local custom state. Caller holds e.mu.
func (e *Engine) commitCustom(next match.Teams) State {
	e.state.Teams = next
	e.state.IsCustom = true
	return e.state.clone()
}

// submitCustom sends the full partition and adopts the returned narrative.
func (e *Engine) submitCustom(ctx context.Context, st State, nameA, nameB string) error {
	why, err := e.client.CustomTeams(ctx, e.session.MatchID(), api.CustomTeamsParams{
		BaseVariantNo: st.VariantNo,
		Teams:         api.TeamsPayload{A: st.Teams.A, B: st.Teams.B},
		TeamNameA:     nameA,
		TeamNameB:     nameB,
	})
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.state.WhyWorse = why
	e.mu.Unlock()
	return nil
}

// Regenerate asks for fresh variants and selects the recommended one.
func (e *Engine) Regenerate(ctx context.Context) error {
	return e.run(ctx, "teams_generate", func(ctx context.Context) error {
		e.mu.Lock()
		err := e.checkEditable()
		e.mu.Unlock()
		if err != nil {
			return err
		}

		variants, err := e.client.GenerateTeams(ctx, e.session.MatchID())
		if err != nil {
			return err
		}
		if len(variants) == 0 {
			return fmt.Errorf("%w: server returned no variants", api.ErrInvalid)
		}
		pick := variants[0]
		for _, v := range variants {
			if v.IsRecommended {
				pick = v
				break
			}
		}

		e.mu.Lock()
		e.state.Variants = variants
		names := e.state.Teams
		e.state.VariantNo = pick.VariantNo
		e.state.Teams = pick.Teams.Clone()
		e.state.Teams.NameA, e.state.Teams.NameB = names.NameA, names.NameB
		e.state.IsCustom = false
		e.state.WhyWorse = ""
		e.mu.Unlock()

		log.Info("Generated team variants", "match_id", e.session.MatchID(), "variants", len(variants), "selected", pick.VariantNo)
		return e.client.SelectTeams(ctx, e.session.MatchID(), api.SelectTeamsParams{VariantNo: pick.VariantNo})
	})
}

// Revert drops custom edits and restores the base variant's partition.
func (e *Engine) Revert(ctx context.Context) error {
	return e.run(ctx, "teams_revert", func(ctx context.Context) error {
		e.mu.Lock()
		if err := e.checkEditable(); err != nil {
			e.mu.Unlock()
			return err
		}
		base := e.state.Variant(e.state.VariantNo)
		if base == nil {
			e.mu.Unlock()
			return fmt.Errorf("%w: base variant %d", api.ErrNotFound, e.state.VariantNo)
		}
		teams := base.Teams.Clone()
		teams.NameA, teams.NameB = e.state.Teams.NameA, e.state.Teams.NameB
		e.state.Teams = teams
		e.state.IsCustom = false
		e.state.WhyWorse = ""
		e.mu.Unlock()

		return e.client.RevertTeams(ctx, e.session.MatchID())
	})
}

// Confirm persists the current teams with optional display names. Empty
// names keep the stored ones.
func (e *Engine) Confirm(ctx context.Context, nameA, nameB string) error {
	return e.run(ctx, "teams_confirm", func(ctx context.Context) error {
		e.mu.Lock()
		if err := e.checkEditable(); err != nil {
			e.mu.Unlock()
			return err
		}
		if err := e.checkPartition(e.state.Teams); err != nil {
			e.mu.Unlock()
			return err
		}
		st := e.state.clone()
		e.mu.Unlock()

		if st.IsCustom {
			return e.submitCustom(ctx, st, nameA, nameB)
		}
		return e.client.SelectTeams(ctx, e.session.MatchID(), api.SelectTeamsParams{
			VariantNo: st.VariantNo,
			TeamNameA: nameA,
			TeamNameB: nameB,
		})
	})
}
