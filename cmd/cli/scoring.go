package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/scoring"
	"github.com/spf13/cobra"
)

var (
	scorerID int64
	assistID int64
	buttGame bool
	scoreA   int
	scoreB   int
)

func init() {
	goalCmd.Flags().Int64Var(&scorerID, "scorer", 0, "Telegram id of the scorer")
	goalCmd.Flags().Int64Var(&assistID, "assist", 0, "Telegram id of the assisting player")
	_ = goalCmd.MarkFlagRequired("scorer")
	eventEditCmd.Flags().Int64Var(&scorerID, "scorer", 0, "New scorer")
	eventEditCmd.Flags().Int64Var(&assistID, "assist", 0, "New assisting player")
	for _, c := range []*cobra.Command{segmentNewCmd, finishCmd} {
		c.Flags().BoolVar(&buttGame, "butt", false, "Mark the segment as a butt game")
	}
	segmentCorrectCmd.Flags().IntVar(&scoreA, "a", 0, "Score of team A")
	segmentCorrectCmd.Flags().IntVar(&scoreB, "b", 0, "Score of team B")

	segmentCmd.AddCommand(segmentNewCmd, segmentDeleteCmd, segmentCorrectCmd)
	eventCmd.AddCommand(eventEditCmd, eventDeleteCmd)
	rootCmd.AddCommand(startCmd, goalCmd, ownGoalCmd, segmentCmd, eventCmd, finishCmd)
}

// withMachine runs fn against a loaded scoring machine and prints the board.
func withMachine(cmd *cobra.Command, fn func(ctx context.Context, m *scoring.Machine) error) error {
	ctx := cmd.Context()
	store, client, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer store.Stop()
	if err := failed(store, fn(ctx, scoring.NewMachine(store, client))); err != nil {
		return err
	}
	return printJSON(cmd, scoring.Board(store.Snapshot()))
}

func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Kick the match off with the persisted teams",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMachine(cmd, func(ctx context.Context, m *scoring.Machine) error { return m.Start(ctx) })
	},
}

var goalCmd = &cobra.Command{
	Use:   "goal TEAM",
	Short: "Record a goal for team A or B",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		team, err := parseTeam(args[0])
		if err != nil {
			return err
		}
		return withMachine(cmd, func(ctx context.Context, m *scoring.Machine) error {
			return m.Goal(ctx, team, scorerID, optionalID(assistID))
		})
	},
}

var ownGoalCmd = &cobra.Command{
	Use:   "own-goal TEAM",
	Short: "Record an own goal conceded by team A or B",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		team, err := parseTeam(args[0])
		if err != nil {
			return err
		}
		return withMachine(cmd, func(ctx context.Context, m *scoring.Machine) error { return m.OwnGoal(ctx, team) })
	},
}

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Manage the games of a live match",
}

var segmentNewCmd = &cobra.Command{
	Use:   "new",
	Short: "End the active game and open a new one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMachine(cmd, func(ctx context.Context, m *scoring.Machine) error { return m.NewSegment(ctx, buttGame) })
	},
}

var segmentDeleteCmd = &cobra.Command{
	Use:   "delete SEGMENT",
	Short: "Delete an ended game with its events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withMachine(cmd, func(ctx context.Context, m *scoring.Machine) error { return m.DeleteSegment(ctx, id) })
	},
}

var segmentCorrectCmd = &cobra.Command{
	Use:   "correct SEGMENT",
	Short: "Fix the score of an ended game (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var patch api.SegmentPatch
		if cmd.Flags().Changed("a") {
			patch.ScoreA = &scoreA
		}
		if cmd.Flags().Changed("b") {
			patch.ScoreB = &scoreB
		}
		if patch.ScoreA == nil && patch.ScoreB == nil {
			return fmt.Errorf("nothing to change, pass --a or --b")
		}
		return withMachine(cmd, func(ctx context.Context, m *scoring.Machine) error {
			return m.CorrectSegment(ctx, id, patch)
		})
	},
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Correct recorded goals",
}

var eventEditCmd = &cobra.Command{
	Use:   "edit EVENT",
	Short: "Change the scorer or assist of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		patch := api.EventPatch{ScorerTgID: optionalID(scorerID), AssistTgID: optionalID(assistID)}
		if patch.ScorerTgID == nil && patch.AssistTgID == nil {
			return fmt.Errorf("nothing to change, pass --scorer or --assist")
		}
		return withMachine(cmd, func(ctx context.Context, m *scoring.Machine) error { return m.EditEvent(ctx, id, patch) })
	},
}

var eventDeleteCmd = &cobra.Command{
	Use:   "delete EVENT",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withMachine(cmd, func(ctx context.Context, m *scoring.Machine) error { return m.DeleteEvent(ctx, id) })
	},
}

var finishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Blow the final whistle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMachine(cmd, func(ctx context.Context, m *scoring.Machine) error { return m.Finish(ctx, buttGame) })
	},
}
