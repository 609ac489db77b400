package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/teams"
	"github.com/spf13/cobra"
)

var teamNameA, teamNameB string

func init() {
	teamsCmd.AddCommand(teamsShowCmd, teamsGenerateCmd, teamsSelectCmd, teamsBrowseCmd,
		teamsMoveCmd, teamsSwapCmd, teamsRevertCmd, teamsConfirmCmd)
	teamsConfirmCmd.Flags().StringVar(&teamNameA, "name-a", "", "Display name of team A")
	teamsConfirmCmd.Flags().StringVar(&teamNameB, "name-b", "", "Display name of team B")
	rootCmd.AddCommand(teamsCmd)
}

// withTeams runs fn against a loaded team engine and prints the state after.
func withTeams(cmd *cobra.Command, fn func(ctx context.Context, e *teams.Engine) error) error {
	ctx := cmd.Context()
	store, client, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer store.Stop()
	engine := teams.NewEngine(store, client)
	engine.Sync(nil, store.Snapshot())
	store.Subscribe(engine.Sync)
	if err := failed(store, fn(ctx, engine)); err != nil {
		return err
	}
	return printJSON(cmd, engine.State())
}

func parseTeam(raw string) (match.Team, error) {
	team := match.Team(raw)
	if !team.Valid() {
		return "", fmt.Errorf("team must be A or B, got %q", raw)
	}
	return team, nil
}

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Form the two teams before kick-off",
}

var teamsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current teams and variants",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTeams(cmd, func(context.Context, *teams.Engine) error { return nil })
	},
}

var teamsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate fresh variants and select the recommended one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTeams(cmd, func(ctx context.Context, e *teams.Engine) error { return e.Regenerate(ctx) })
	},
}

var teamsSelectCmd = &cobra.Command{
	Use:   "select VARIANT",
	Short: "Select a variant by number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		no, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid variant number %q", args[0])
		}
		return withTeams(cmd, func(ctx context.Context, e *teams.Engine) error { return e.SelectVariant(ctx, no) })
	},
}

var teamsBrowseCmd = &cobra.Command{
	Use:   "browse STEP",
	Short: "Step through the variants, wrapping around",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step %q", args[0])
		}
		return withTeams(cmd, func(ctx context.Context, e *teams.Engine) error { return e.Browse(ctx, step) })
	},
}

var teamsMoveCmd = &cobra.Command{
	Use:   "move PLAYER TEAM",
	Short: "Move a player to team A or B",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		team, err := parseTeam(args[1])
		if err != nil {
			return err
		}
		return withTeams(cmd, func(ctx context.Context, e *teams.Engine) error { return e.MovePlayer(ctx, args[0], team) })
	},
}

var teamsSwapCmd = &cobra.Command{
	Use:   "swap TEAM INDEX",
	Short: "Swap the player at INDEX with the player at the same slot of the other team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		team, err := parseTeam(args[0])
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[1])
		}
		return withTeams(cmd, func(ctx context.Context, e *teams.Engine) error { return e.QuickSwap(ctx, team, index) })
	},
}

var teamsRevertCmd = &cobra.Command{
	Use:   "revert",
	Short: "Drop custom edits and restore the base variant",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTeams(cmd, func(ctx context.Context, e *teams.Engine) error { return e.Revert(ctx) })
	},
}

var teamsConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Persist the current teams with optional names",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTeams(cmd, func(ctx context.Context, e *teams.Engine) error {
			return e.Confirm(ctx, teamNameA, teamNameB)
		})
	},
}
