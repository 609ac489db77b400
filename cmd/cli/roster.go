package main

import (
	"context"
	"fmt"

	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/roster"
	"github.com/spf13/cobra"
)

var (
	venue  string
	revoke bool
)

func init() {
	createCmd.Flags().StringVar(&venue, "venue", "", "Where the match is played")
	_ = createCmd.MarkFlagRequired("venue")
	grantCmd.Flags().BoolVar(&revoke, "revoke", false, "Take the edit right away instead")
	rootCmd.AddCommand(createCmd, joinCmd, spectateCmd, leaveCmd, grantCmd, repeatCmd)
}

// withRoster runs fn against a loaded roster manager and prints the members.
func withRoster(cmd *cobra.Command, fn func(ctx context.Context, m *roster.Manager) error) error {
	ctx := cmd.Context()
	store, client, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer store.Stop()
	if err := failed(store, fn(ctx, roster.NewManager(store, client))); err != nil {
		return err
	}
	return printJSON(cmd, store.Snapshot().Members)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new match that you organize",
	RunE: func(cmd *cobra.Command, args []string) error {
		if baseURL == "" {
			return fmt.Errorf("no match service configured, pass --api or set API_BASE_URL")
		}
		client := api.NewClient(baseURL, api.WithToken(token), api.WithInitData(initData))
		id, err := roster.Create(cmd.Context(), client, api.CreateMatchParams{Venue: venue})
		if err != nil {
			return fmt.Errorf("%s: %w", api.Message(err), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Sign up as a player",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoster(cmd, func(ctx context.Context, m *roster.Manager) error { return m.Join(ctx) })
	},
}

var spectateCmd = &cobra.Command{
	Use:   "spectate",
	Short: "Follow the match without playing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoster(cmd, func(ctx context.Context, m *roster.Manager) error { return m.Spectate(ctx) })
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave",
	Short: "Leave the match",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoster(cmd, func(ctx context.Context, m *roster.Manager) error { return m.Leave(ctx) })
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant MEMBER",
	Short: "Let a member edit the match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tgID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withRoster(cmd, func(ctx context.Context, m *roster.Manager) error { return m.Grant(ctx, tgID, !revoke) })
	},
}

var repeatCmd = &cobra.Command{
	Use:   "repeat",
	Short: "Create a new match with the players of a finished one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, client, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer store.Stop()
		id, err := roster.NewManager(store, client).Repeat(ctx)
		if err := failed(store, err); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}
