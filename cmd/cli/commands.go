package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/notifier"
	"github.com/mauv0809/pitchside/internal/payer"
	"github.com/mauv0809/pitchside/internal/scoring"
	"github.com/mauv0809/pitchside/internal/session"
	"github.com/mauv0809/pitchside/internal/transitions"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

func init() {
	daemonCmd.AddCommand(healthCmd, matchesCmd, metricsCmd)
	rootCmd.AddCommand(daemonCmd, showCmd, watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", session.DefaultInterval, "Poll interval")
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Query a running watch daemon",
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd, "/health")
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List the matches the daemon watches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd, "/matches")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get daemon metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd, "/metrics")
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the scoreboard and payer state of a match",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Stop()
		view := store.View()
		return printJSON(cmd, struct {
			session.View
			Scoreboard scoring.Scoreboard `json:"scoreboard"`
			Payer      payer.View         `json:"payer"`
		}{view, scoring.Board(view.Snapshot), payer.Derive(view.Snapshot)})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a match and print its transitions until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, client, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		store.Stop()

		out := cmd.OutOrStdout()
		live := session.NewStore(matchID, client,
			session.WithInterval(watchInterval),
			session.WithListener(func(prev, next *match.Snapshot) {
				for _, e := range transitions.Detect(prev, next) {
					fmt.Fprintf(out, "%s  %s\n", e.At.Local().Format("15:04:05"), notifier.Text(e))
				}
			}),
		)
		if err := live.Start(cmd.Context()); err != nil {
			return err
		}
		defer live.Stop()
		board := scoring.Board(live.Snapshot())
		fmt.Fprintf(out, "Watching match %d (%s), %s %d:%d %s\n", matchID, board.Phase, board.NameA, board.Final.A, board.Final.B, board.NameB)

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		<-shutdown
		return nil
	},
}

func performGetRequest(cmd *cobra.Command, endpoint string) error {
	url := host + endpoint
	fmt.Fprintf(cmd.ErrOrStderr(), "Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Status Code: %d\n", resp.StatusCode)
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}
