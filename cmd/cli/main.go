package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/session"
	"github.com/spf13/cobra"
)

var (
	host     string
	baseURL  string
	token    string
	initData string
	matchID  int64
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "pitchside",
	Short: "Run and score pickup football matches from the terminal",
	Long: `A command-line client for the match service. It loads a match, checks
every command against the current snapshot and prints the resulting state.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	SilenceUsage: true,
}

func init() {
	_ = godotenv.Load()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&host, "host", "http://localhost:8080", "The address of the watch daemon")
	flags.StringVar(&baseURL, "api", os.Getenv("API_BASE_URL"), "Base URL of the match service")
	flags.StringVar(&token, "token", os.Getenv("API_TOKEN"), "Bearer token")
	flags.StringVar(&initData, "init-data", os.Getenv("TG_INIT_DATA"), "Telegram init data")
	flags.Int64VarP(&matchID, "match", "m", 0, "Match id")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
}

// openSession loads the configured match once.
func openSession(ctx context.Context) (*session.Store, *api.APIClient, error) {
	if baseURL == "" {
		return nil, nil, fmt.Errorf("no match service configured, pass --api or set API_BASE_URL")
	}
	if matchID <= 0 {
		return nil, nil, fmt.Errorf("pass the match id with --match")
	}
	client := api.NewClient(baseURL, api.WithToken(token), api.WithInitData(initData))
	store := session.NewStore(matchID, client)
	if err := store.Refresh(ctx); err != nil {
		store.Stop()
		return nil, nil, fmt.Errorf("failed to load match %d: %s", matchID, api.Message(err))
	}
	return store, client, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// failed turns a refused command into a terminal message.
func failed(store *session.Store, err error) error {
	if err == nil {
		return nil
	}
	if notice := store.Notice(); notice != "" {
		return fmt.Errorf("%s (%w)", notice, err)
	}
	return err
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
