package main

import (
	"fmt"
	"time"

	"github.com/mauv0809/pitchside/internal/feedback"
	"github.com/spf13/cobra"
)

var (
	choices     feedback.Choices
	best, worst int64
	rolePlayer  int64
	comparisons map[string]int64
	synergyTeam []int64
	synergyOpp  []int64
	window      time.Duration
)

func init() {
	flags := feedbackSubmitCmd.Flags()
	flags.Int64Var(&best, "best", 0, "Best player of the match")
	flags.Int64Var(&worst, "worst", 0, "Weakest player of the match")
	flags.Int64Var(&rolePlayer, "role", 0, "Player who best fit the asked role")
	flags.StringToInt64Var(&comparisons, "cmp", nil, "Stronger player per comparison, e.g. cmp_own=12")
	flags.Int64SliceVar(&synergyTeam, "synergy-team", nil, "Two teammates who played well together")
	flags.Int64SliceVar(&synergyOpp, "synergy-opp", nil, "Two opponents who played well together")

	feedbackCmd.PersistentFlags().DurationVar(&window, "window", feedback.DefaultWindow, "How long after the final whistle feedback is accepted")
	feedbackCmd.AddCommand(feedbackQuestionsCmd, feedbackSubmitCmd)
	rootCmd.AddCommand(feedbackCmd)
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Rate the players of a finished match",
}

var feedbackQuestionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print your questionnaire and saved answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, client, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer store.Stop()
		form, err := feedback.NewService(store, client, feedback.WithWindow(window)).Load(ctx)
		if err := failed(store, err); err != nil {
			return err
		}
		return printJSON(cmd, form)
	},
}

func pair(ids []int64) ([2]int64, error) {
	var out [2]int64
	switch len(ids) {
	case 0:
		return out, nil
	case 2:
		copy(out[:], ids)
		return out, nil
	}
	return out, fmt.Errorf("a pair needs exactly two players, got %d", len(ids))
}

var feedbackSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit or replace your feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		choices.Best, choices.Worst, choices.RolePlayer = optionalID(best), optionalID(worst), optionalID(rolePlayer)
		choices.Comparisons = comparisons
		if choices.SynergyTeam, err = pair(synergyTeam); err != nil {
			return err
		}
		if choices.SynergyOpp, err = pair(synergyOpp); err != nil {
			return err
		}

		ctx := cmd.Context()
		store, client, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer store.Stop()
		svc := feedback.NewService(store, client, feedback.WithWindow(window))
		if err := failed(store, svc.Submit(ctx, choices)); err != nil {
			return err
		}
		form, err := svc.Load(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, form)
	},
}
