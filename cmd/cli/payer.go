package main

import (
	"context"

	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/payer"
	"github.com/spf13/cobra"
)

var (
	details api.PayerDetails
	reject  bool
)

func init() {
	payerDetailsCmd.Flags().StringVar(&details.FIO, "fio", "", "Full name of the payer")
	payerDetailsCmd.Flags().StringVar(&details.Phone, "phone", "", "Phone number for transfers")
	payerDetailsCmd.Flags().StringVar(&details.Bank, "bank", "", "Bank name")
	payConfirmCmd.Flags().BoolVar(&reject, "reject", false, "Reject the reported payment")

	payerCmd.AddCommand(payerShowCmd, payerRequestCmd, payerOfferCmd, payerRespondCmd,
		payerSelectCmd, payerClearCmd, payerDetailsCmd)
	payCmd.AddCommand(payMarkCmd, payConfirmCmd)
	rootCmd.AddCommand(payerCmd, payCmd)
}

// withNegotiator runs fn against a loaded negotiator and prints the payer view.
func withNegotiator(cmd *cobra.Command, fn func(ctx context.Context, n *payer.Negotiator) error) error {
	ctx := cmd.Context()
	store, client, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer store.Stop()
	n := payer.NewNegotiator(store, client)
	if err := failed(store, fn(ctx, n)); err != nil {
		return err
	}
	return printJSON(cmd, n.View())
}

func memberArg(fn func(ctx context.Context, n *payer.Negotiator, tgID int64) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		tgID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withNegotiator(cmd, func(ctx context.Context, n *payer.Negotiator) error { return fn(ctx, n, tgID) })
	}
}

var payerCmd = &cobra.Command{
	Use:   "payer",
	Short: "Decide who pays for the pitch",
}

var payerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the payer state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNegotiator(cmd, func(context.Context, *payer.Negotiator) error { return nil })
	},
}

var payerRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Volunteer to pay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNegotiator(cmd, func(ctx context.Context, n *payer.Negotiator) error { return n.Request(ctx) })
	},
}

var payerOfferCmd = &cobra.Command{
	Use:   "offer MEMBER",
	Short: "Offer the payer role to a member",
	Args:  cobra.ExactArgs(1),
	RunE: memberArg(func(ctx context.Context, n *payer.Negotiator, tgID int64) error {
		return n.Offer(ctx, tgID)
	}),
}

var payerRespondCmd = &cobra.Command{
	Use:       "respond accept|decline",
	Short:     "Answer an offer made to you",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"accept", "decline"},
	RunE: func(cmd *cobra.Command, args []string) error {
		accepted := args[0] == "accept"
		return withNegotiator(cmd, func(ctx context.Context, n *payer.Negotiator) error { return n.Respond(ctx, accepted) })
	},
}

var payerSelectCmd = &cobra.Command{
	Use:   "select MEMBER",
	Short: "Assign the payer directly",
	Args:  cobra.ExactArgs(1),
	RunE: memberArg(func(ctx context.Context, n *payer.Negotiator, tgID int64) error {
		return n.Select(ctx, tgID)
	}),
}

var payerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Give up the payer role",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNegotiator(cmd, func(ctx context.Context, n *payer.Negotiator) error { return n.Clear(ctx) })
	},
}

var payerDetailsCmd = &cobra.Command{
	Use:   "details",
	Short: "Share the payer's transfer details",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNegotiator(cmd, func(ctx context.Context, n *payer.Negotiator) error { return n.SubmitDetails(ctx, details) })
	},
}

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Settle up with the payer",
}

var payMarkCmd = &cobra.Command{
	Use:   "mark",
	Short: "Report your share as paid",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNegotiator(cmd, func(ctx context.Context, n *payer.Negotiator) error { return n.MarkPaid(ctx) })
	},
}

var payConfirmCmd = &cobra.Command{
	Use:   "confirm MEMBER",
	Short: "Confirm or reject a reported payment",
	Args:  cobra.ExactArgs(1),
	RunE: memberArg(func(ctx context.Context, n *payer.Negotiator, tgID int64) error {
		return n.Confirm(ctx, tgID, !reject)
	}),
}
