package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"proof_of_existence/internal/rewards"
	"proof_of_existence/internal/service"

	"github.com/spf13/cobra"
)

func newCalculateCmd(a *app) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Dry run the reward calculation for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dayFlag(day, time.Now())
			if err != nil {
				return err
			}
			settlement, err := a.settlement(cmd.Context())
			if err != nil {
				return err
			}

			result, err := settlement.Calculate(cmd.Context(), d)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "UTC day to calculate, YYYY-MM-DD (default yesterday)")
	return cmd
}

func newSettleCmd(a *app) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Settle a day: store rewards, build and publish the merkle root",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dayFlag(day, time.Now())
			if err != nil {
				return err
			}
			settlement, err := a.settlement(cmd.Context())
			if err != nil {
				return err
			}

			s, err := settlement.Settle(cmd.Context(), d)
			if s != nil {
				printSettlement(cmd.OutOrStdout(), s)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "UTC day to settle, YYYY-MM-DD (default yesterday)")
	return cmd
}

func newPublishRootCmd(a *app) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "publish-root",
		Short: "Publish the stored merkle root of a settled day",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dayFlag(day, time.Now())
			if err != nil {
				return err
			}
			settlement, err := a.settlement(cmd.Context())
			if err != nil {
				return err
			}

			txHash, err := settlement.PublishRoot(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published root for %s in tx %s\n", d.Format(dayLayout), txHash)
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "UTC day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}

func printResult(w io.Writer, result *rewards.Result) error {
	fmt.Fprintf(w, "day %s: %d participants, covered %dms, total %s wei\n",
		result.Day.Format(dayLayout), len(result.Rewards), result.CoveredMs, result.Total)
	if len(result.Rewards) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tEXCLUSIVE_MS\tSHARED_MS\tAMOUNT")
	for _, r := range result.Rewards {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.Address, r.ExclusiveMs, r.SharedMs, r.Amount)
	}
	return tw.Flush()
}

func printSettlement(w io.Writer, s *service.Settlement) {
	participants := 0
	total := "0"
	if s.Result != nil {
		participants = len(s.Result.Rewards)
		total = s.Result.Total.String()
	}

	fmt.Fprintf(w, "settled %s: %d participants, %s wei, %d sessions settled, snapshot of %d\n",
		s.Day.Format(dayLayout), participants, total, s.SettledCount, s.SnapshotSize)
	if s.Root != "" {
		fmt.Fprintf(w, "root %s\n", s.Root)
	}
	if s.TxHash != "" {
		fmt.Fprintf(w, "tx   %s\n", s.TxHash)
	}
}
