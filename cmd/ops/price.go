package main

import (
	"fmt"
	"io"

	"proof_of_existence/internal/service"

	"github.com/spf13/cobra"
)

func newPriceCmd(a *app) *cobra.Command {
	var (
		duration int
		onChain  bool
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Quote the price of recording a session of the given duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := a.cfg.Pricing.Rules()
			if err != nil {
				return err
			}

			var reader service.PricingReader
			if onChain {
				client, err := a.chainClient(cmd.Context())
				if err != nil {
					return err
				}
				reader = client
			}

			pricing := service.NewPricingService(rules, reader)

			var quote *service.Quote
			if onChain {
				quote, err = pricing.QuoteOnChain(cmd.Context(), duration)
			} else {
				quote, err = pricing.Quote(duration)
			}
			if err != nil {
				return err
			}

			printQuote(cmd.OutOrStdout(), quote)
			return nil
		},
	}
	cmd.Flags().IntVar(&duration, "duration", 0, "session duration in seconds")
	cmd.Flags().BoolVar(&onChain, "onchain", false, "read prices from the recorder contract")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func printQuote(w io.Writer, q *service.Quote) {
	source := "config"
	if q.OnChain {
		source = "recorder contract"
	}
	fmt.Fprintf(w, "duration:         %ds\n", q.Duration)
	fmt.Fprintf(w, "base fee:         %s wei\n", q.BaseFee)
	fmt.Fprintf(w, "price per second: %s wei\n", q.PricePerSecond)
	fmt.Fprintf(w, "total:            %s wei (%s TIME26)\n", q.Total, q.Total.Shift(-18))
	fmt.Fprintf(w, "source:           %s\n", source)
}
