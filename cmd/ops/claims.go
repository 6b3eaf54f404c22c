package main

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"proof_of_existence/internal/repository"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/auth"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type proofOutput struct {
	Day              string          `json:"day"`
	Root             string          `json:"root"`
	Address          string          `json:"address"`
	CumulativeAmount decimal.Decimal `json:"cumulativeAmount"`
	Proof            []string        `json:"proof"`
}

func newProofCmd(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "proof",
		Short: "Print the merkle claim proof of an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			settlement, err := a.settlement(cmd.Context())
			if err != nil {
				return err
			}

			proof, err := settlement.Proof(cmd.Context(), address)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(proofOutput{
				Day:              proof.Day.Format(dayLayout),
				Root:             proof.Root,
				Address:          proof.WalletAddress,
				CumulativeAmount: proof.CumulativeAmount,
				Proof:            proof.Proof,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "wallet address")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func newBalanceCmd(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print off-chain and on-chain balances of an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			addr, err := auth.ParseAddress(address)
			if err != nil {
				return err
			}
			key := auth.NormalizeAddress(addr)

			repo, err := a.repository()
			if err != nil {
				return err
			}

			user, err := repo.GetUserByAddress(ctx, key)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				fmt.Fprintf(out, "%s has no account\n", key)
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "off-chain balance:   %s\n", user.Balance)
				fmt.Fprintf(out, "cumulative rewards:  %s\n", user.CumulativeRewards)
			}

			client, err := a.chainClient(ctx)
			if errors.Is(err, errNoChain) {
				fmt.Fprintln(out, "chain not configured, skipping on-chain balances")
				return nil
			}
			if err != nil {
				return err
			}

			var errs []string
			token, err := client.TokenBalance(ctx, addr)
			if err != nil {
				errs = append(errs, "token: "+err.Error())
			} else {
				fmt.Fprintf(out, "TIME26 balance:      %s\n", formatUnits(token, 18))
			}

			nfts, err := client.NFTBalance(ctx, addr)
			if err != nil {
				errs = append(errs, "nft: "+err.Error())
			} else {
				fmt.Fprintf(out, "proof NFTs:          %s\n", nfts)
			}

			if len(errs) > 0 {
				return errors.New(strings.Join(errs, "; "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "wallet address")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func formatUnits(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}

func newSeedBadgesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-badges",
		Short: "Insert or update the badge catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}

			badges := service.NewBadgeService(repo)
			if err := badges.Seed(cmd.Context()); err != nil {
				return err
			}

			catalog, err := badges.ListCatalog(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "badge catalog has %d badges\n", len(catalog))
			return nil
		},
	}
}
