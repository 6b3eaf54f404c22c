package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"proof_of_existence/internal/config"
	"proof_of_existence/internal/repository"
	"proof_of_existence/internal/rewards"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/chain"
	"proof_of_existence/pkg/logger"
	"proof_of_existence/pkg/notify"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dayLayout = "2006-01-02"

var errNoChain = errors.New("chain.rpcURL is not configured")

// app holds lazily opened resources shared by the subcommands.
type app struct {
	configFile string
	cfg        *config.Config
	repo       *repository.Repository
	chain      *chain.Client
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfigFile(a.configFile)
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.LogLevel, logger.EncodingConsole, zap.String("service", "ops")); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	return nil
}

func (a *app) repository() (*repository.Repository, error) {
	if a.repo == nil {
		repo, err := repository.New(a.cfg.Database)
		if err != nil {
			return nil, err
		}
		a.repo = repo
	}
	return a.repo, nil
}

func (a *app) chainClient(ctx context.Context) (*chain.Client, error) {
	if a.cfg.Chain.RPCURL == "" {
		return nil, errNoChain
	}
	if a.chain == nil {
		client, err := chain.Dial(ctx, a.cfg.Chain)
		if err != nil {
			return nil, err
		}
		a.chain = client
	}
	return a.chain, nil
}

// settlement builds the settlement service. The root publisher is attached
// only when a chain is configured.
func (a *app) settlement(ctx context.Context) (*service.SettlementService, error) {
	repo, err := a.repository()
	if err != nil {
		return nil, err
	}
	rates, err := a.cfg.Rewards.Rates()
	if err != nil {
		return nil, err
	}
	notifier, err := notify.New(a.cfg.Notify)
	if err != nil {
		return nil, err
	}

	var publisher service.RootPublisher
	client, err := a.chainClient(ctx)
	switch {
	case err == nil:
		publisher = client
	case !errors.Is(err, errNoChain):
		return nil, err
	}

	return service.NewSettlementService(repo, rates, publisher, notifier), nil
}

func (a *app) close() {
	if a.chain != nil {
		a.chain.Close()
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
	_ = logger.Sync()
}

// dayFlag parses a YYYY-MM-DD flag value; empty means yesterday UTC.
func dayFlag(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return rewards.DayStart(now).AddDate(0, 0, -1), nil
	}
	day, err := time.ParseInLocation(dayLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --day %q, expected YYYY-MM-DD", value)
	}
	return day, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "ops",
		Short:             "Operational commands for the proof of existence backend",
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default ./config.yaml)")

	root.AddCommand(
		newCalculateCmd(a),
		newSettleCmd(a),
		newPublishRootCmd(a),
		newProofCmd(a),
		newBalanceCmd(a),
		newPriceCmd(a),
		newSeedBadgesCmd(a),
		newFeedCmd(),
	)
	return root
}

func main() {
	a := &app{}
	root := newRootCmd(a)

	err := root.ExecuteContext(context.Background())
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
