package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"budgetly/internal/cli"
	"budgetly/internal/config"
	"budgetly/internal/ledger"
	"budgetly/internal/log"
)

// opener loads the ledger named by the configuration file at path.
type opener func(ctx context.Context, path string) (*ledger.Store, *config.Config, func(), error)

type app struct {
	out        io.Writer
	open       opener
	now        func() time.Time
	configPath string
	asJSON     bool

	store   *ledger.Store
	cfg     *config.Config
	cleanup func()
}

func newApp(out io.Writer) *app {
	return &app{out: out, open: openFromConfig, now: time.Now}
}

func openFromConfig(ctx context.Context, path string) (*ledger.Store, *config.Config, func(), error) {
	cli.LoadEnvFile()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := cli.LoadAndValidateConfig(path)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cli.SetupLogger(cfg, os.Stderr).WithComponent(log.ComponentCLI)

	pub := cli.NewPublisher(logger, cfg)
	store, cleanup, err := cli.OpenLedger(ctx, logger, cfg, pub)
	if err != nil {
		if pub != nil {
			_ = pub.Close()
		}
		return nil, nil, nil, err
	}
	return store, cfg, cleanup, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "budgetctl",
		Short: "Record expenses and inspect the monthly budget",
		Long: `budgetctl works on the same ledger as the budgetly server.

Examples:
  budgetctl add --amount 12.50 --category food --description "Lunch"
  budgetctl ls --category food --sort amount-desc
  budgetctl budget 3500
  budgetctl dashboard --date 2024-03-15`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["ledger"] != "required" {
				return nil
			}
			store, cfg, cleanup, err := a.open(cmd.Context(), a.configPath)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			a.store, a.cfg, a.cleanup = store, cfg, cleanup
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.close() },
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file (defaults to $CONFIG_FILE)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newAddCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newListCmd(a),
		newBudgetCmd(a),
		newDashboardCmd(a),
		newAnalyticsCmd(a),
		newCategoriesCmd(a),
	)
	return root
}

// needsLedger marks cmd so the root opens the store before it runs.
func needsLedger(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations["ledger"] = "required"
	return cmd
}

// close releases the ledger backend. Safe to call more than once.
func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

func (a *app) currency() string {
	if a.cfg == nil || a.cfg.CurrencySymbol == "" {
		return config.Defaults().CurrencySymbol
	}
	return a.cfg.CurrencySymbol
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
