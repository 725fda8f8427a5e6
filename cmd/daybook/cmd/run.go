package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/daybook/broker"
	"github.com/rustyeddy/daybook/config"
	"github.com/rustyeddy/daybook/internal/id"
	"github.com/rustyeddy/daybook/journal"
	"github.com/rustyeddy/daybook/market"
	"github.com/rustyeddy/daybook/sim"
	"github.com/rustyeddy/daybook/strategies"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from a config file",
	Long: `Run a simulation using settings from a configuration file.

The config file names the account, the period, the assets and their bar
files, the strategy and where to export the results.

Example:
  daybook run -f run.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "file", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := cfg.Log.NewLogger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	s, err := Simulate(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	s.Print(cmd.OutOrStdout())
	return nil
}

// Simulate runs cfg to completion, exports the results to the configured
// journal and returns the run summary.
func Simulate(ctx context.Context, cfg *config.Config, log *zap.Logger) (journal.Summary, error) {
	sess, err := cfg.Simulation.Session()
	if err != nil {
		return journal.Summary{}, err
	}
	start, end, err := cfg.Simulation.Range()
	if err != nil {
		return journal.Summary{}, err
	}

	assets := make([]*market.Asset, 0, len(cfg.Assets))
	for _, ac := range cfg.Assets {
		bars, err := market.LoadBarsCSV(ac.Path)
		if err != nil {
			return journal.Summary{}, fmt.Errorf("load %s: %w", ac.Symbol, err)
		}
		a, err := market.NewAsset(ac.Symbol, bars, market.WithSession(sess))
		if err != nil {
			return journal.Summary{}, fmt.Errorf("asset %s: %w", ac.Symbol, err)
		}
		log.Debug("asset loaded", zap.String("symbol", ac.Symbol), zap.Int("bars", len(bars)))
		assets = append(assets, a)
	}

	commission, err := broker.CommissionByName(cfg.Account.Commission)
	if err != nil {
		return journal.Summary{}, err
	}
	b := broker.New(cfg.Account.Cash,
		broker.WithMargin(cfg.Account.Margin),
		broker.WithShortSelling(cfg.Account.AllowShort),
		broker.WithCommission(commission),
		broker.WithSplits(cfg.Account.SplitsEnabled()),
		broker.WithLogger(log.Named("broker")),
		broker.WithAssets(assets...),
	)

	sc := cfg.Strategy
	if sc.Symbol == "" {
		sc.Symbol = cfg.Assets[0].Symbol
	}
	strat, err := strategies.StrategyByName(sc)
	if err != nil {
		return journal.Summary{}, err
	}

	engine, err := sim.New(start, end, strat, b, sim.WithLogger(log.Named("sim")))
	if err != nil {
		return journal.Summary{}, err
	}
	if err := engine.Run(ctx); err != nil {
		return journal.Summary{}, fmt.Errorf("run: %w", err)
	}

	created := time.Now()
	s := journal.Summarize(b)
	s.RunID = id.NewRunID(created)
	s.Created = created
	s.Strategy = sc.Name
	s.Symbols = b.Symbols()
	s.Start = start
	s.End = end
	s.Days = engine.Days()
	s.OrgPath = cfg.Journal.OrgPath

	if err := export(cfg.Journal, s, b); err != nil {
		return s, fmt.Errorf("export: %w", err)
	}
	if s.OrgPath != "" {
		if err := s.WriteOrg(s.OrgPath); err != nil {
			return s, fmt.Errorf("write org: %w", err)
		}
	}
	log.Info("run recorded", zap.String("run_id", s.RunID), zap.String("journal", orNone(cfg.Journal.Type)))
	return s, nil
}

func export(jc config.JournalConfig, s journal.Summary, b *broker.Broker) error {
	switch jc.Type {
	case "csv":
		j, err := journal.NewCSV(jc.Dir)
		if err != nil {
			return err
		}
		defer j.Close()
		return journal.Export(j, b)
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath, s.RunID)
		if err != nil {
			return err
		}
		defer j.Close()
		if err := journal.Export(j, b); err != nil {
			return err
		}
		return j.RecordRun(s)
	}
	return nil
}
