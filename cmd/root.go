package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonandersen/payoff/internal/auth"
	"github.com/jonandersen/payoff/internal/config"
	"github.com/jonandersen/payoff/internal/keyring"
	"github.com/jonandersen/payoff/internal/logging"
	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/volmodel"
	"github.com/jonandersen/payoff/pkg/tradier"
)

var Version = "dev"

var (
	// jsonOutput controls whether output is formatted as JSON
	jsonOutput bool
	// verbose mirrors log records to stderr
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "payoff",
	Short: "Options strategy P&L explorer",
	Long: `Explore the profit and loss of multi-leg option positions at expiration.

payoff fetches an option chain from Tradier, lets you combine bought and
sold calls and puts, and charts the combined payoff across a sweep of
underlying prices. A random forest trained on price and VIX history
predicts the expected price range, and the profit and loss inside that
range are integrated.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to stderr")
	cobra.OnFinalize(closeEnvironment)
}

// GetJSONMode returns whether JSON output mode is enabled.
func GetJSONMode() bool {
	return jsonOutput
}

// environment holds the production dependencies shared by the market commands.
type environment struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *marketdata.Service
	closers []io.Closer
}

var active *environment

// loadEnvironment reads the config and token and builds the market data
// service. It is called from PreRunE so tests can bypass it.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	if active != nil {
		return active, nil
	}

	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var console io.Writer
	if verbose {
		console = cmd.ErrOrStderr()
	}
	logger, logCloser := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    config.LogPath(),
		Console: console,
	})
	slog.SetDefault(logger)

	store := keyring.NewEnvStore(keyring.NewSystemStore())
	if _, err := auth.LookupToken(store, cfg.APIBaseURL); err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	client := tradier.NewClient(cfg.APIBaseURL, auth.NewKeyringProvider(store, cfg.APIBaseURL))
	service, err := marketdata.NewService(client, marketdata.Options{
		RequestsPerSecond: cfg.RequestsPerSecond,
		CacheTTL:          time.Duration(cfg.CacheTTLSeconds) * time.Second,
		Logger:            logger,
	})
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("failed to create market data service: %w", err)
	}

	logger.Debug("runtime ready", "command", cmd.Name(), "base_url", cfg.APIBaseURL)

	active = &environment{
		cfg:     cfg,
		logger:  logger,
		service: service,
		closers: []io.Closer{service, logCloser},
	}
	return active, nil
}

// predictor returns a range model over the service, sized from config.
func (r *environment) predictor() *volmodel.Predictor {
	p := volmodel.NewPredictor(r.service)
	p.Trees = r.cfg.ForestTrees
	p.Logger = r.logger
	return p
}

// sessionOptions returns session settings from config.
func (r *environment) sessionOptions() sessionOptions {
	return sessionOptions{
		provider:     r.service,
		predictor:    r.predictor(),
		multiplier:   r.cfg.RangeMultiplier,
		historyYears: r.cfg.HistoryYears,
		plotDir:      r.cfg.ResolvedPlotDir(),
		logger:       r.logger,
		jsonMode:     GetJSONMode(),
	}
}

func closeEnvironment() {
	if active == nil {
		return
	}
	for _, c := range active.closers {
		_ = c.Close()
	}
	active = nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
