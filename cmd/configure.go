package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jonandersen/payoff/internal/auth"
	"github.com/jonandersen/payoff/internal/config"
	"github.com/jonandersen/payoff/internal/keyring"
	"github.com/jonandersen/payoff/pkg/tradier"
)

// passwordReader abstracts terminal password input for testing.
type passwordReader interface {
	ReadPassword() (string, error)
	IsTerminal() bool
}

// terminalReader reads passwords from the terminal using golang.org/x/term.
type terminalReader struct {
	fd int
}

// newTerminalReader creates a reader for the given file descriptor.
func newTerminalReader(fd int) *terminalReader {
	return &terminalReader{fd: fd}
}

func (r *terminalReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (r *terminalReader) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// prompter abstracts interactive menu selection for testing.
type prompter interface {
	SelectOption(options []string) (int, error)
	ReadLine(prompt string) (string, error)
}

// terminalPrompter implements prompter using stdin.
type terminalPrompter struct {
	scanner *bufio.Scanner
	writer  io.Writer
}

func newTerminalPrompter(r io.Reader, w io.Writer) *terminalPrompter {
	return &terminalPrompter{scanner: bufio.NewScanner(r), writer: w}
}

func (p *terminalPrompter) SelectOption(options []string) (int, error) {
	for {
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("no input")
		}
		input := strings.TrimSpace(p.scanner.Text())
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 || idx > len(options) {
			_, _ = fmt.Fprintf(p.writer, "Please enter a number between 1 and %d: ", len(options))
			continue
		}
		return idx - 1, nil
	}
}

func (p *terminalPrompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.writer, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// configureOptions holds dependencies for the configure command.
type configureOptions struct {
	configPath     string
	store          keyring.Store
	passwordReader passwordReader
	prompt         prompter
	verify         func(ctx context.Context, baseURL, token string) error
}

// newConfigureCmd creates the configure command with the given options.
func newConfigureCmd(opts configureOptions) *cobra.Command {
	var sandbox bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure the market data token and defaults",
		Long: `Configure payoff with your Tradier API token.

You will be prompted to enter the token securely. It is verified against
the API and stored in the system keyring; the remaining settings are
written to the config file.

Get a token from: https://dash.tradier.com/settings/api

Example:
  payoff configure
  payoff configure --sandbox   # use the delayed-data sandbox`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, opts, sandbox)
		},
	}

	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "Use the Tradier sandbox endpoint")

	cmd.SilenceUsage = true

	return cmd
}

// reconfigureMenuOptions defines the menu options when already configured.
var reconfigureMenuOptions = []string{
	"Configure new API token",
	"View current configuration",
	"Clear API token",
}

func runConfigure(cmd *cobra.Command, opts configureOptions, sandbox bool) error {
	if !opts.passwordReader.IsTerminal() {
		return fmt.Errorf("configure requires an interactive terminal\nRun this command directly in your terminal, or set %s", keyring.EnvAPIToken)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if sandbox {
		cfg.APIBaseURL = tradier.SandboxBaseURL
	}

	if _, err := auth.LookupToken(opts.store, cfg.APIBaseURL); err == nil {
		return runReconfigureMenu(cmd, opts, cfg)
	}

	return runInitialSetup(cmd, opts, cfg)
}

// runReconfigureMenu shows the reconfigure menu when already configured.
func runReconfigureMenu(cmd *cobra.Command, opts configureOptions, cfg *config.Config) error {
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "payoff is already configured. What would you like to do?")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for i, opt := range reconfigureMenuOptions {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, opt)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())
	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Select option: ")

	choice, err := opts.prompt.SelectOption(reconfigureMenuOptions)
	if err != nil {
		return fmt.Errorf("failed to read selection: %w", err)
	}

	switch choice {
	case 0:
		return runInitialSetup(cmd, opts, cfg)
	case 1:
		return runViewConfiguration(cmd, opts, cfg)
	case 2:
		return runClearToken(cmd, opts, cfg.APIBaseURL)
	default:
		return fmt.Errorf("invalid selection")
	}
}

// runInitialSetup reads, verifies and stores the token, then prompts for defaults.
func runInitialSetup(cmd *cobra.Command, opts configureOptions, cfg *config.Config) error {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Enter your Tradier API token: ")
	token, err := opts.passwordReader.ReadPassword()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	verify := opts.verify
	if verify == nil {
		verify = auth.Verify
	}
	if err := verify(ctx, cfg.APIBaseURL, token); err != nil {
		return fmt.Errorf("failed to validate token: %w", err)
	}

	if err := opts.store.Set(keyring.ServiceName, keyring.TokenKey(cfg.APIBaseURL), token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}

	if err := promptDefaults(opts.prompt, cfg); err != nil {
		return err
	}

	if err := config.Save(opts.configPath, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration saved successfully!")
	return nil
}

// promptDefaults asks for the risk-free rate and plot directory. Empty
// answers keep the current values.
func promptDefaults(p prompter, cfg *config.Config) error {
	line, err := p.ReadLine(fmt.Sprintf("Risk-free rate [%.4f]: ", cfg.RiskFreeRate))
	if err != nil {
		return fmt.Errorf("failed to read risk-free rate: %w", err)
	}
	if line != "" {
		rate, err := strconv.ParseFloat(line, 64)
		if err != nil || rate < 0 || rate > 1 {
			return fmt.Errorf("invalid risk-free rate %q: use a decimal such as 0.045", line)
		}
		cfg.RiskFreeRate = rate
	}

	line, err = p.ReadLine(fmt.Sprintf("Chart directory [%s]: ", cfg.ResolvedPlotDir()))
	if err != nil {
		return fmt.Errorf("failed to read chart directory: %w", err)
	}
	if line != "" {
		cfg.PlotDir = line
	}
	return nil
}

// runViewConfiguration displays the current configuration.
func runViewConfiguration(cmd *cobra.Command, opts configureOptions, cfg *config.Config) error {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Current Configuration:")
	_, _ = fmt.Fprintln(w, "----------------------")

	if _, err := auth.LookupToken(opts.store, cfg.APIBaseURL); err == nil {
		_, _ = fmt.Fprintln(w, "API token: Configured")
	} else {
		_, _ = fmt.Fprintln(w, "API token: Not configured")
	}

	_, _ = fmt.Fprintf(w, "API base URL: %s\n", cfg.APIBaseURL)
	_, _ = fmt.Fprintf(w, "Risk-free rate: %.4f\n", cfg.RiskFreeRate)
	_, _ = fmt.Fprintf(w, "History years: %d\n", cfg.HistoryYears)
	_, _ = fmt.Fprintf(w, "Range multiplier: %g\n", cfg.RangeMultiplier)
	_, _ = fmt.Fprintf(w, "Forest trees: %d\n", cfg.ForestTrees)
	_, _ = fmt.Fprintf(w, "Chart directory: %s\n", cfg.ResolvedPlotDir())
	_, _ = fmt.Fprintf(w, "Log file: %s (%s)\n", config.LogPath(), cfg.LogLevel)

	return nil
}

// runClearToken removes the token stored for baseURL.
func runClearToken(cmd *cobra.Command, opts configureOptions, baseURL string) error {
	if err := opts.store.Delete(keyring.ServiceName, keyring.TokenKey(baseURL)); err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to clear token: %w", err)
		}
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "API token cleared successfully.")
	return nil
}

func init() {
	configureCmd := newConfigureCmd(configureOptions{
		configPath:     config.ConfigPath(),
		store:          keyring.NewSystemStore(),
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		prompt:         newTerminalPrompter(os.Stdin, os.Stdout),
	})
	rootCmd.AddCommand(configureCmd)
}
