// Package cli wires configuration, logging and the session into the
// ethfaucet commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ethfaucet/pkg/config"
	"ethfaucet/pkg/logging"
	"ethfaucet/pkg/metrics"
	"ethfaucet/pkg/session"
	"ethfaucet/pkg/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds the state shared by every command of one invocation.
type app struct {
	version    string
	configFlag string
	getenv     func(string) string

	path string
	// file is the configuration as stored on disk; cfg has the environment
	// applied and must never be saved.
	file config.Config
	cfg  config.Config
}

// NewRootCommand builds the command tree. Without a subcommand it runs the
// terminal interface.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version, getenv: os.Getenv}

	root := &cobra.Command{
		Use:   "ethfaucet",
		Short: "Terminal client for a Faucet contract",
		Long: `ethfaucet connects to a wallet provider, finds the deployed Faucet
contract from its Truffle artifacts and shows the contract balance.

Example:
  ethfaucet                       # interactive terminal interface
  ethfaucet serve --listen :8080  # headless HTTP and websocket API
  ethfaucet check --json
  ethfaucet deposit`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
		RunE: a.runTUI,
	}
	root.SetVersionTemplate("ethfaucet version {{.Version}}\n")
	root.PersistentFlags().StringVarP(&a.configFlag, "config", "c", "", "Path to configuration file (default ~/"+config.ConfigFileName+")")

	root.AddCommand(
		a.newServeCommand(),
		a.newCheckCommand(),
		a.newBalanceCommand(),
		a.newActionCommand(session.ActionDeposit),
		a.newActionCommand(session.ActionWithdraw),
		a.newAccountsCommand(),
	)
	return root
}

// Execute runs the command tree and prints a failure to stderr.
func Execute(version string) error {
	err := NewRootCommand(version).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func (a *app) loadConfig() error {
	path, err := config.GetConfigPath(a.configFlag)
	if err != nil {
		return fmt.Errorf("determining config path: %w", err)
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", path, err)
	}
	a.path = path
	a.file = cfg
	a.cfg = config.ApplyEnv(cfg, a.getenv)
	return nil
}

// logger writes to the configured log file when toFile is set, to stderr
// otherwise.
func (a *app) logger(toFile bool) (*zap.Logger, error) {
	path := ""
	if toFile {
		path = a.cfg.LogFile
	}
	return logging.New(a.cfg.LogLevel, path)
}

func (a *app) newSession(log *zap.Logger, m *metrics.Metrics) (*session.Session, error) {
	if err := config.Validate(a.cfg); err != nil {
		return nil, err
	}
	sc, err := a.cfg.Session()
	if err != nil {
		return nil, err
	}
	return session.New(sc, log, m), nil
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	log, err := a.logger(true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s, err := a.newSession(log, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return tui.Start(ctx, s, tui.Options{
		ContractName:   a.cfg.ContractName,
		DepositAmount:  a.cfg.DepositAmount,
		WithdrawAmount: a.cfg.WithdrawAmount,
		HistorySize:    a.cfg.HistorySize,
	}, a.version)
}

// startSession runs discovery for a one-shot command. Unlike the interface,
// a missing provider is an error here.
func (a *app) startSession(ctx context.Context, log *zap.Logger) (*session.Session, error) {
	s, err := a.newSession(log, nil)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
