// Package cli implements the splitter command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/sol-splitter/internal/app"
	"github.com/rovshanmuradov/sol-splitter/internal/config"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/ui/style"
	"github.com/rovshanmuradov/sol-splitter/internal/utils/logger"
	"github.com/rovshanmuradov/sol-splitter/internal/wallet"
)

// CommandContext holds dependencies shared by all commands.
type CommandContext struct {
	configPath string
	verbose    bool

	Config *config.Config
	Logger *logger.Logger
	Styles style.Styles

	// loadConfig and newLogger are replaced in tests.
	loadConfig     func(path string) (*config.Config, error)
	newLogger      func(cfg *config.Config) (*logger.Logger, error)
	sessionOptions app.Options
}

// Option customises a CommandContext.
type Option func(*CommandContext)

// WithConfig skips loading a config file.
func WithConfig(cfg *config.Config) Option {
	return func(c *CommandContext) {
		c.loadConfig = func(string) (*config.Config, error) { return cfg, nil }
	}
}

// WithLogger replaces the file logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *CommandContext) {
		c.newLogger = func(*config.Config) (*logger.Logger, error) { return logger.Wrap(l), nil }
	}
}

// WithSessionOptions overrides session wiring.
func WithSessionOptions(opts app.Options) Option {
	return func(c *CommandContext) { c.sessionOptions = opts }
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	cc := &CommandContext{
		Styles:     style.DefaultStyles(),
		loadConfig: config.LoadConfig,
		newLogger:  newFileLogger,
	}
	for _, opt := range opts {
		opt(cc)
	}

	root := &cobra.Command{
		Use:   "splitter",
		Short: "Split one SOL payment across several recipients",
		Long: `splitter sends a single Solana transaction that divides an amount between
2 to 5 recipients by percentage. It keeps a local payment history, an address
book and reusable recipient presets.

Example:
  splitter pay --amount 1.5 <address>=60 alice=40
  splitter pay --amount 2 --preset team --tui
  splitter history export --format csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cc.init()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			cc.cleanup()
		},
	}

	root.PersistentFlags().StringVarP(&cc.configPath, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().BoolVarP(&cc.verbose, "verbose", "v", false, "print debug logs to the console")

	root.AddCommand(
		newPayCmd(cc),
		newBalanceCmd(cc),
		newStatusCmd(cc),
		newContactsCmd(cc),
		newPresetsCmd(cc),
		newHistoryCmd(cc),
		newImportCmd(cc),
	)
	return root
}

// Execute runs the command tree and prints a user-facing message for any error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) error {
	root := NewRootCommand(opts...)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, style.DefaultStyles().Error.Render("Error: "+types.UserMessage(err)))
	}
	return err
}

func (cc *CommandContext) init() error {
	cfg, err := cc.loadConfig(cc.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cc.verbose {
		cfg.DebugLogging = true
	}
	cc.Config = cfg

	l, err := cc.newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cc.Logger = l
	return nil
}

func (cc *CommandContext) cleanup() {
	if cc.Logger != nil {
		_ = cc.Logger.Close()
	}
}

func newFileLogger(cfg *config.Config) (*logger.Logger, error) {
	lc := logger.DefaultConfig()
	lc.LogFile = cfg.LogFile
	lc.Development = cfg.DebugLogging
	if cfg.DebugLogging {
		lc.ConsoleLevel = zapcore.DebugLevel
	}
	return logger.New(lc)
}

// openSession wires services for one command. approver may be nil for commands that never pay.
func (cc *CommandContext) openSession(ctx context.Context, approver wallet.Approver) (*app.Session, error) {
	defer cc.Logger.TrackPerformance("open_session")()

	opts := cc.sessionOptions
	if approver != nil {
		opts.Approver = approver
	}
	return app.NewSession(ctx, cc.Config, cc.Logger.Logger, opts)
}

func closeSession(s *app.Session) {
	_ = s.Close(context.Background())
}
