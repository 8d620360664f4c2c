// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/petal-labs/anthropic/anthropic"
	"github.com/petal-labs/anthropic/cli/config"
	"github.com/petal-labs/anthropic/cli/keystore"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// ClientFactory creates an API client from the resolved key and config.
type ClientFactory func(apiKey string, cfg *config.Config, logger *zap.Logger) (*anthropic.Client, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig   ConfigLoader
	createClient ClientFactory
	newKeystore  KeystoreFactory
	getenv       func(string) string
	stdinIsTTY   func() bool
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer

	cfgFile    string
	envFile    string
	model      string
	profile    string
	jsonOutput bool
	verbose    bool
	cfg        *config.Config
	logger     *zap.Logger

	msgPrompt      string
	msgSystem      string
	msgTemperature float64
	msgMaxTokens   int
	msgStream      bool
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithClientFactory injects a client factory dependency.
func WithClientFactory(factory ClientFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.createClient = factory
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithEnv injects the environment lookup used for the API key.
func WithEnv(getenv func(string) string) AppOption {
	return func(a *App) {
		if getenv != nil {
			a.getenv = getenv
		}
	}
}

// WithIO injects process I/O streams. stdinIsTTY reports whether stdin is an
// interactive terminal; nil keeps the default check.
func WithIO(stdin io.Reader, stdout, stderr io.Writer, stdinIsTTY func() bool) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
		if stdinIsTTY != nil {
			a.stdinIsTTY = stdinIsTTY
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:   config.LoadConfig,
		createClient: defaultClientFactory,
		newKeystore:  keystore.Open,
		getenv:       os.Getenv,
		stdinIsTTY:   func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "anthropic",
		Short: "Command-line client for the Anthropic API",
		Long: `anthropic sends messages to Claude models and inspects the models
available to your API key.

The API key is read from ANTHROPIC_API_KEY (also from a .env file) or from the
encrypted keystore managed with 'anthropic keys'.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.anthropic/config.yaml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model ID (e.g. claude-sonnet-4-5)")
	root.PersistentFlags().StringVar(&a.profile, "profile", "", "keystore profile holding the API key")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newMessagesCommand())
	root.AddCommand(a.newModelsCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx.
func (a *App) ExecuteContext(ctx context.Context) error {
	defer func() { _ = a.logger.Sync() }()
	return a.root.ExecuteContext(ctx)
}

// SetArgs overrides the command-line arguments.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

func (a *App) initConfig() error {
	if err := config.LoadEnv(a.envFile, filepath.Join(config.Dir(), ".env")); err != nil {
		return exitWithCode(ExitValidation, err)
	}

	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	a.cfg = cfg

	// Apply config defaults if flags not set.
	if a.model == "" && cfg.DefaultModel != "" {
		a.model = cfg.DefaultModel
	}
	if a.profile == "" {
		a.profile = cfg.KeyProfile()
	}

	if a.verbose {
		a.logger = newVerboseLogger(a.stderr)
	}
	return nil
}

// newVerboseLogger writes human-readable debug logs to w.
func newVerboseLogger(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.DebugLevel))
}
