package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/ocrbatch/internal/config"
	"github.com/MeKo-Tech/ocrbatch/internal/models"
	"github.com/MeKo-Tech/ocrbatch/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootOptions is the state shared by every command of one command tree.
type rootOptions struct {
	// Configuration file path.
	cfgFile string
	// Configuration loader on a private viper instance.
	loader *config.Loader
	// Configuration resolved in PersistentPreRunE.
	cfg *config.Config
}

// NewRootCommand builds a fresh command tree. Every call gets its own viper
// instance, so trees can be executed repeatedly within one process.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{loader: config.NewLoaderWithViper(viper.New())}

	rootCmd := &cobra.Command{
		Use:   "ocrbatch",
		Short: "Batch OCR over a directory of images",
		Long: `ocrbatch scans a directory, keeps the images whose file name stem is listed
in an identifier file, detects text regions, recognizes every region and
writes all results to a single JSON report.

Detection and recognition run on ONNX models, a remote OCR service or
Tesseract.

Examples:
  ocrbatch run --input ./images --ids ./ids.txt --output ./results.json
  ocrbatch run -i ./images --ids ids.txt -o out.json --extensions "" --stats
  ocrbatch config init
  ocrbatch check --engine remote --endpoint http://localhost:8080`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.initConfig(); err != nil {
				return err
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), opts.cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _ := cmd.Flags().GetBool("version")
			if v {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/ocrbatch, /etc/ocrbatch)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	defaultModelsDir := models.DefaultModelsDir
	if envDir := os.Getenv(models.EnvModelsDir); envDir != "" {
		defaultModelsDir = envDir
	}
	flags.String("models-dir", defaultModelsDir,
		"directory containing ONNX models (can also be set via "+models.EnvModelsDir+")")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	v := opts.loader.GetViper()
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("models_dir", flags.Lookup("models-dir"))

	rootCmd.AddCommand(
		newRunCommand(opts),
		newConfigCommand(opts),
		newCheckCommand(opts),
	)
	return rootCmd
}

// Execute runs the command tree with a context that is cancelled on SIGINT
// or SIGTERM. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// initConfig reads the config file and environment. Validation is left to
// the commands that act on the configuration, so that "config init" works
// next to a broken file.
func (o *rootOptions) initConfig() error {
	cfg, err := o.loader.LoadWithFileWithoutValidation(o.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	o.cfg = cfg
	if used := o.loader.GetConfigFileUsed(); used != "" {
		slog.Debug("using config file", "path", used)
	}
	return nil
}

// config returns a copy of the resolved configuration that a command may
// modify with its own flags.
func (o *rootOptions) config() *config.Config {
	if o.cfg == nil {
		cfg := config.DefaultConfig()
		return &cfg
	}
	cfg := *o.cfg
	return &cfg
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger writes JSON logs to w. Standard output is reserved for progress
// lines and command output.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel(cfg),
	}))
}
