package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"canelevation/internal/canelevation"
	clierrors "canelevation/internal/cli/errors"
	"canelevation/internal/cli/middleware"
	"canelevation/internal/cli/output"
	"canelevation/internal/config"
	"canelevation/internal/httpclient"
	"canelevation/internal/logger"
	"canelevation/internal/metadata"
	"canelevation/internal/pdal"
	"canelevation/internal/reproject"
	"canelevation/internal/stac"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	// cfgFile is the path to the config file (set via --config flag)
	cfgFile string

	// cfg holds the loaded configuration
	cfg *config.Config

	// log is the logger instance
	log *logger.Logger

	// cmdStartTime tracks when command execution started
	cmdStartTime time.Time

	// cmdCtx carries the logger and command context
	cmdCtx context.Context

	// Global flags
	outputFormat   string
	verboseMode    bool
	skipValidation bool
	pdalBinary     string
	pdalTimeout    time.Duration
)

// annotationNoConfig marks commands that still run when the config file is broken.
const annotationNoConfig = "canelevation/no-config"

var applyMiddleware sync.Once

// flagKeys maps global flags onto configuration keys.
var flagKeys = map[string]string{
	"output":       "output.format",
	"pdal-binary":  "pdal.binary",
	"pdal-timeout": "pdal.timeout",
}

// Validator checks an encoded STAC document.
type Validator interface {
	Validate(ctx context.Context, doc []byte) error
}

// newBuilder wires the production builder; tests replace it.
var newBuilder = func(c *config.Config, l *logger.Logger) *canelevation.Builder {
	return canelevation.NewBuilder(
		metadata.NewLoader(httpclient.New(c.HTTP), l),
		pdal.New(c.PDAL, l),
		reproject.New(),
		l,
	)
}

// newValidator wires the schema validator; tests replace it.
var newValidator = func(c *config.Config, l *logger.Logger) Validator {
	return stac.NewValidator(httpclient.New(c.HTTP), l)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canelevation",
	Short: "Create STAC metadata for NRCan CanElevation point clouds",
	Long: `canelevation builds STAC Collections and Items for the CanElevation
point-cloud series published on open.canada.ca. Point-cloud headers are read
with PDAL and bounding boxes are reprojected to WGS84 with PROJ.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		var err error
		log, err = logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cc := logger.NewCommandContext(cmd, args)
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		cmdCtx = logger.WithCommandContext(parent, cc)
		cmdCtx = logger.WithLogger(cmdCtx, log)

		cmdStartTime = time.Now()
		log.Debug("command started", cc.LogGroup())

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if log == nil {
			return nil
		}

		if cc := logger.CommandContextFrom(Context()); cc != nil {
			log.Debug("command completed",
				"command", cc.Command,
				"duration_ms", time.Since(cmdStartTime).Milliseconds(),
				"request_id", cc.RequestID,
			)
		}

		return log.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	applyMiddleware.Do(func() {
		middleware.ApplyRecursive(rootCmd,
			middleware.Logging(Log),
			middleware.Timing(IsVerbose),
		)
	})

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/canelevation/config.yaml)")
	pf.StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml, quiet)")
	pf.BoolVarP(&verboseMode, "verbose", "v", false, "enable debug logging and timing")
	pf.BoolVar(&skipValidation, "skip-validation", false, "do not validate records against the STAC schemas")
	pf.StringVar(&pdalBinary, "pdal-binary", "", "pdal executable (overrides pdal.binary)")
	pf.DurationVar(&pdalTimeout, "pdal-timeout", 0, "timeout for a single pdal run (overrides pdal.timeout)")
}

// loadConfig loads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		if cmd.Annotations[annotationNoConfig] != "true" {
			return clierrors.ConfigInvalid(config.ConfigFileUsed(cfgFile), err)
		}
		cfg = config.DefaultConfig()
	}

	if err := applyFlagOverrides(cfg, cmd.Flags()); err != nil {
		return err
	}
	if verboseMode {
		cfg.Log.Level = "debug"
	}
	if !isTerminal(os.Stderr) {
		cfg.Log.NoColor = true
	}

	return nil
}

// applyFlagOverrides copies changed global flags into c.
func applyFlagOverrides(c *config.Config, flags *pflag.FlagSet) error {
	v := config.NewViperFromConfig(c)
	changed := false
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
			changed = true
		}
	})
	if !changed {
		return nil
	}
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("failed to apply flags: %w", err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Config returns the current configuration (for use by subcommands)
func Config() *config.Config {
	return cfg
}

// ConfigFile returns the config file path (for use by subcommands)
func ConfigFile() string {
	return cfgFile
}

// Log returns the logger instance (for use by subcommands)
func Log() *logger.Logger {
	return log
}

// Context returns the command context (for use by subcommands)
func Context() context.Context {
	if cmdCtx == nil {
		return context.Background()
	}
	return cmdCtx
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	return verboseMode
}

// validationEnabled reports whether written records are schema-checked.
func validationEnabled() bool {
	return cfg.Validation.Enabled && !skipValidation
}

// writer returns an output writer for cmd in the configured format.
func writer(cmd *cobra.Command) *output.Writer {
	return output.NewWriter(output.ParseFormat(cfg.Output.Format)).
		WithOutput(cmd.OutOrStdout()).
		WithError(cmd.ErrOrStderr())
}
