package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eversync/eversync/internal/config"
	"github.com/eversync/eversync/internal/convert"
	"github.com/eversync/eversync/internal/notesdk"
	"github.com/eversync/eversync/internal/sync"
	"github.com/eversync/eversync/internal/utils"
	"github.com/eversync/eversync/internal/version"
)

const (
	envPrefix      = "EVERSYNC"
	configFileName = "config"
)

var (
	// console log level, raised to debug by --debug
	logLevel = new(slog.LevelVar)
	// console output, set up by main
	consoleHandler = slog.Default().Handler()
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "eversync",
		Short:   "Sync a directory of text files into a notebook",
		Version: version.Detailed(),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			cmd.SilenceUsage = true
			if cfg.Debug {
				logLevel.Set(slog.LevelDebug)
			}

			detach, err := attachLogFile(cfg.LogFile)
			if err != nil {
				return err
			}
			defer detach()

			return runSync(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	rootCmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		// --collection is the older name of --notebook
		if name == "collection" {
			name = "notebook"
		}
		return pflag.NormalizedName(name)
	})

	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("dir", "d", ".", "Directory to sync")
	rootCmd.Flags().StringP("notebook", "n", config.DefaultNotebook, "Notebook to sync into")
	rootCmd.Flags().BoolP("force", "f", false, "Sync even if nothing changed since the last sync")
	rootCmd.Flags().Int("workers", config.DefaultWorkers, "Concurrent note uploads")
	rootCmd.Flags().String("service-host", config.DefaultServiceHost, "Note service host or url")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "Eversync config file")
	rootCmd.PersistentFlags().String("state-file", config.DefaultStatePath, "Sync state file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.Flags().String("log-file", config.DefaultLogFilePath, "Log file")

	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func runSync(ctx context.Context, out io.Writer, cfg *config.Config) error {
	runID := uuid.NewString()

	sdk, err := notesdk.New(&notesdk.SDKConfig{
		BaseURL:   cfg.ServiceHost,
		Token:     cfg.Token,
		RequestID: runID,
	})
	if err != nil {
		return err
	}
	defer sdk.Close()

	slog.Debug("eversync", "version", version.Short(), "service", cfg.ServiceHost, "token", utils.MaskSecret(cfg.Token), "state", cfg.StateFile)

	engine := sync.NewEngine(
		sync.NewSDKStore(sdk),
		convert.NewDefaultRegistry(),
		sync.NewStateStore(cfg.StateFile, slog.Default()),
		sync.WithWorkers(cfg.Workers),
		sync.WithLogger(slog.Default()),
	)

	report, err := engine.Run(ctx, sync.RunParams{
		Root:     cfg.Dir,
		Notebook: cfg.Notebook,
		Force:    cfg.Force,
		RunID:    runID,
	})
	if report != nil {
		printSummary(out, cfg.Notebook, report, err)
	}
	return err
}

func main() {
	// .env in the working directory, existing env wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	logLevel.Set(slog.LevelInfo)
	consoleHandler = tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevel,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(consoleHandler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// attachLogFile tees the default logger into path. The returned func restores
// console-only logging and closes the file.
func attachLogFile(path string) (func(), error) {
	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logInterceptor := utils.NewLogInterceptor(file)
	fileHandler := slog.NewTextHandler(logInterceptor, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		// time is added by the log interceptor
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(consoleHandler, fileHandler)))

	return func() {
		slog.SetDefault(slog.New(consoleHandler))
		logInterceptor.Close()
		file.Close()
	}, nil
}

// loadConfig merges, in order of precedence, flags, EVERSYNC_* env vars and
// the optional json config file. The result is not validated.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()

	if f := cmd.Flag("config"); f != nil && f.Changed {
		v.SetConfigFile(f.Value.String())
	} else {
		v.AddConfigPath(config.DefaultHomeDir)
		v.AddConfigPath(filepath.Join(home(), ".config", "eversync"))
		v.SetConfigName(configFileName)
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	bindFlag(v, cmd, "dir", "dir")
	bindFlag(v, cmd, "notebook", "notebook")
	bindFlag(v, cmd, "force", "force")
	bindFlag(v, cmd, "workers", "workers")
	bindFlag(v, cmd, "service_host", "service-host")
	bindFlag(v, cmd, "state_file", "state-file")
	bindFlag(v, cmd, "debug", "debug")
	bindFlag(v, cmd, "log_file", "log-file")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.BindEnv("dev_token", envPrefix+"_DEV_TOKEN", "EVERNOTE_DEV_TOKEN")

	return &config.Config{
		Path:        v.ConfigFileUsed(),
		Dir:         v.GetString("dir"),
		Notebook:    v.GetString("notebook"),
		ServiceHost: v.GetString("service_host"),
		Token:       v.GetString("dev_token"),
		StateFile:   v.GetString("state_file"),
		LogFile:     v.GetString("log_file"),
		Workers:     v.GetInt("workers"),
		Force:       v.GetBool("force"),
		Debug:       v.GetBool("debug"),
	}, nil
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		v.BindPFlag(key, f)
	}
}

func home() string {
	dir, _ := os.UserHomeDir()
	return dir
}
