package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pkt.systems/deckd"
	"pkt.systems/deckd/internal/svcfields"
	deckdmcp "pkt.systems/deckd/mcp"
	"pkt.systems/pslog"
)

const (
	configKey        = "config"
	listenKey        = "listen"
	transportKey     = "transport"
	mcpPathKey       = "mcp-path"
	metricsKey       = "metrics"
	baseDirKey       = "base-dir"
	templateDirKey   = "template-dir"
	allowAbsoluteKey = "allow-absolute-paths"
	aspectRatioKey   = "aspect-ratio"
	logLevelKey      = "log-level"
)

func submain(ctx context.Context) int {
	baseLogger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("DECKD_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "deckd")
	cmd := newRootCommand(baseLogger)
	ctx = withSignalCancel(ctx)
	if _, err := cmd.ExecuteContextC(ctx); err != nil {
		if err != context.Canceled {
			svcfields.WithSubsystem(baseLogger, "cli.root").Error("command failed", "error", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "deckd",
		Short:         "PowerPoint presentation authoring MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := loadConfigFile()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := baseLogger
			logLevel := strings.TrimSpace(viper.GetString(logLevelKey))
			if logLevel != "" {
				level, ok := pslog.ParseLevel(logLevel)
				if !ok {
					return fmt.Errorf("invalid --log-level %q", logLevel)
				}
				logger = logger.LogLevel(level)
			}

			cfg, err := mcpConfigFromViper()
			if err != nil {
				return err
			}
			svc, err := deckdmcp.NewServer(deckdmcp.NewServerRequest{
				Config: cfg,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return svc.Run(ctx)
		},
	}

	flags := rootCmd.Flags()
	flags.StringP("listen", "l", "127.0.0.1:8721", "listen address for the http transport")
	flags.StringP("transport", "t", "stdio", "MCP transport (stdio|http)")
	flags.String("mcp-path", "/mcp", "HTTP path for the MCP streamable endpoint")
	flags.Bool("metrics", false, "expose Prometheus metrics on /metrics (http transport)")
	flags.StringP("base-dir", "d", "", "base directory presentation paths resolve against (default cwd)")
	flags.String("template-dir", "", "template directory (default <base-dir>/templates)")
	flags.Bool("allow-absolute-paths", false, "accept absolute paths outside the base directory")
	flags.String("aspect-ratio", "16:9", "default aspect ratio for new decks (4:3|16:9|16:10|a4)")
	flags.String("log-level", "", "log level override (trace|debug|info|warn|error)")

	persistentFlags := rootCmd.PersistentFlags()
	persistentFlags.StringP("config", "c", "", "path to YAML config file (defaults to $HOME/.deckd/"+deckd.DefaultConfigFileName+")")

	mustBindFlag(configKey, "DECKD_CONFIG", persistentFlags.Lookup("config"))
	mustBindFlag(listenKey, "DECKD_LISTEN", flags.Lookup("listen"))
	mustBindFlag(transportKey, "DECKD_TRANSPORT", flags.Lookup("transport"))
	mustBindFlag(mcpPathKey, "DECKD_MCP_PATH", flags.Lookup("mcp-path"))
	mustBindFlag(metricsKey, "DECKD_METRICS", flags.Lookup("metrics"))
	mustBindFlag(baseDirKey, "DECKD_BASE_DIR", flags.Lookup("base-dir"))
	mustBindFlag(templateDirKey, "DECKD_TEMPLATE_DIR", flags.Lookup("template-dir"))
	mustBindFlag(allowAbsoluteKey, "DECKD_ALLOW_ABSOLUTE_PATHS", flags.Lookup("allow-absolute-paths"))
	mustBindFlag(aspectRatioKey, "DECKD_ASPECT_RATIO", flags.Lookup("aspect-ratio"))
	mustBindFlag(logLevelKey, "DECKD_LOG_LEVEL", flags.Lookup("log-level"))

	return rootCmd
}

func mustBindFlag(key, env string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("flag for key %s not found", key))
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
	if env != "" {
		if err := viper.BindEnv(key, env); err != nil {
			panic(err)
		}
	}
}

func mcpConfigFromViper() (deckdmcp.Config, error) {
	cfg := deckdmcp.Config{
		Listen:             strings.TrimSpace(viper.GetString(listenKey)),
		Transport:          strings.TrimSpace(viper.GetString(transportKey)),
		HTTPPath:           strings.TrimSpace(viper.GetString(mcpPathKey)),
		MetricsEnabled:     viper.GetBool(metricsKey),
		BaseDir:            strings.TrimSpace(viper.GetString(baseDirKey)),
		TemplateDir:        strings.TrimSpace(viper.GetString(templateDirKey)),
		AllowAbsolutePaths: viper.GetBool(allowAbsoluteKey),
		DefaultAspectRatio: strings.TrimSpace(viper.GetString(aspectRatioKey)),
	}
	var err error
	if cfg.BaseDir, err = expandPath(cfg.BaseDir); err != nil {
		return deckdmcp.Config{}, fmt.Errorf("expand --base-dir: %w", err)
	}
	if cfg.TemplateDir, err = expandPath(cfg.TemplateDir); err != nil {
		return deckdmcp.Config{}, fmt.Errorf("expand --template-dir: %w", err)
	}
	return cfg, nil
}

func loadConfigFile() (string, error) {
	cfgPath := strings.TrimSpace(viper.GetString(configKey))
	explicit := cfgPath != ""

	if cfgPath == "" {
		if dir, err := deckd.DefaultConfigDir(); err == nil {
			candidate := filepath.Join(dir, deckd.DefaultConfigFileName)
			if _, err := os.Stat(candidate); err == nil {
				cfgPath = candidate
			}
		}
	}

	if cfgPath == "" {
		return "", nil
	}

	expanded, err := expandPath(cfgPath)
	if err != nil {
		return "", fmt.Errorf("expand config path %q: %w", cfgPath, err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return "", nil
		}
		return "", fmt.Errorf("config file %q: %w", expanded, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config file %q is a directory", expanded)
	}

	viper.SetConfigFile(expanded)
	if err := viper.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config file %q: %w", expanded, err)
	}
	return expanded, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(p) == 1 {
			p = home
		} else if p[1] == '/' || p[1] == '\\' {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}
