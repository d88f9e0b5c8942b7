package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgallion1/lexgest/internal/config"
)

// cli carries state initialized by the root command to its subcommands.
type cli struct {
	configPath string
	cfg        config.Config
	log        *zap.Logger
}

// logOutputKey is a command annotation naming where that command logs.
// Commands that write results to stdout log to stderr instead.
const logOutputKey = "log_output"

// flagKeys maps command-line flags onto config keys. Flags override the
// config file and environment.
var flagKeys = map[string]string{
	"log-level":      "log_level",
	"log-format":     "log_format",
	"port":           "port",
	"merge-strategy": "merge_strategy",
	"length":         "summary_length",
	"complexity":     "complexity",
	"tone":           "tone",
	"style":          "style",
	"jurisdiction":   "jurisdiction",
	"token-ceiling":  "token_ceiling",
	"concurrency":    "concurrency",
	"batch-timeout":  "batch_timeout",
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:   "lexgest",
		Short: "Cited legal document summarization",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "YAML config file (environment variables override it)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (json, console)")

	cmd.AddCommand(newServeCommand(c), newSummarizeCommand(c))
	return cmd
}

func (c *cli) init(cmd *cobra.Command) error {
	v := config.New()
	if c.configPath != "" {
		v.SetConfigFile(c.configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", c.configPath, err)
		}
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	output := "stdout"
	if o := cmd.Annotations[logOutputKey]; o != "" {
		output = o
	}
	log, err := newLogger(cfg.LogLevel, cfg.LogFormat, output)
	if err != nil {
		return err
	}
	c.cfg, c.log = cfg, log
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}

// newLogger builds the process logger: JSON by default, console when asked.
// Unknown levels fall back to info.
func newLogger(level, format, output string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encoding := "json"
	if format == "console" {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoding = "console"
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      format == "console",
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
	log, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}
