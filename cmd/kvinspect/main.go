package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/kvinspect/internal/cli"
	"github.com/julianstephens/kvinspect/internal/kvinspect"
	"github.com/julianstephens/kvinspect/internal/logger"
)

var (
	version = "kvinspect v0.1.0"
)

type LogOpts struct {
	Level  string `help:"Logging level (debug, info, warn, error)" default:"info" envvar:"KVINSPECT_LOG_LEVEL"`
	Debug  bool   `help:"Enable debug logging (overrides --level)"                envvar:"KVINSPECT_DEBUG"`
	Stream bool   `help:"Log only to stderr, skipping the log file"               envvar:"KVINSPECT_LOG_STREAM"`
	Dir    string `help:"Directory for the log file; defaults to the config value or ~/.kvinspect/logs" type:"path" envvar:"KVINSPECT_LOG_DIR"`
}

type CLI struct {
	Aof    cli.AofCmd    `cmd:"" help:"Decode an append-only log and print its records"`
	Dump   cli.DumpCmd   `cmd:"" help:"Print every key/value pair in the store"`
	Check  cli.CheckCmd  `cmd:"" help:"Cross-check a log against a store domain"`
	Stats  cli.StatsCmd  `cmd:"" help:"Display per-domain statistics"`
	Config cli.ConfigCmd `cmd:"" help:"Manage the config file"`

	ConfigFile string `name:"config-file" help:"JSON config file" type:"path" envvar:"KVINSPECT_CONFIG" short:"c"`

	Logger  logger.Logger    `kong:"-"`
	LogOpts LogOpts          `         embed:"" prefix:"log-" help:"Logging options"`
	Version kong.VersionFlag `                                help:"Show version information" short:"V"`
}

func createLogger(opts LogOpts, cfg *kvinspect.Options) (logger.Logger, error) {
	level := opts.Level
	if opts.Debug {
		level = "debug"
	}
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if opts.Stream {
		return logger.NewWriterLogger(lvl, os.Stderr, os.Stderr), nil
	}

	logDir := opts.Dir
	if logDir == "" {
		logDir = cfg.LogDir
	}
	if logDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		logDir = filepath.Join(homeDir, kvinspect.DefaultAppDir, kvinspect.DefaultLogDir)
	}
	fileLogger, err := logger.NewFileLogger(logger.FileConfig{
		Dir:        logDir,
		FileName:   kvinspect.DefaultLogFileName,
		MaxSizeMB:  cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Level:      lvl,
	})
	if err != nil {
		return nil, err
	}

	// stdout carries the report, so the console only sees warnings and errors
	// unless debugging.
	consoleLevel := max(lvl, logger.LevelWarn)
	if opts.Debug {
		consoleLevel = logger.LevelDebug
	}
	return logger.NewMultiLogger(fileLogger, logger.NewWriterLogger(consoleLevel, os.Stderr, os.Stderr)), nil
}

func main() {
	cliApp := &CLI{
		Logger: logger.NoOpLogger{},
	}
	ctx := kong.Parse(cliApp,
		kong.Name("kvinspect"),
		kong.Description("Inspect an agent key-value store and decode its append-only log"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	opts, err := cli.LoadOptions(cliApp.ConfigFile)
	ctx.FatalIfErrorf(err)

	lg, err := createLogger(cliApp.LogOpts, opts)
	ctx.FatalIfErrorf(err)
	cliApp.Logger = lg
	defer func() {
		if c, ok := lg.(logger.Closeable); ok {
			_ = c.Close()
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx.BindTo(sigCtx, (*context.Context)(nil))

	err = ctx.Run(cli.NewEnv(lg, opts, os.Stdout))
	if err != nil {
		// Commands print their own errors.
		stop()
		if errors.Is(err, cli.ErrFindings) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
