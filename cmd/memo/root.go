package main

import (
	"github.com/krisalay/go-memoize/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type logFlags struct {
	level string
	json  bool
}

func (f *logFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.level, "log-level", "info", "log level (debug, info, warn, error)")
	fs.BoolVar(&f.json, "log-json", false, "emit logs as JSON")
}

func (f *logFlags) logger() logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.LogLevel(f.level)
	cfg.JSON = f.json
	cfg.Prefix = "memo"
	return logger.NewLogger(cfg)
}

func RootCmd() *cobra.Command {
	flags := &logFlags{}
	root := &cobra.Command{
		Use:           "memo",
		Short:         "Walk through and load test memoized functions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.register(root.PersistentFlags())

	root.AddCommand(
		DemoCmd(flags),
		BenchCmd(flags),
	)
	return root
}
