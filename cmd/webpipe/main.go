package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/webpipe/pkgs/parser"
)

// Build-time variables - can be set via ldflags
var (
	Version   string = "dev"
	BuildTime string = "unknown"
	GitCommit string = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once the persistent
// flags and configuration have been resolved
type app struct {
	configFile string
	logLevel   string
	logFormat  string

	cfg    *Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "webpipe",
		Short: "Parse, format and check WebPipe files",
		Long: `webpipe is the command-line front end for the WebPipe language.
It parses .wp files into JSON, pretty-prints them, and checks that
pipelines, variables, resolvers and tests refer to things that exist.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to config file (default: "+defaultConfigFile+" when present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(a.parseCmd())
	root.AddCommand(a.fmtCmd())
	root.AddCommand(a.checkCmd())
	root.AddCommand(versionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	a.logger.Debug("configuration loaded",
		slog.Int("indent", cfg.Format.Indent),
		slog.Int("max_depth", cfg.Parse.MaxDepth))
	return nil
}

// parserOpts builds the parser options the configuration asks for
func (a *app) parserOpts(extra ...parser.ParserOpt) []parser.ParserOpt {
	opts := []parser.ParserOpt{
		parser.WithMaxDepth(a.cfg.Parse.MaxDepth),
		parser.WithLogger(a.logger),
	}
	return append(opts, extra...)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version, build time, and git commit information for webpipe.",
		// Version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "webpipe %s\n", Version)
	fmt.Fprintf(w, "Built: %s\n", BuildTime)
	fmt.Fprintf(w, "Commit: %s\n", GitCommit)
}

func readSource(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	return string(content), nil
}
