package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/webpipe/pkgs/ast"
	"github.com/aledsdavies/webpipe/pkgs/check"
	"github.com/aledsdavies/webpipe/pkgs/diag"
	"github.com/aledsdavies/webpipe/pkgs/formatter"
	"github.com/aledsdavies/webpipe/pkgs/parser"
)

// DiagnosticsError reports that a file produced error diagnostics. The
// diagnostics themselves have already been printed.
type DiagnosticsError struct {
	File     string
	Errors   int
	Warnings int
}

func (e *DiagnosticsError) Error() string {
	return fmt.Sprintf("%s: %d error(s), %d warning(s)", e.File, e.Errors, e.Warnings)
}

func newDiagnosticsError(file string, ds []diag.Diagnostic) *DiagnosticsError {
	return &DiagnosticsError{
		File:     file,
		Errors:   diag.Count(ds, diag.SeverityError),
		Warnings: diag.Count(ds, diag.SeverityWarning),
	}
}

func printDiagnostics(w io.Writer, file, src string, ds []diag.Diagnostic) {
	for _, d := range ds {
		fmt.Fprintln(w, diag.Format(file, src, d))
	}
}

// parseOutput is the JSON document printed by the parse command
type parseOutput struct {
	Program        *ast.Program           `json:"program"`
	Diagnostics    []diag.Diagnostic      `json:"diagnostics"`
	PipelineRanges map[string]ast.Span    `json:"pipelineRanges"`
	VariableRanges map[string]ast.Span    `json:"variableRanges"`
	TestLets       []ast.LetVariable      `json:"testLets"`
	BlockComments  []ast.Comment          `json:"blockComments"`
	Telemetry      *parser.ParseTelemetry `json:"telemetry,omitempty"`
}

func (a *app) parseCmd() *cobra.Command {
	var timing bool

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a file and print its syntax tree as JSON",
		Long: `Parse a WebPipe file and print the program, its diagnostics and the
declaration position indexes as a JSON document. Diagnostics never make
the command fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}

			var extra []parser.ParserOpt
			if timing {
				extra = append(extra, parser.WithTelemetryTiming())
			}
			res := parser.ParseSource(src, a.parserOpts(extra...)...)
			a.logger.Info("parsed file",
				slog.String("path", args[0]),
				slog.Int("diagnostics", len(res.Diagnostics)))

			out := parseOutput{
				Program:        res.Program,
				Diagnostics:    res.Diagnostics,
				PipelineRanges: res.PipelineRanges,
				VariableRanges: res.VariableRanges,
				TestLets:       res.TestLets,
				BlockComments:  res.BlockComments,
				Telemetry:      res.Telemetry,
			}
			if out.Diagnostics == nil {
				out.Diagnostics = []diag.Diagnostic{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&timing, "timing", false, "Include parser telemetry with timing in the output")
	return cmd
}

func (a *app) fmtCmd() *cobra.Command {
	var write, checkOnly bool

	cmd := &cobra.Command{
		Use:   "fmt [flags] FILE...",
		Short: "Pretty-print WebPipe files",
		Long: `Print WebPipe files in canonical layout. Files that produce any
diagnostic are left alone, since recovery may have skipped lines that
formatting would drop. The same goes for comments between steps, test
clauses or config properties.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && checkOnly {
				return errors.New("--write and --check cannot be combined")
			}

			unformatted := 0
			for _, path := range args {
				changed, err := a.formatFile(cmd, path, write, checkOnly)
				if err != nil {
					return err
				}
				if changed && checkOnly {
					fmt.Fprintln(cmd.OutOrStdout(), path)
					unformatted++
				}
			}
			if unformatted > 0 {
				return fmt.Errorf("%d file(s) need formatting", unformatted)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result to the source file instead of stdout")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "List files whose layout differs and exit non-zero")
	return cmd
}

// formatFile formats one file and reports whether its layout changed
func (a *app) formatFile(cmd *cobra.Command, path string, write, checkOnly bool) (bool, error) {
	src, err := readSource(path)
	if err != nil {
		return false, err
	}

	res := parser.ParseSource(src, a.parserOpts()...)
	ds := res.Diagnostics
	for _, c := range res.BlockComments {
		ds = append(ds, diag.Warnf(c.Span.Start, c.Span.End, "comment inside a block would be dropped by formatting"))
	}
	if len(ds) > 0 {
		diag.Sort(ds)
		printDiagnostics(cmd.ErrOrStderr(), path, src, ds)
		return false, newDiagnosticsError(path, ds)
	}

	out := formatter.FormatWith(res.Program, formatter.Options{Indent: a.cfg.Format.Indent})
	changed := out != src

	switch {
	case checkOnly:
	case write:
		if !changed {
			return false, nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return false, fmt.Errorf("error reading file %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
			return false, fmt.Errorf("error writing file %s: %w", path, err)
		}
		a.logger.Info("formatted file", slog.String("path", path))
	default:
		fmt.Fprint(cmd.OutOrStdout(), out)
	}
	return changed, nil
}

func (a *app) checkCmd() *cobra.Command {
	var envFile string
	var watch bool

	cmd := &cobra.Command{
		Use:   "check [flags] FILE",
		Short: "Parse a file and cross-check its declarations",
		Long: `Parse a WebPipe file and run the binding checks: named pipeline
references, duplicate declarations, the GraphQL schema and its resolvers,
unset environment variables and test targets. Diagnostics are printed as
file:line:col: severity: message. The command fails if any is an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lookup, err := envLookup(envFile)
			if err != nil {
				return err
			}

			path := args[0]
			err = a.checkFile(cmd.OutOrStdout(), path, lookup)
			if !watch {
				return err
			}
			var de *DiagnosticsError
			if err != nil && !errors.As(err, &de) {
				return err
			}
			return a.watch(cmd.Context(), path, func() {
				if err := a.checkFile(cmd.OutOrStdout(), path, lookup); err != nil {
					a.logger.Warn("check failed", slog.String("error", err.Error()))
				}
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Dotenv file used to resolve $VAR references")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-check the file whenever it changes")
	return cmd
}

// envLookup resolves variables from the process environment first, then
// from the dotenv file when one is given
func envLookup(envFile string) (func(string) (string, bool), error) {
	if envFile == "" {
		return os.LookupEnv, nil
	}
	vals, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("error reading env file %s: %w", envFile, err)
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vals[key]
		return v, ok
	}, nil
}

func (a *app) checkFile(w io.Writer, path string, lookup func(string) (string, bool)) error {
	src, err := readSource(path)
	if err != nil {
		return err
	}

	res := parser.ParseSource(src, a.parserOpts()...)
	ds := append(res.Diagnostics, check.Program(res.Program, check.Options{
		LookupEnv:  lookup,
		SchemaName: path,
	})...)
	diag.Sort(ds)

	printDiagnostics(w, path, src, ds)
	a.logger.Info("checked file",
		slog.String("path", path),
		slog.Int("errors", diag.Count(ds, diag.SeverityError)),
		slog.Int("warnings", diag.Count(ds, diag.SeverityWarning)))

	if diag.HasErrors(ds) {
		return newDiagnosticsError(path, ds)
	}
	return nil
}

// watch calls onChange every time path is written until ctx is done. The
// parent directory is watched so editors that replace the file on save are
// still seen.
func (a *app) watch(ctx context.Context, path string, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	a.logger.Info("watching file for changes", slog.String("path", path))

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			a.logger.Info("file changed, re-checking", slog.String("path", event.Name))
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("watch error", slog.String("error", err.Error()))
		}
	}
}
