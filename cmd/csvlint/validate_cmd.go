package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/JonMunkholm/csvlint/internal/profile"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type validateOptions struct {
	separator    string
	noHeader     bool
	format       string
	parallel     int
	failOn       string
	profilePath  string
	maxLineBytes int
	allowOpenEOF bool
}

// failNever disables the findings exit code.
const failNever = -1

// fileResult is the outcome for one input.
type fileResult struct {
	Path   string
	Report *csvcheck.Report
	Err    error
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate CSV files (use - for stdin)",
		Args:  atLeastOneArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.separator, "separator", "comma", "Field separator: a single character or comma, tab, semicolon, pipe")
	cmd.Flags().BoolVar(&opts.noHeader, "no-header", false, "Treat the first row as data")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().IntVar(&opts.parallel, "parallel", runtime.NumCPU(), "Files validated at once")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "error", "Exit with code 2 on findings at this level or above: error, warning, information, never")
	cmd.Flags().StringVar(&opts.profilePath, "profile", "", "Profile JSON file to check header names against")
	cmd.Flags().BoolVar(&opts.allowOpenEOF, "allow-open-quote-at-eof", false, "Do not report input that ends inside a quoted field (code 3)")
	cmd.Flags().IntVar(&opts.maxLineBytes, "max-line-bytes", csvcheck.DefaultMaxLineBytes, "Largest accepted physical line")

	return cmd
}

func runValidate(ctx context.Context, stdin io.Reader, stdout io.Writer, paths []string, opts validateOptions) error {
	v, threshold, err := buildValidator(paths, opts)
	if err != nil {
		return withCode(exitUsage, err)
	}

	runID := uuid.New()
	log := slog.Default().With("run_id", runID)
	log.Info("validation started", "files", len(paths), "parallel", opts.parallel)

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.parallel, 1))

	for i, path := range paths {
		g.Go(func() error {
			start := time.Now()
			report, err := validateInput(gctx, v, path, stdin)
			results[i] = fileResult{Path: path, Report: report, Err: err}
			if err != nil {
				log.Warn("file failed", "file", path, "error", err)
			} else {
				log.Info("file validated", "file", path, "messages", len(report.Messages), "duration", time.Since(start))
			}
			// Per-file failures are reported with the results; only
			// cancellation stops the remaining files.
			if errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return withCode(exitInternal, err)
	}

	if err := writeResults(stdout, opts.format, runID, results); err != nil {
		return withCode(exitInternal, err)
	}

	failed := 0
	findings := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		if threshold != failNever && r.Report.AtOrAbove(csvcheck.Severity(threshold)) > 0 {
			findings++
		}
	}
	switch {
	case failed > 0:
		return withCode(exitRead, fmt.Errorf("%d of %d files could not be validated", failed, len(results)))
	case findings > 0:
		return withCode(exitFindings, errFindings)
	}
	return nil
}

// buildValidator checks the flags and prepares a shared validator.
func buildValidator(paths []string, opts validateOptions) (*csvcheck.Validator, int, error) {
	stdinCount := 0
	for _, p := range paths {
		if p == "-" {
			stdinCount++
		}
	}
	if stdinCount > 1 {
		return nil, 0, errors.New("stdin (-) can only be given once")
	}

	switch opts.format {
	case "text", "json":
	default:
		return nil, 0, fmt.Errorf("invalid --format %q: use text or json", opts.format)
	}

	threshold := failNever
	if !strings.EqualFold(opts.failOn, "never") {
		sev, err := csvcheck.ParseSeverity(opts.failOn)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid --fail-on: %w", err)
		}
		threshold = int(sev)
	}

	sep, err := csvcheck.ParseSeparator(opts.separator)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid --separator: %w", err)
	}
	csvOpts := csvcheck.DefaultOptions()
	csvOpts.Separator = sep
	csvOpts.HasHeader = !opts.noHeader
	if err := csvOpts.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid --separator: %w", err)
	}

	validatorOpts := []csvcheck.Option{csvcheck.WithMaxLineBytes(opts.maxLineBytes)}
	if opts.allowOpenEOF {
		validatorOpts = append(validatorOpts, csvcheck.WithoutUnterminatedQuoteError())
	}
	if opts.profilePath != "" {
		p, err := profile.LoadFile(opts.profilePath)
		if err != nil {
			return nil, 0, fmt.Errorf("load --profile: %w", err)
		}
		validatorOpts = append(validatorOpts, csvcheck.WithHeaderChecker(p.HeaderChecker(csvOpts.Quote)))
	}

	return csvcheck.New(csvOpts, validatorOpts...), threshold, nil
}

func validateInput(ctx context.Context, v *csvcheck.Validator, path string, stdin io.Reader) (*csvcheck.Report, error) {
	if path == "-" {
		return v.Validate(ctx, stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return v.Validate(ctx, f)
}
