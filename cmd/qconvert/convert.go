package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gofhir/qconvert/pkg/bundle"
	"github.com/gofhir/qconvert/pkg/converter"
	"github.com/gofhir/qconvert/pkg/invariant"
	"github.com/gofhir/qconvert/pkg/logger"
	"github.com/gofhir/qconvert/pkg/metrics"
	"github.com/gofhir/qconvert/pkg/outcome"
	"github.com/gofhir/qconvert/pkg/worker"
)

func newConvertCmd() *cobra.Command {
	var flags convertFlags
	cmd := &cobra.Command{
		Use:   "convert [flags] FILE...",
		Short: "Convert Questionnaires or Bundles to another FHIR version",
		Long: `Convert reads .json or .json.xz files (or "-" for stdin) holding a
Questionnaire or a Bundle, converts every Questionnaire and writes
<name>.<to>.json into --out. Other resources are copied through unchanged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			return runConvert(cmd, cfg, args)
		},
	}
	flags.register(cmd)
	return cmd
}

func runConvert(cmd *cobra.Command, cfg *Config, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	from, to, err := cfg.Versions()
	if err != nil {
		return err
	}
	if cfg.LogLevel != "" && !verbose && !quiet {
		level, _ := logger.ParseLevel(cfg.LogLevel)
		logger.SetLevel(level)
	}

	stats := metrics.New()
	conv, err := bundle.New(from, to,
		converter.WithConversionTag(cfg.ConversionTag),
		converter.WithPreserveExtensions(cfg.PreserveExtensions),
		converter.WithMetrics(stats),
	)
	if err != nil {
		return err
	}

	paths, err := expandInputs(args)
	if err != nil {
		return err
	}

	report := &RunReport{RunID: uuid.New().String(), From: from.String(), To: to.String(), Status: outcome.Success}
	logger.Info("run %s: converting %d file(s) %s -> %s", report.RunID, len(paths), from, to)

	var jobs []worker.Job
	inputs := make(map[string]*input, len(paths))
	for _, p := range paths {
		in, err := readInput(p, cmd.InOrStdin())
		if err != nil {
			report.add(FileReport{Input: p, Status: outcome.Aborted, Error: err.Error()})
			continue
		}
		inputs[p] = in
		jobs = append(jobs, worker.Job{ID: p, Data: in.Data})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	batch := worker.Batch(ctx, conv.Convert, jobs, cfg.Workers)

	var checker *invariant.Checker
	if cfg.Verify {
		checker = invariant.New()
	}

	for _, res := range batch.Results {
		fr := FileReport{
			Input:       res.ID,
			Fingerprint: inputs[res.ID].Fingerprint,
			Status:      res.Status(),
			Duration:    formatDuration(res.Duration),
		}
		if res.Result != nil {
			fr.Messages = res.Result.Messages
		}
		if res.Error != nil {
			fr.Error = res.Error.Error()
			report.add(fr)
			continue
		}

		if checker != nil {
			fr.Violations, err = verifyOutput(checker, res.Output, to)
			if err != nil {
				fr.Error = err.Error()
			}
		}

		if res.ID == stdinName && cfg.Out == "" {
			_, _ = cmd.OutOrStdout().Write(append(res.Output, '\n'))
		} else {
			fr.Output = outputPath(res.ID, cfg.Out, to)
			if err := writeOutput(ctx, fr.Output, res.Output); err != nil {
				fr.Error = err.Error()
			}
		}
		report.add(fr)
	}

	snap := stats.Snapshot()
	report.Metrics = &snap

	// Report goes to stderr when stdout carries converted JSON.
	w := cmd.OutOrStdout()
	for _, p := range paths {
		if p == stdinName && cfg.Out == "" {
			w = cmd.ErrOrStderr()
		}
	}
	if err := report.write(w, cfg.Output); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if report.Failed() {
		return errFailed
	}
	return nil
}
