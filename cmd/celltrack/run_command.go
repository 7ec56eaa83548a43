package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/LdDl/celltrack-go/celltrack"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var inputPath string
	var algorithm string
	var metricsPath string
	var jsonOutput bool
	var showTracks bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track cells of a segmented sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(inputPath) == "" {
				return errors.New("--input is required")
			}
			cfg, err := loadTrackerConfig(*ctx.configFlag)
			if err != nil {
				return err
			}
			if algorithm != "" {
				cfg.Algorithm = algorithm
			}
			logger, err := newLogger(cmd.ErrOrStderr(), *ctx.logLevelFlag, *ctx.logFormatFlag)
			if err != nil {
				return err
			}
			seq, err := loadSequenceFile(inputPath)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			tracker, err := celltrack.NewTracker(cfg,
				celltrack.WithLogger(logger),
				celltrack.WithMetrics(celltrack.NewMetrics(registry)),
			)
			if err != nil {
				return err
			}
			report, err := tracker.Run(cmd.Context(), seq)
			if err != nil {
				return err
			}
			if metricsPath != "" {
				if err := prometheus.WriteToTextfile(metricsPath, registry); err != nil {
					return errors.Wrap(err, "Can't write metrics")
				}
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderSummary(report, cfg, colorize))
			if showTracks {
				fmt.Fprintln(out, renderTracks(report, colorize))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Sequence file (YAML or JSON)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Matching algorithm: stable or optimal (overrides config)")
	cmd.Flags().StringVar(&metricsPath, "metrics-out", "", "Write prometheus metrics in text format to this file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print report as JSON")
	cmd.Flags().BoolVar(&showTracks, "tracks", false, "Print per-track table")
	return cmd
}

func renderSummary(report *celltrack.Report, cfg celltrack.Config, colorize bool) string {
	rows := [][]string{
		{"Algorithm", cfg.Algorithm},
		{"Frames", strconv.Itoa(report.Frames)},
		{"Cells", strconv.Itoa(report.Cells)},
		{"Tracks", strconv.Itoa(report.Tracks)},
		{"Divisions", strconv.Itoa(report.Divisions)},
		{"Eliminations", strconv.Itoa(report.Eliminations)},
		{"Lost", strconv.Itoa(report.Lost)},
		{"Track length", fmt.Sprintf("%.2f ± %.2f", report.TrackLengthMean, report.TrackLengthStd)},
	}
	for _, tag := range celltrack.AllErrorTags() {
		if count := report.Tags[tag.String()]; count > 0 && tag != celltrack.TagDefault {
			rows = append(rows, []string{"Tag " + tag.String(), strconv.Itoa(count)})
		}
	}
	return renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}, colorize)
}

func renderTracks(report *celltrack.Report, colorize bool) string {
	rows := make([][]string, 0, len(report.Summary))
	for _, summary := range report.Summary {
		parent := "-"
		if summary.Parent != celltrack.NoTrack {
			parent = strconv.Itoa(summary.Parent)
		}
		fate := "open"
		switch {
		case summary.Divided:
			fate = "divided"
		case summary.Eliminated:
			fate = "eliminated"
		}
		rows = append(rows, []string{
			strconv.Itoa(summary.TrackID),
			parent,
			summary.First.String(),
			summary.Last.String(),
			strconv.Itoa(summary.Length),
			fmt.Sprintf("%.3f", summary.Speed),
			fate,
		})
	}
	headers := []string{"Track", "Parent", "First", "Last", "Length", "Speed", "Fate"}
	aligns := []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	return renderTable(headers, rows, aligns, colorize)
}
