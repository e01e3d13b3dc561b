package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/resultflow/internal/director"
	"github.com/ivlev/resultflow/internal/engine"
	"github.com/ivlev/resultflow/internal/scenario"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var timeline, subtitles, endCardURL, show string
	var seed int64

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run the scene without drawing and print its batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if show != "" {
				return showPlan(cmd, show)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg.DryRun = true
			cfg.TimelinePath = timeline
			if cfg.TimelinePath == "" {
				cfg.TimelinePath = scenario.GenerateScenarioPath()
			}
			if subtitles != "" {
				cfg.SubtitlesPath = subtitles
			}
			if endCardURL != "" {
				cfg.EndCardURL = endCardURL
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := ctx.logger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			icons, err := openIcons(cfg, log)
			if err != nil {
				return err
			}
			defer icons.Close()

			report, err := engine.NewVideoProject(cfg, nil, director.NewResult(cfg, icons, log), log).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderPlan(report.Timeline))
			fmt.Fprintf(out, "[+] %d batches, %.2fs, timeline %s\n", report.Batches, report.Duration, cfg.TimelinePath)
			return nil
		},
	}
	cmd.Flags().StringVar(&timeline, "timeline", "", "Timeline file (default output/timelines/timeline_<timestamp>.yaml)")
	cmd.Flags().StringVar(&subtitles, "subtitles", "", "Also write the captions as SRT")
	cmd.Flags().StringVar(&endCardURL, "end-card-url", "", "Include the QR end card")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for record placement")
	cmd.Flags().StringVar(&show, "show", "", "Print a saved timeline instead of running: a path, or \"latest\" for the newest in "+scenario.DefaultDir)
	return cmd
}

// showPlan prints a timeline written by an earlier run.
func showPlan(cmd *cobra.Command, path string) error {
	if path == "latest" {
		latest, err := scenario.FindLatestScenario(scenario.DefaultDir)
		if err != nil {
			return err
		}
		path = latest
	}
	s, err := scenario.ReadScenario(path)
	if err != nil {
		return fmt.Errorf("read timeline: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderPlan(s))
	fmt.Fprintf(out, "[+] %s run %s: %d batches, %.2fs at %d fps, timeline %s\n", s.Scene, s.RunID, len(s.Batches), s.Duration, s.FPS, path)
	return nil
}

func renderPlan(s *scenario.Scenario) string {
	rows := make([][]string, 0, len(s.Batches))
	for _, b := range s.Batches {
		kinds := make([]string, 0, len(b.Effects))
		for _, e := range b.Effects {
			kinds = append(kinds, e.Kind)
		}
		rows = append(rows, []string{
			strconv.Itoa(b.Index),
			b.Kind,
			fmt.Sprintf("%.2f", b.Start),
			fmt.Sprintf("%.2f", b.RunTime),
			strconv.Itoa(b.Frames),
			strings.Join(kinds, ", "),
		})
	}
	return renderTable(
		[]string{"#", "Kind", "Start", "Run time", "Frames", "Effects"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}
