package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ivlev/resultflow/internal/config"
	"github.com/ivlev/resultflow/internal/director"
	"github.com/ivlev/resultflow/internal/engine"
	"github.com/ivlev/resultflow/internal/system"
	"github.com/ivlev/resultflow/internal/video"
)

type renderFlags struct {
	output     string
	quality    string
	fps        int
	width      int
	height     int
	dryRun     bool
	timeline   string
	subtitles  string
	embed      bool
	lastFrame  string
	assets     string
	endCardURL string
	seed       int64
	stats      bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "Output video path (default output/result_<timestamp>.mp4)")
	fl.StringVarP(&f.quality, "quality", "q", "", "Quality preset: low, medium, high, production, fourk")
	fl.IntVar(&f.fps, "fps", 0, "Frames per second")
	fl.IntVar(&f.width, "width", 0, "Frame width in pixels")
	fl.IntVar(&f.height, "height", 0, "Frame height in pixels")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Run the scene without drawing or encoding")
	fl.StringVar(&f.timeline, "timeline", "", "Write the batch timeline to this YAML file")
	fl.StringVar(&f.subtitles, "subtitles", "", "Write the captions as SRT to this file")
	fl.BoolVar(&f.embed, "embed-subtitles", false, "Mux the captions into the video as a subtitle track")
	fl.StringVar(&f.lastFrame, "last-frame", "", "Save the final frame as PNG")
	fl.StringVar(&f.assets, "assets", "", "Directory with icon images overriding the built-in ones")
	fl.StringVar(&f.endCardURL, "end-card-url", "", "Finish with a QR code linking to this URL")
	fl.Int64Var(&f.seed, "seed", 0, "Seed for record placement (0 picks one)")
	fl.BoolVar(&f.stats, "stats", false, "Print and log render statistics")
}

// apply overrides cfg with the flags given on the command line.
func (f *renderFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("quality") {
		if err := cfg.ApplyQuality(f.quality); err != nil {
			return err
		}
	}
	if changed("fps") {
		cfg.FPS = f.fps
	}
	if changed("width") {
		cfg.Width = f.width
	}
	if changed("height") {
		cfg.Height = f.height
	}
	if changed("output") {
		cfg.OutputVideo = f.output
	}
	if changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if changed("timeline") {
		cfg.TimelinePath = f.timeline
	}
	if changed("subtitles") {
		cfg.SubtitlesPath = f.subtitles
	}
	if changed("embed-subtitles") {
		cfg.EmbedSubtitles = f.embed
	}
	if changed("last-frame") {
		cfg.LastFramePath = f.lastFrame
	}
	if changed("assets") {
		cfg.AssetsDir = f.assets
	}
	if changed("end-card-url") {
		cfg.EndCardURL = f.endCardURL
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("stats") {
		cfg.ShowStats = f.stats
	}
	if cfg.OutputVideo == "" && !cfg.DryRun {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.OutputVideo = filepath.Join("output", fmt.Sprintf("result_%s.mp4", timestamp))
	}
	return nil
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the scene to an MP4 video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			encoder := &video.FFmpegEncoder{}
			if !cfg.DryRun {
				bin, err := system.CheckFFmpeg()
				if err != nil {
					return err
				}
				encoder.Binary = bin
				if cfg.VideoEncoder == "" {
					cfg.VideoEncoder = system.GetBestH264Encoder(cmd.Context())
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := ctx.logger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			system.InitResourceLimits(log)

			if !cfg.DryRun {
				unlock, err := lockOutput(cfg.OutputVideo)
				if err != nil {
					return err
				}
				defer unlock()
			}

			icons, err := openIcons(cfg, log)
			if err != nil {
				return err
			}
			defer icons.Close()

			project := engine.NewVideoProject(cfg, encoder, director.NewResult(cfg, icons, log), log)
			report, err := project.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.ShowStats {
				fmt.Fprintln(out, renderStats(report))
			}
			if cfg.DryRun {
				fmt.Fprintf(out, "[+] Dry run finished: %d frames, %.2fs\n", report.Frames, report.Duration)
				return nil
			}
			fmt.Fprintf(out, "[+++] Done: %s\n", report.Output)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// lockOutput keeps two renders from writing the same file.
func lockOutput(output string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := output + ".lock"
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s is being rendered by another process", output)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(path)
	}, nil
}

func renderStats(r *engine.Report) string {
	rows := [][]string{
		{"Run", r.RunID},
		{"Resolution", r.Resolution},
		{"Frames", strconv.Itoa(r.Frames)},
		{"Duration", fmt.Sprintf("%.2fs", r.Duration)},
		{"Batches", fmt.Sprintf("%d (%d plays)", r.Batches, r.Plays)},
		{"Captions", strconv.Itoa(r.Captions)},
		{"Total", r.Total.Round(time.Millisecond).String()},
		{"Rendering", r.Rendering.Round(time.Millisecond).String()},
		{"Encoding", r.Encoding.Round(time.Millisecond).String()},
		{"Effective FPS", fmt.Sprintf("%.1f", r.EffectiveFPS())},
		{"RSS", system.HumanBytes(r.Usage.RSSBytes)},
		{"CPU", fmt.Sprintf("%.1fs (%.0f%%)", r.Usage.CPUSeconds, r.Usage.CPUPercent)},
		{"Goroutines", strconv.Itoa(r.Usage.Goroutines)},
	}
	return renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}
