package engine

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/resultflow/internal/config"
	"github.com/ivlev/resultflow/internal/renderer"
	"github.com/ivlev/resultflow/internal/scenario"
	"github.com/ivlev/resultflow/internal/scene"
	"github.com/ivlev/resultflow/internal/system"
	"github.com/ivlev/resultflow/internal/video"
)

// Script builds one scene and plays it on an engine.
type Script interface {
	Name() string
	Run(ctx context.Context, eng *Engine) error
}

type VideoProject struct {
	Config  *config.Config
	Encoder video.VideoEncoder
	Script  Script
	Log     *slog.Logger
}

func NewVideoProject(cfg *config.Config, ve video.VideoEncoder, script Script, log *slog.Logger) *VideoProject {
	if log == nil {
		log = slog.Default()
	}
	return &VideoProject{Config: cfg, Encoder: ve, Script: script, Log: log}
}

// Report summarises a finished run.
type Report struct {
	RunID      string
	Scene      string
	Output     string
	Frames     int
	Duration   float64
	Batches    int
	Plays      int
	Captions   int
	Total      time.Duration
	Rendering  time.Duration
	Encoding   time.Duration
	Usage      system.Usage
	Timeline   *scenario.Scenario
	DryRun     bool
	Resolution string
}

// EffectiveFPS is frames produced per second of wall time.
func (r *Report) EffectiveFPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

func (p *VideoProject) Run(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	cfg := p.Config

	bg, err := scene.ParseHex(cfg.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	canvas := renderer.NewCanvas(cfg.Width, cfg.Height, bg)
	runID := uuid.NewString()

	p.Log.Info("--- [PROJECT: RESULT FLOW] ---", "run_id", runID, "scene", p.Script.Name())
	p.Log.Info("render settings",
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"fps", cfg.FPS,
		"encoder", cfg.VideoEncoder,
		"dry_run", cfg.DryRun,
	)

	var sink video.FrameSink
	if !cfg.DryRun {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		sink, err = p.Encoder.Open(ctx, cfg.OutputVideo, cfg.Encode())
		if err != nil {
			return nil, fmt.Errorf("open encoder: %w", err)
		}
	}

	eng := New(Options{
		FPS:    cfg.FPS,
		RunID:  runID,
		Scene:  p.Script.Name(),
		Canvas: canvas,
		Sink:   sink,
		DryRun: cfg.DryRun,
		Logger: p.Log,
	})

	if err := p.Script.Run(ctx, eng); err != nil {
		if sink != nil {
			sink.Close()
		}
		return nil, fmt.Errorf("scene %s: %w", p.Script.Name(), err)
	}
	eng.Finish()

	encodeStart := time.Now()
	if sink != nil {
		if err := sink.Close(); err != nil {
			return nil, fmt.Errorf("finish video: %w", err)
		}
	}
	renderTime, writeTime := eng.Timings()

	if err := p.writeOutputs(ctx, eng); err != nil {
		return nil, err
	}

	tl := eng.Timeline()
	report := &Report{
		RunID:      runID,
		Scene:      p.Script.Name(),
		Output:     cfg.OutputVideo,
		Frames:     eng.Frames(),
		Duration:   tl.Duration,
		Batches:    len(tl.Batches),
		Plays:      tl.Plays(),
		Captions:   len(tl.Captions),
		Total:      time.Since(startTime),
		Rendering:  renderTime,
		Encoding:   writeTime + time.Since(encodeStart),
		Timeline:   tl,
		DryRun:     cfg.DryRun,
		Resolution: fmt.Sprintf("%dx%d@%d", cfg.Width, cfg.Height, cfg.FPS),
	}
	if u, err := system.CurrentUsage(); err == nil {
		report.Usage = u
	} else {
		p.Log.Debug("process stats unavailable", "error", err)
	}

	if cfg.ShowStats && !cfg.DryRun {
		p.appendBenchmark(report)
	}
	p.Log.Info("scene finished",
		"frames", report.Frames,
		"duration", fmt.Sprintf("%.2fs", report.Duration),
		"batches", report.Batches,
		"elapsed", report.Total.Round(time.Millisecond),
	)
	return report, nil
}

func (p *VideoProject) writeOutputs(ctx context.Context, eng *Engine) error {
	cfg := p.Config

	srtPath := cfg.SubtitlesPath
	if srtPath == "" && cfg.EmbedSubtitles && !cfg.DryRun {
		srtPath = replaceExt(cfg.OutputVideo, ".srt")
	}
	if srtPath != "" {
		if err := video.WriteSRTFile(srtPath, eng.Cues()); err != nil {
			return fmt.Errorf("write subtitles: %w", err)
		}
		p.Log.Info("subtitles written", "path", srtPath, "cues", len(eng.Cues()))
		if cfg.EmbedSubtitles && !cfg.DryRun {
			if err := p.Encoder.MuxSubtitles(ctx, cfg.OutputVideo, srtPath); err != nil {
				return err
			}
		}
	}

	if cfg.TimelinePath != "" {
		if err := scenario.WriteScenario(eng.Timeline(), cfg.TimelinePath); err != nil {
			return fmt.Errorf("write timeline: %w", err)
		}
		p.Log.Info("timeline written", "path", cfg.TimelinePath)
	}

	if cfg.LastFramePath != "" {
		if err := writeLastFrame(eng, cfg.LastFramePath); err != nil {
			return fmt.Errorf("write last frame: %w", err)
		}
		p.Log.Info("last frame written", "path", cfg.LastFramePath)
	}
	return nil
}

func writeLastFrame(eng *Engine, path string) error {
	img, err := eng.Snapshot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// appendBenchmark logs a one-line summary next to the output video.
func (p *VideoProject) appendBenchmark(r *Report) {
	logEntry := fmt.Sprintf("[%s] Build: %s | Scene: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | FPS: %.2f | RSS: %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		r.Scene,
		r.Frames,
		r.Total.Seconds(),
		r.Rendering.Seconds(),
		r.Encoding.Seconds(),
		r.EffectiveFPS(),
		system.HumanBytes(r.Usage.RSSBytes),
	)

	path := filepath.Join(filepath.Dir(p.Config.OutputVideo), "benchmark.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		p.Log.Warn("benchmark log unavailable", "path", path, "error", err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(logEntry); err != nil {
		p.Log.Warn("benchmark log write failed", "error", err)
	}
}

func replaceExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}
