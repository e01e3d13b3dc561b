// Package engine presents effect batches as frames and drives a scene run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/ivlev/resultflow/internal/effects"
	"github.com/ivlev/resultflow/internal/renderer"
	"github.com/ivlev/resultflow/internal/scenario"
	"github.com/ivlev/resultflow/internal/scene"
	"github.com/ivlev/resultflow/internal/sequencer"
	"github.com/ivlev/resultflow/internal/system"
	"github.com/ivlev/resultflow/internal/video"
)

// ErrNoEffects is returned when a batch with nothing in it is played.
var ErrNoEffects = errors.New("no effects to play")

type Options struct {
	FPS    int
	RunID  string
	Scene  string
	Canvas *renderer.Canvas
	// Sink receives frames. Without one, or with DryRun, nothing is drawn.
	Sink   video.FrameSink
	DryRun bool
	Logger *slog.Logger
}

// Engine implements sequencer.Presenter. It is not safe for concurrent use.
type Engine struct {
	stage  *scene.Scene
	canvas *renderer.Canvas
	sink   video.FrameSink
	fps    int
	draw   bool
	log    *slog.Logger

	clock    float64
	frames   int
	timeline *scenario.Scenario
	cues     []video.Cue
	caption  *video.Cue

	renderTime time.Duration
	writeTime  time.Duration
}

var _ sequencer.Presenter = (*Engine)(nil)

func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}
	return &Engine{
		stage:    scene.New(),
		canvas:   opts.Canvas,
		sink:     opts.Sink,
		fps:      fps,
		draw:     !opts.DryRun && opts.Sink != nil && opts.Canvas != nil,
		log:      log,
		timeline: scenario.New(opts.RunID, opts.Scene, fps),
	}
}

// Stage is the display list the effects work on.
func (e *Engine) Stage() *scene.Scene { return e.stage }

// Add puts objects on screen without animating them.
func (e *Engine) Add(ms ...scene.Mobject) { e.stage.Add(ms...) }

// Remove takes objects off screen without animating them.
func (e *Engine) Remove(ms ...scene.Mobject) { e.stage.Remove(ms...) }

// frameCount is the number of frames needed to cover seconds.
func (e *Engine) frameCount(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Ceil(seconds*float64(e.fps) - 1e-9))
}

// Play presents a batch of effects simultaneously.
func (e *Engine) Play(ctx context.Context, batch []effects.Effect, opts sequencer.PlayOptions) error {
	if len(batch) == 0 {
		return ErrNoEffects
	}
	runTime := 0.0
	for _, eff := range batch {
		if opts.RunTime > 0 {
			eff.SetRunTime(opts.RunTime)
		}
		if opts.RateFunc != nil {
			eff.SetRate(opts.RateFunc)
		}
		runTime = math.Max(runTime, eff.RunTime())
	}

	for _, eff := range batch {
		eff.Begin(e.stage)
	}

	n := e.frameCount(runTime)
	if e.draw {
		for f := 1; f <= n; f++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := math.Min(float64(f)/float64(e.fps), runTime)
			for _, eff := range batch {
				eff.Interpolate(alphaAt(t, eff.RunTime()))
			}
			if err := e.emit(); err != nil {
				return err
			}
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	for _, eff := range batch {
		eff.Interpolate(1)
		eff.Finish(e.stage)
	}

	b := scenario.Batch{Kind: "play", Start: e.clock, RunTime: runTime, Frames: n, Subcaption: opts.Subcaption}
	for _, eff := range batch {
		b.Effects = append(b.Effects, toScenario(eff.Meta()))
	}
	e.timeline.Append(b)

	if opts.Subcaption != "" {
		d := opts.SubcaptionDuration
		if d <= 0 {
			d = runTime
		}
		start := e.clock + opts.SubcaptionOffset
		e.cues = append(e.cues, video.Cue{Start: start, End: start + d, Text: opts.Subcaption})
	}

	e.log.Debug("batch presented",
		"index", b.Index,
		"effects", len(batch),
		"start", fmt.Sprintf("%.2f", e.clock),
		"run_time", runTime,
		"frames", n,
	)
	e.clock += runTime
	e.frames += n
	return nil
}

// Wait holds the current picture for seconds.
func (e *Engine) Wait(ctx context.Context, seconds float64) error {
	if seconds <= 0 {
		return nil
	}
	n := e.frameCount(seconds)
	if e.draw && n > 0 {
		still := system.GetImage(e.frameRect())
		if err := e.render(still); err != nil {
			system.PutImage(still)
			return err
		}
		for f := 0; f < n; f++ {
			if err := ctx.Err(); err != nil {
				system.PutImage(still)
				return err
			}
			img := system.GetImage(still.Rect)
			copy(img.Pix, still.Pix)
			if err := e.write(img); err != nil {
				system.PutImage(still)
				return err
			}
		}
		system.PutImage(still)
	} else if err := ctx.Err(); err != nil {
		return err
	}

	e.timeline.Append(scenario.Batch{Kind: "wait", Start: e.clock, RunTime: seconds, Frames: n})
	e.clock += seconds
	e.frames += n
	return nil
}

// Caption records text as the on-screen caption from now until the next one.
func (e *Engine) Caption(text string) {
	e.closeCaption()
	e.caption = &video.Cue{Start: e.clock, Text: text}
}

func (e *Engine) closeCaption() {
	if e.caption == nil {
		return
	}
	e.caption.End = e.clock
	e.cues = append(e.cues, *e.caption)
	e.timeline.Captions = append(e.timeline.Captions, scenario.Caption{Start: e.caption.Start, End: e.caption.End, Text: e.caption.Text})
	e.caption = nil
}

// Finish closes the open caption. Call it once the script has run.
func (e *Engine) Finish() {
	e.closeCaption()
	e.timeline.Duration = math.Max(e.timeline.Duration, e.clock)
}

// Snapshot draws the current picture into a new frame.
func (e *Engine) Snapshot() (*image.RGBA, error) {
	if e.canvas == nil {
		return nil, errors.New("snapshot needs a canvas")
	}
	img := e.canvas.NewFrame()
	if err := e.canvas.Render(img, e.stage.Nodes()); err != nil {
		return nil, err
	}
	return img, nil
}

func (e *Engine) Timeline() *scenario.Scenario { return e.timeline }
func (e *Engine) Cues() []video.Cue            { return e.cues }
func (e *Engine) Clock() float64               { return e.clock }
func (e *Engine) Frames() int                  { return e.frames }

// Timings returns the time spent rasterising and the time spent handing frames to the sink.
func (e *Engine) Timings() (render, write time.Duration) { return e.renderTime, e.writeTime }

func (e *Engine) frameRect() image.Rectangle {
	return image.Rect(0, 0, e.canvas.Width, e.canvas.Height)
}

func (e *Engine) emit() error {
	img := system.GetImage(e.frameRect())
	if err := e.render(img); err != nil {
		system.PutImage(img)
		return err
	}
	return e.write(img)
}

func (e *Engine) render(img *image.RGBA) error {
	start := time.Now()
	err := e.canvas.Render(img, e.stage.Nodes())
	e.renderTime += time.Since(start)
	if err != nil {
		return fmt.Errorf("render frame %d: %w", e.frames, err)
	}
	return nil
}

func (e *Engine) write(img *image.RGBA) error {
	start := time.Now()
	err := e.sink.WriteFrame(img)
	e.writeTime += time.Since(start)
	return err
}

func alphaAt(t, runTime float64) float64 {
	if runTime <= 0 {
		return 1
	}
	return math.Min(1, t/runTime)
}

func toScenario(m effects.Meta) scenario.Effect {
	out := scenario.Effect{Kind: m.Kind, Targets: m.Targets, RunTime: m.RunTime}
	for _, c := range m.Children {
		out.Children = append(out.Children, toScenario(c))
	}
	return out
}
