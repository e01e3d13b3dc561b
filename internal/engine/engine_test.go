package engine

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ivlev/resultflow/internal/effects"
	"github.com/ivlev/resultflow/internal/logging"
	"github.com/ivlev/resultflow/internal/renderer"
	"github.com/ivlev/resultflow/internal/scene"
	"github.com/ivlev/resultflow/internal/sequencer"
	"github.com/ivlev/resultflow/internal/system"
)

type fakeSink struct {
	frames int
	size   image.Rectangle
	closed bool
	err    error
}

func (s *fakeSink) WriteFrame(img *image.RGBA) error {
	s.frames++
	s.size = img.Rect
	system.PutImage(img)
	return s.err
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

func newEngine(sink *fakeSink, dryRun bool) *Engine {
	return New(Options{
		FPS:    10,
		Scene:  "test",
		Canvas: renderer.NewCanvas(64, 36, scene.Black),
		Sink:   sink,
		DryRun: dryRun,
		Logger: logging.Discard(),
	})
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPlayEmptyBatch(t *testing.T) {
	e := newEngine(nil, true)
	if err := e.Play(context.Background(), nil, sequencer.PlayOptions{}); !errors.Is(err, ErrNoEffects) {
		t.Fatalf("err = %v, want ErrNoEffects", err)
	}
}

func TestPlayDrawsFrames(t *testing.T) {
	sink := &fakeSink{}
	e := newEngine(sink, false)
	dot := scene.NewDot(0.2, scene.White)

	err := e.Play(context.Background(), []effects.Effect{effects.FadeIn(dot, effects.WithRunTime(0.5))}, sequencer.PlayOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if sink.frames != 5 {
		t.Errorf("frames written = %d, want 5", sink.frames)
	}
	if sink.size != image.Rect(0, 0, 64, 36) {
		t.Errorf("frame size = %v", sink.size)
	}
	if !near(e.Clock(), 0.5) || !e.Stage().Contains(dot) {
		t.Errorf("clock=%f contains=%v", e.Clock(), e.Stage().Contains(dot))
	}
}

func TestDryRunSkipsDrawing(t *testing.T) {
	sink := &fakeSink{}
	e := newEngine(sink, true)
	dot := scene.NewDot(0.2, scene.White)

	if err := e.Play(context.Background(), []effects.Effect{effects.FadeIn(dot)}, sequencer.PlayOptions{}); err != nil {
		t.Fatal(err)
	}
	if sink.frames != 0 {
		t.Errorf("dry run wrote %d frames", sink.frames)
	}
	if e.Frames() != 10 || !near(dot.State.Opacity, 1) {
		t.Errorf("frames=%d opacity=%f", e.Frames(), dot.State.Opacity)
	}
}

func TestPlayOverridesAndTimeline(t *testing.T) {
	e := newEngine(nil, true)
	a := effects.FadeIn(scene.NewDot(0.1, scene.White))
	b := effects.Create(scene.NewCircle(0.5, scene.White), effects.WithRunTime(3))

	opts := sequencer.PlayOptions{RunTime: 0.8, Subcaption: "loading", SubcaptionOffset: 0.2}
	if err := e.Play(context.Background(), []effects.Effect{a, b}, opts); err != nil {
		t.Fatal(err)
	}
	if err := e.Wait(context.Background(), 2); err != nil {
		t.Fatal(err)
	}

	tl := e.Timeline()
	if len(tl.Batches) != 2 || tl.Plays() != 1 {
		t.Fatalf("batches = %+v", tl.Batches)
	}
	play := tl.Batches[0]
	if !near(play.RunTime, 0.8) || play.Frames != 8 || len(play.Effects) != 2 {
		t.Errorf("play batch = %+v", play)
	}
	if play.Effects[1].Kind != "create" {
		t.Errorf("second effect kind = %s", play.Effects[1].Kind)
	}
	wait := tl.Batches[1]
	if wait.Kind != "wait" || !near(wait.Start, 0.8) || wait.Frames != 20 {
		t.Errorf("wait batch = %+v", wait)
	}
	if !near(tl.Duration, 2.8) {
		t.Errorf("duration = %f, want 2.8", tl.Duration)
	}

	cues := e.Cues()
	if len(cues) != 1 || !near(cues[0].Start, 0.2) || !near(cues[0].End, 1.0) {
		t.Errorf("cues = %+v", cues)
	}
}

func TestCaptionCues(t *testing.T) {
	ctx := context.Background()
	e := newEngine(nil, true)

	e.Caption("first")
	if err := e.Play(ctx, []effects.Effect{effects.FadeIn(scene.NewText("x"))}, sequencer.PlayOptions{}); err != nil {
		t.Fatal(err)
	}
	e.Caption("second")
	if err := e.Wait(ctx, 1.5); err != nil {
		t.Fatal(err)
	}
	e.Finish()

	cues := e.Cues()
	if len(cues) != 2 {
		t.Fatalf("cues = %+v", cues)
	}
	if cues[0].Text != "first" || !near(cues[0].End, 1) {
		t.Errorf("first cue = %+v", cues[0])
	}
	if cues[1].Text != "second" || !near(cues[1].Start, 1) || !near(cues[1].End, 2.5) {
		t.Errorf("second cue = %+v", cues[1])
	}
	if len(e.Timeline().Captions) != 2 {
		t.Errorf("timeline captions = %+v", e.Timeline().Captions)
	}
}

func TestWaitHoldsPicture(t *testing.T) {
	sink := &fakeSink{}
	e := newEngine(sink, false)
	e.Add(scene.NewRectangle(1, 1, scene.White))

	if err := e.Wait(context.Background(), 0.3); err != nil {
		t.Fatal(err)
	}
	if sink.frames != 3 {
		t.Errorf("frames = %d, want 3", sink.frames)
	}
	if err := e.Wait(context.Background(), 0); err != nil || len(e.Timeline().Batches) != 1 {
		t.Errorf("zero wait recorded: %v %+v", err, e.Timeline().Batches)
	}
}

func TestSinkErrorStopsPlay(t *testing.T) {
	boom := errors.New("pipe closed")
	e := newEngine(&fakeSink{err: boom}, false)
	err := e.Play(context.Background(), []effects.Effect{effects.FadeIn(scene.NewDot(0.1, scene.White))}, sequencer.PlayOptions{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEngine(&fakeSink{}, false)
	err := e.Play(ctx, []effects.Effect{effects.FadeIn(scene.NewDot(0.1, scene.White))}, sequencer.PlayOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSequencerOnEngine(t *testing.T) {
	ctx := context.Background()
	e := newEngine(nil, true)
	seq := sequencer.New(e)

	if err := seq.Describe(ctx, scene.NewText("one"), true); err != nil {
		t.Fatal(err)
	}
	q := scene.NewText("Query")
	if err := seq.Play(ctx, sequencer.PlayOptions{}, effects.FadeIn(q)); err != nil {
		t.Fatal(err)
	}
	if err := seq.Describe(ctx, scene.NewText("two"), false); err != nil {
		t.Fatal(err)
	}

	tl := e.Timeline()
	if len(tl.Batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(tl.Batches))
	}
	first := tl.Batches[0]
	if len(first.Effects) != 2 || first.Effects[0].Kind != "write" || first.Effects[1].Kind != "fade_in" {
		t.Errorf("first batch = %+v", first.Effects)
	}
	// the write keeps its own short run time, the fade sets the batch length
	if !near(first.Effects[0].RunTime, sequencer.CaptionRunTime) || !near(first.RunTime, 1) {
		t.Errorf("run times: write=%f batch=%f", first.Effects[0].RunTime, first.RunTime)
	}
	if tl.Batches[1].Effects[0].Kind != "replacement_transform" {
		t.Errorf("second batch = %+v", tl.Batches[1].Effects)
	}
	if e.Stage().Contains(seq.Caption()) == false {
		t.Error("current caption not on screen")
	}
	t.Logf("timeline: %+v", tl.Batches)
}
