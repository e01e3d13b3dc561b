package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/resultflow/internal/config"
	"github.com/ivlev/resultflow/internal/effects"
	"github.com/ivlev/resultflow/internal/logging"
	"github.com/ivlev/resultflow/internal/scenario"
	"github.com/ivlev/resultflow/internal/scene"
	"github.com/ivlev/resultflow/internal/sequencer"
	"github.com/ivlev/resultflow/internal/video"
)

type fakeEncoder struct {
	sink  *fakeSink
	muxed string
}

func (f *fakeEncoder) Open(_ context.Context, _ string, params config.EncodeParams) (video.FrameSink, error) {
	f.sink = &fakeSink{}
	return f.sink, nil
}

func (f *fakeEncoder) MuxSubtitles(_ context.Context, _, srtPath string) error {
	f.muxed = srtPath
	return nil
}

type stubScript struct {
	err error
}

func (s *stubScript) Name() string { return "stub" }

func (s *stubScript) Run(ctx context.Context, eng *Engine) error {
	if s.err != nil {
		return s.err
	}
	seq := sequencer.New(eng)
	caption := scene.NewText("hello")
	eng.Caption("hello")
	if err := seq.Describe(ctx, caption, false); err != nil {
		return err
	}
	if err := seq.Flush(ctx, effects.GrowFromPoint(scene.NewDot(0.2, scene.Yellow), scene.Origin)); err != nil {
		return err
	}
	return eng.Wait(ctx, 0.5)
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Width, cfg.Height, cfg.FPS = 64, 36, 10
	cfg.OutputVideo = filepath.Join(dir, "out.mp4")
	cfg.TimelinePath = filepath.Join(dir, "timeline.yaml")
	cfg.SubtitlesPath = filepath.Join(dir, "out.srt")
	cfg.LastFramePath = filepath.Join(dir, "last.png")
	return cfg
}

func TestProjectRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.EmbedSubtitles = true
	enc := &fakeEncoder{}

	report, err := NewVideoProject(cfg, enc, &stubScript{}, logging.Discard()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// 0.4s write, 1s grow, 0.5s wait
	if report.Frames != 4+10+5 || enc.sink.frames != report.Frames {
		t.Errorf("report frames = %d, sink frames = %d", report.Frames, enc.sink.frames)
	}
	if !enc.sink.closed {
		t.Error("sink not closed")
	}
	if enc.muxed != cfg.SubtitlesPath {
		t.Errorf("muxed %q, want %q", enc.muxed, cfg.SubtitlesPath)
	}

	tl, err := scenario.ReadScenario(cfg.TimelinePath)
	if err != nil {
		t.Fatal(err)
	}
	if tl.RunID != report.RunID || len(tl.Batches) != 3 || len(tl.Captions) != 1 {
		t.Errorf("timeline = %+v", tl)
	}

	srt, err := os.ReadFile(cfg.SubtitlesPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(srt), "00:00:00,000 --> 00:00:01,900\nhello") {
		t.Errorf("srt = %q", srt)
	}
	if _, err := os.Stat(cfg.LastFramePath); err != nil {
		t.Errorf("last frame missing: %v", err)
	}
	t.Logf("report: frames=%d duration=%.2f fps=%.1f", report.Frames, report.Duration, report.EffectiveFPS())
}

func TestProjectDryRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	cfg.LastFramePath = ""
	enc := &fakeEncoder{}

	report, err := NewVideoProject(cfg, enc, &stubScript{}, logging.Discard()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if enc.sink != nil {
		t.Error("dry run opened the encoder")
	}
	if !report.DryRun || report.Plays != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestProjectScriptError(t *testing.T) {
	cfg := testConfig(t)
	boom := errors.New("missing icon")
	enc := &fakeEncoder{}

	_, err := NewVideoProject(cfg, enc, &stubScript{err: boom}, logging.Discard()).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if !enc.sink.closed {
		t.Error("sink left open after a failed script")
	}
}
