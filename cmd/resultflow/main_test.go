package main

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/resultflow/internal/config"
	"github.com/ivlev/resultflow/internal/scenario"
)

func parseRenderFlags(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	flags := &renderFlags{}
	cmd := &cobra.Command{Use: "render"}
	flags.register(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	return cfg, flags.apply(cmd, cfg)
}

func TestRenderFlagsOverrideConfig(t *testing.T) {
	cfg, err := parseRenderFlags(t, "--quality", "high", "--fps", "24", "-o", "out/x.mp4", "--seed", "5", "--embed-subtitles")
	if err != nil {
		t.Fatal(err)
	}
	// the preset applies before the explicit frame rate
	if cfg.Width != 1920 || cfg.Height != 1080 || cfg.FPS != 24 {
		t.Errorf("got %dx%d@%d", cfg.Width, cfg.Height, cfg.FPS)
	}
	if cfg.OutputVideo != "out/x.mp4" || cfg.Seed != 5 || !cfg.EmbedSubtitles {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestRenderFlagsKeepUnsetValues(t *testing.T) {
	cfg, err := parseRenderFlags(t)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FPS != 30 || cfg.Width != 1280 {
		t.Errorf("defaults changed: %dx%d@%d", cfg.Width, cfg.Height, cfg.FPS)
	}
	if !strings.HasPrefix(cfg.OutputVideo, "output"+string(filepath.Separator)+"result_") {
		t.Errorf("generated output = %q", cfg.OutputVideo)
	}

	cfg, err = parseRenderFlags(t, "--dry-run")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputVideo != "" {
		t.Errorf("dry run got an output path %q", cfg.OutputVideo)
	}
}

func TestRenderFlagsUnknownQuality(t *testing.T) {
	if _, err := parseRenderFlags(t, "--quality", "ultra"); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	timeline := filepath.Join(dir, "plan.yaml")
	srt := filepath.Join(dir, "plan.srt")

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"plan", "--timeline", timeline, "--subtitles", srt, "--seed", "3", "--log-format", "json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("plan: %v\n%s", err, errOut.String())
	}
	t.Logf("\n%s", out.String())

	if !strings.Contains(out.String(), "grow_from_point") || !strings.Contains(out.String(), "[+]") {
		t.Errorf("plan output missing batches:\n%s", out.String())
	}
	s, err := scenario.ReadScenario(timeline)
	if err != nil {
		t.Fatal(err)
	}
	if s.Scene != "Result" || s.Plays() == 0 || len(s.Captions) != 8 {
		t.Errorf("timeline scene=%s plays=%d captions=%d", s.Scene, s.Plays(), len(s.Captions))
	}
	if _, err := os.Stat(srt); err != nil {
		t.Errorf("subtitles not written: %v", err)
	}
}

func TestPlanShowsSavedTimeline(t *testing.T) {
	dir := t.TempDir()
	timeline := filepath.Join(dir, "saved.yaml")
	saved := scenario.New("run-1", "Result", 30)
	saved.Append(scenario.Batch{Kind: "play", RunTime: 1.5, Frames: 45, Effects: []scenario.Effect{{Kind: "fade_in", RunTime: 1.5}}})
	saved.Append(scenario.Batch{Kind: "wait", Start: 1.5, RunTime: 1, Frames: 30})
	if err := scenario.WriteScenario(saved, timeline); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"plan", "--show", timeline})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	t.Logf("\n%s", out.String())
	for _, want := range []string{"fade_in", "wait", "run-1", "2 batches", "2.50s"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"plan", "--show", filepath.Join(dir, "missing.yaml")})
	if err := cmd.Execute(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing timeline err = %v", err)
	}
}

func TestPlanShowsLatestTimeline(t *testing.T) {
	dir := t.TempDir()
	old := scenario.DefaultDir
	scenario.DefaultDir = dir
	t.Cleanup(func() { scenario.DefaultDir = old })

	for i, id := range []string{"older", "newer"} {
		s := scenario.New(id, "Result", 30)
		s.Append(scenario.Batch{Kind: "wait", RunTime: 1, Frames: 30})
		path := filepath.Join(dir, id+".yaml")
		if err := scenario.WriteScenario(s, path); err != nil {
			t.Fatal(err)
		}
		stamp := time.Now().Add(time.Duration(i-2) * time.Hour)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"plan", "--show", "latest"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "run newer") {
		t.Errorf("latest picked the wrong timeline:\n%s", out.String())
	}
}

func TestOpenIconsLogsSources(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "gear.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := config.Default()
	cfg.AssetsDir = dir
	icons, err := openIcons(cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	defer icons.Close()

	t.Logf("%s", buf.String())
	if !strings.Contains(buf.String(), "embedded icons") || !strings.Contains(buf.String(), "files=1") {
		t.Errorf("log = %q", buf.String())
	}
	if _, err := icons.Icon("gear", 8); err != nil {
		t.Errorf("override not served: %v", err)
	}
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignRight})
	for _, want := range []string{"A", "B", "1", "3"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("empty header should render nothing")
	}
}
