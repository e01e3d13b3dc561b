package scenario

import (
	"path/filepath"
	"testing"
)

func TestScenarioWriteRead(t *testing.T) {
	s := New("run-1", "result", 30)
	s.Append(Batch{Kind: "play", Start: 0, RunTime: 1, Frames: 30, Effects: []Effect{
		{Kind: "fade_in", Targets: []string{`text("Query")`}, RunTime: 1},
		{Kind: "succession", RunTime: 0.6, Children: []Effect{
			{Kind: "transform", Targets: []string{"rectangle"}, RunTime: 0.3},
			{Kind: "transform", Targets: []string{"rectangle"}, RunTime: 0.3},
		}},
	}})
	s.Append(Batch{Kind: "wait", Start: 1, RunTime: 2, Frames: 60})
	s.Captions = []Caption{{Start: 0, End: 3, Text: "The database fetches the result."}}

	if s.Duration != 3 {
		t.Errorf("Duration = %f, want 3", s.Duration)
	}
	if s.Plays() != 1 {
		t.Errorf("Plays = %d, want 1", s.Plays())
	}

	path := filepath.Join(t.TempDir(), "nested", "timeline.yaml")
	if err := WriteScenario(s, path); err != nil {
		t.Fatalf("WriteScenario failed: %v", err)
	}

	read, err := ReadScenario(path)
	if err != nil {
		t.Fatalf("ReadScenario failed: %v", err)
	}

	if read.RunID != s.RunID || read.FPS != 30 {
		t.Errorf("header mismatch: %+v", read)
	}
	if len(read.Batches) != 2 || read.Batches[1].Index != 1 {
		t.Fatalf("batches mismatch: %+v", read.Batches)
	}
	if got := len(read.Batches[0].Effects[1].Children); got != 2 {
		t.Errorf("nested children = %d, want 2", got)
	}
	if len(read.Captions) != 1 {
		t.Errorf("captions = %d, want 1", len(read.Captions))
	}
}

func TestReadScenarioRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.yaml")
	s := New("x", "result", 30)
	s.Version = "0.1"
	if err := WriteScenario(s, path); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadScenario(path); err == nil {
		t.Error("Expected error for unsupported version")
	}
}
