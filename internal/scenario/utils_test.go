package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGenerateScenarioPath(t *testing.T) {
	path := GenerateScenarioPath()

	if !strings.Contains(path, "timeline_") {
		t.Errorf("Path should contain 'timeline_': %s", path)
	}
	if !strings.HasPrefix(path, DefaultDir) {
		t.Errorf("Path should be in %s: %s", DefaultDir, path)
	}

	t.Logf("Generated path: %s", path)
}

func TestFindLatestScenario(t *testing.T) {
	testDir := t.TempDir()

	files := []string{
		filepath.Join(testDir, "timeline_2026-02-12_10-00-00.yaml"),
		filepath.Join(testDir, "timeline_2026-02-13_01-00-00.yaml"),
		filepath.Join(testDir, "timeline_2026-02-11_15-30-00.yaml"),
	}

	for i, f := range files {
		if err := os.WriteFile(f, []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(f, modTime, modTime); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := FindLatestScenario(testDir)
	if err != nil {
		t.Fatalf("FindLatestScenario failed: %v", err)
	}

	t.Logf("Latest timeline: %s", latest)

	if latest != files[len(files)-1] {
		t.Errorf("Expected latest to be %s, got %s", files[len(files)-1], latest)
	}
}

func TestFindLatestScenarioEmptyDir(t *testing.T) {
	if _, err := FindLatestScenario(t.TempDir()); err == nil {
		t.Error("Expected error for empty directory")
	}
}
