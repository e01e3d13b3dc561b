package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultDir is where timelines go when no path is given.
var DefaultDir = filepath.Join("output", "timelines")

// GenerateScenarioPath creates a timestamped timeline filename
func GenerateScenarioPath() string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(DefaultDir, fmt.Sprintf("timeline_%s.yaml", timestamp))
}

// FindLatestScenario finds the most recent timeline file in dir
func FindLatestScenario(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read timelines directory: %w", err)
	}

	var scenarios []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			scenarios = append(scenarios, filepath.Join(dir, entry.Name()))
		}
	}

	if len(scenarios) == 0 {
		return "", fmt.Errorf("no timeline files found in %s", dir)
	}

	// Sort by modification time (newest first)
	sort.Slice(scenarios, func(i, j int) bool {
		infoI, errI := os.Stat(scenarios[i])
		infoJ, errJ := os.Stat(scenarios[j])
		if errI != nil || errJ != nil {
			return errJ != nil
		}
		return infoI.ModTime().After(infoJ.ModTime())
	})

	return scenarios[0], nil
}
