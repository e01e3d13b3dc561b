package video

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Cue is one subtitle, timed in seconds from the start of the video.
type Cue struct {
	Start, End float64
	Text       string
}

// WriteSRT writes cues in SubRip format. Cues with no text or no duration are skipped.
func WriteSRT(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	n := 0
	for _, c := range cues {
		text := strings.TrimSpace(c.Text)
		if text == "" || c.End <= c.Start {
			continue
		}
		n++
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", n, Timestamp(c.Start), Timestamp(c.End), text)
	}
	return bw.Flush()
}

// WriteSRTFile writes cues to path, creating parent directories.
func WriteSRTFile(path string, cues []Cue) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSRT(f, cues); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Timestamp formats seconds as HH:MM:SS,mmm.
func Timestamp(seconds float64) string {
	ms := int64(math.Round(math.Max(0, seconds) * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}
