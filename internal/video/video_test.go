package video

import (
	"bytes"
	"context"
	"image"
	"os/exec"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ivlev/resultflow/internal/config"
)

func TestBuildFFmpegArgs(t *testing.T) {
	e := &FFmpegEncoder{}
	args := e.buildFFmpegArgs("out.mp4", config.EncodeParams{Width: 1280, Height: 720, FPS: 30})

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-f rawvideo",
		"-pixel_format rgba",
		"-video_size 1280x720",
		"-framerate 30",
		"-i -",
		"-c:v libx264",
		"-crf 23",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output path not last: %v", args)
	}
}

func TestQualityArgs(t *testing.T) {
	tests := []struct {
		encoder string
		quality int
		want    []string
	}{
		{"h264_videotoolbox", 75, []string{"-b:v", "7500k"}},
		{"h264_nvenc", 0, []string{"-cq", "28"}},
		{"libx264", 18, []string{"-crf", "18", "-preset", "medium"}},
		{"", 0, []string{"-crf", "23", "-preset", "medium"}},
	}
	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			if got := qualityArgs(tt.encoder, tt.quality); !slices.Equal(got, tt.want) {
				t.Errorf("qualityArgs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteRawRGBA(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range full.Pix {
		full.Pix[i] = byte(i)
	}
	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, full); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4*4*4 {
		t.Fatalf("wrote %d bytes", buf.Len())
	}

	// a sub-image has a wider stride and must be repacked
	sub := full.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	buf.Reset()
	if err := writeRawRGBA(&buf, sub); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2*2*4 {
		t.Fatalf("sub-image wrote %d bytes", buf.Len())
	}
	if got, want := buf.Bytes()[0], full.Pix[full.PixOffset(1, 1)]; got != want {
		t.Errorf("first byte = %d, want %d", got, want)
	}
}

func TestTimestamp(t *testing.T) {
	tests := map[float64]string{
		0:        "00:00:00,000",
		1.5:      "00:00:01,500",
		61.0004:  "00:01:01,000",
		3723.456: "01:02:03,456",
		-2:       "00:00:00,000",
	}
	for in, want := range tests {
		if got := Timestamp(in); got != want {
			t.Errorf("Timestamp(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestWriteSRT(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSRT(&buf, []Cue{
		{Start: 0, End: 1.2, Text: "Your application crafts a Cypher query."},
		{Start: 2, End: 2, Text: "zero length"},
		{Start: 3, End: 4, Text: "  "},
		{Start: 5, End: 6.25, Text: "The database fetches the result."},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,200\nYour application crafts a Cypher query.\n\n" +
		"2\n00:00:05,000 --> 00:00:06,250\nThe database fetches the result.\n\n"
	if buf.String() != want {
		t.Errorf("srt =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestSubtitleTempPath(t *testing.T) {
	tests := map[string]string{
		"out/result.mp4": "out/result.subs.mp4",
		"result.mov":     "result.subs.mov",
		"result":         "result.subs",
	}
	for in, want := range tests {
		if got := subtitleTempPath(in); got != want {
			t.Errorf("subtitleTempPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStreamReleasesFramesWhenWriterFails(t *testing.T) {
	// a process that exits without reading stdin breaks the pipe
	bin, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no true binary")
	}
	var released atomic.Int64
	old := putImage
	putImage = func(*image.RGBA) { released.Add(1) }
	t.Cleanup(func() { putImage = old })

	const w, h, frames = 256, 256, 20
	sink, err := (&FFmpegEncoder{Binary: bin}).Open(context.Background(), "unused.mp4", config.EncodeParams{Width: w, Height: h, FPS: 30})
	if err != nil {
		t.Fatal(err)
	}
	accepted := 0
	for range frames {
		if sink.WriteFrame(image.NewRGBA(image.Rect(0, 0, w, h))) == nil {
			accepted++
		}
	}
	if err := sink.Close(); err == nil {
		t.Error("close after a broken pipe returned no error")
	}
	t.Logf("accepted %d of %d frames", accepted, frames)
	if got := released.Load(); got != frames {
		t.Errorf("released %d frames, want %d", got, frames)
	}
}
