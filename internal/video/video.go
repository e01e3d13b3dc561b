package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/resultflow/internal/config"
	"github.com/ivlev/resultflow/internal/system"
)

// FrameSink consumes rendered frames in presentation order.
type FrameSink interface {
	// WriteFrame takes ownership of img and hands it back to the system pool once written.
	WriteFrame(img *image.RGBA) error
	Close() error
}

type VideoEncoder interface {
	Open(ctx context.Context, videoPath string, params config.EncodeParams) (FrameSink, error)
	MuxSubtitles(ctx context.Context, videoPath, srtPath string) error
}

type FFmpegEncoder struct {
	// Binary defaults to "ffmpeg" on PATH.
	Binary string
}

func (e *FFmpegEncoder) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

// frameQueue is how many frames may wait for ffmpeg before the renderer blocks.
const frameQueue = 8

// putImage returns a written or dropped frame to its pool.
var putImage = system.PutImage

// Stream feeds raw RGBA frames into one ffmpeg process.
type Stream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	frames chan *image.RGBA
	eg     *errgroup.Group
	egCtx  context.Context
	width  int
	height int
	count  int
	closed bool
}

func (e *FFmpegEncoder) Open(ctx context.Context, videoPath string, params config.EncodeParams) (FrameSink, error) {
	args := e.buildFFmpegArgs(videoPath, params)
	cmd := exec.CommandContext(ctx, e.binary(), args...)

	s := &Stream{cmd: cmd, width: params.Width, height: params.Height, frames: make(chan *image.RGBA, frameQueue)}
	cmd.Stderr = &s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	s.eg, s.egCtx = errgroup.WithContext(ctx)
	s.eg.Go(func() error {
		for img := range s.frames {
			err := writeRawRGBA(stdin, img)
			putImage(img)
			if err != nil {
				return fmt.Errorf("write raw frame: %w", err)
			}
		}
		return nil
	})
	return s, nil
}

func (s *Stream) WriteFrame(img *image.RGBA) error {
	if s.closed {
		return errors.New("write to closed stream")
	}
	if b := img.Bounds(); b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("frame %dx%d does not match stream %dx%d", b.Dx(), b.Dy(), s.width, s.height)
	}
	select {
	case s.frames <- img:
		s.count++
		return nil
	case <-s.egCtx.Done():
		putImage(img)
		return fmt.Errorf("ffmpeg stream stopped: %w", context.Cause(s.egCtx))
	}
}

// Frames is the number of frames accepted so far.
func (s *Stream) Frames() int { return s.count }

// Close flushes pending frames and waits for ffmpeg to finish the file.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.frames)
	werr := s.eg.Wait()
	// a failed writer leaves frames behind
	for img := range s.frames {
		putImage(img)
	}
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", errors.Join(err, werr), tail(s.stderr.String(), 20))
	}
	return werr
}

func (e *FFmpegEncoder) buildFFmpegArgs(videoPath string, params config.EncodeParams) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName(params.Encoder),
	}
	args = append(args, qualityArgs(params.Encoder, params.Quality)...)
	args = append(args, "-movflags", "+faststart", videoPath)
	return args
}

func encoderName(name string) string {
	if name == "" {
		return "libx264"
	}
	return name
}

// qualityArgs maps one quality number onto the knob each encoder understands.
func qualityArgs(encoder string, quality int) []string {
	if quality <= 0 {
		quality = system.DefaultQuality(encoderName(encoder))
	}
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox ignores -q:v on some builds, use a bitrate instead
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	rgba := img
	if rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// MuxSubtitles adds srtPath to the video as a mov_text track, replacing the file in place.
func (e *FFmpegEncoder) MuxSubtitles(ctx context.Context, videoPath, srtPath string) error {
	tmp := subtitleTempPath(videoPath)
	cmd := exec.CommandContext(ctx, e.binary(), "-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath, "-i", srtPath,
		"-map", "0:v", "-map", "1:s",
		"-c:v", "copy", "-c:s", "mov_text",
		tmp,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ffmpeg subtitle mux error: %v, output: %s", err, string(out))
	}
	if err := os.Rename(tmp, videoPath); err != nil {
		return fmt.Errorf("replace %s: %w", videoPath, err)
	}
	return nil
}

// subtitleTempPath names the muxed copy next to the video, keeping its container extension.
func subtitleTempPath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + ".subs" + ext
}

func tail(s string, lines int) string {
	parts := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "\n")
}
