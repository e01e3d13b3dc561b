package system

import (
	"image"
	"testing"
)

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		listing string
		want    string
	}{
		{" V....D h264_videotoolbox    VideoToolbox H.264 Encoder", "h264_videotoolbox"},
		{" V....D h264_nvenc           NVIDIA NVENC H.264 encoder", "h264_nvenc"},
		{" V....D libx264              libx264 H.264", "libx264"},
		{"", "libx264"},
	}
	for _, tt := range tests {
		if got := pickEncoder(tt.listing); got != tt.want {
			t.Errorf("pickEncoder(%q) = %s, want %s", tt.listing, got, tt.want)
		}
	}
}

func TestDefaultQuality(t *testing.T) {
	if DefaultQuality("libx264") != 23 || DefaultQuality("h264_nvenc") != 28 || DefaultQuality("h264_videotoolbox") != 75 {
		t.Error("unexpected default qualities")
	}
}

func TestImagePoolReuse(t *testing.T) {
	p := NewImagePool()
	rect := image.Rect(0, 0, 4, 2)
	img := p.Get(rect)
	if img.Rect != rect || len(img.Pix) != 4*2*4 {
		t.Fatalf("pool returned %v with %d bytes", img.Rect, len(img.Pix))
	}
	p.Put(img)
	// a foreign size is dropped silently
	p.Put(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if got := p.Get(rect); got.Rect != rect {
		t.Errorf("second get returned %v", got.Rect)
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[uint64]string{
		512:             "512 B",
		2048:            "2.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for in, want := range tests {
		if got := HumanBytes(in); got != want {
			t.Errorf("HumanBytes(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestCurrentUsage(t *testing.T) {
	u, err := CurrentUsage()
	if err != nil {
		t.Skipf("process stats unavailable: %v", err)
	}
	if u.RSSBytes == 0 || u.Goroutines == 0 {
		t.Errorf("usage = %+v", u)
	}
	t.Logf("usage: rss=%s cpu=%.2fs", HumanBytes(u.RSSBytes), u.CPUSeconds)
}
