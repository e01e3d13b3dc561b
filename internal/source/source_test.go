package source

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestMask(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.NRGBA{0, 0, 0, 255})       // ink
	img.Set(1, 0, color.NRGBA{255, 255, 255, 255}) // paper
	img.Set(2, 0, color.NRGBA{0, 0, 0, 0})         // transparent

	m := Mask(img)
	want := []uint8{255, 0, 0}
	for x, w := range want {
		if got := m.AlphaAt(x, 0).A; got != w {
			t.Errorf("mask(%d) = %d, want %d", x, got, w)
		}
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "gear.png"), 20, 10)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if src.Len() != 1 {
		t.Fatalf("found %d icons, want 1", src.Len())
	}

	img, err := src.Icon("gear", 5)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Errorf("icon size = %v, want 10x5", b)
	}
	if _, err := src.Icon("database", 5); !errors.Is(err, ErrUnknownIcon) {
		t.Errorf("err = %v, want ErrUnknownIcon", err)
	}
}

type stubSource struct {
	names map[string]bool
	calls int
}

func (s *stubSource) Icon(name string, heightPx int) (*image.Alpha, error) {
	s.calls++
	if !s.names[name] {
		return nil, ErrUnknownIcon
	}
	return image.NewAlpha(image.Rect(0, 0, heightPx, heightPx)), nil
}

func (s *stubSource) Close() error { return nil }

func TestChainFallsThrough(t *testing.T) {
	first := &stubSource{names: map[string]bool{Gear: true}}
	second := &stubSource{names: map[string]bool{Database: true}}
	c := Chain{first, second}

	if _, err := c.Icon(Database, 4); err != nil {
		t.Fatal(err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d, %d", first.calls, second.calls)
	}
	if _, err := c.Icon("server", 4); !errors.Is(err, ErrUnknownIcon) {
		t.Errorf("err = %v, want ErrUnknownIcon", err)
	}
}

func TestQRCode(t *testing.T) {
	img, err := QRCode("https://neo4j.com/docs/", 128)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
		t.Errorf("qr size = %v", b)
	}
}

func TestFitzSVGSource(t *testing.T) {
	src, err := NewFitzSVGSource()
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	names := src.Names()
	if len(names) != 2 {
		t.Fatalf("names = %v", names)
	}
	img, err := src.Icon(Gear, 64)
	if err != nil {
		t.Fatal(err)
	}
	if d := img.Bounds().Dy(); d < 60 || d > 68 {
		t.Errorf("gear height = %d, want about 64", d)
	}
	again, _ := src.Icon(Gear, 64)
	if again != img {
		t.Error("second render not served from cache")
	}
	if _, err := src.Icon("server", 64); !errors.Is(err, ErrUnknownIcon) {
		t.Errorf("err = %v, want ErrUnknownIcon", err)
	}
}
