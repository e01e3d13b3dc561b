package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// DirSource serves icons from a directory of PNG or JPEG files named after the icon.
type DirSource struct {
	paths map[string]string
}

func NewDirSource(path string) (*DirSource, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
			name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			paths[name] = filepath.Join(path, entry.Name())
		}
	}
	return &DirSource{paths: paths}, nil
}

func (s *DirSource) Len() int {
	return len(s.paths)
}

func (s *DirSource) Icon(name string, heightPx int) (*image.Alpha, error) {
	path, ok := s.paths[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIcon, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return Mask(resize(img, heightPx)), nil
}

func (s *DirSource) Close() error {
	return nil
}

// resize scales img to the given height, keeping its aspect ratio.
func resize(img image.Image, heightPx int) image.Image {
	b := img.Bounds()
	if heightPx <= 0 || b.Dy() == 0 || b.Dy() == heightPx {
		return img
	}
	w := max(1, b.Dx()*heightPx/b.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, heightPx))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
