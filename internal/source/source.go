package source

import (
	"embed"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/patrickmn/go-cache"
)

// ErrUnknownIcon is returned for a name no source provides.
var ErrUnknownIcon = errors.New("unknown icon")

// Icon names used by the scene.
const (
	Database = "database"
	Gear     = "gear"
)

//go:embed assets/*.svg
var assets embed.FS

// IconSource rasterises named icons. Icons are returned as alpha masks: the
// scene tints them with the colour of the node that shows them.
type IconSource interface {
	Icon(name string, heightPx int) (*image.Alpha, error)
	Close() error
}

// FitzSVGSource renders the built-in SVG icons with MuPDF.
type FitzSVGSource struct {
	dir      string
	rendered *cache.Cache
	mu       sync.Mutex
}

// NewFitzSVGSource unpacks the embedded icons into a temporary directory,
// since MuPDF picks the document handler from the file extension.
func NewFitzSVGSource() (*FitzSVGSource, error) {
	dir, err := os.MkdirTemp("", "resultflow_icons_")
	if err != nil {
		return nil, fmt.Errorf("icon dir: %w", err)
	}
	entries, err := assets.ReadDir("assets")
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("read embedded icons: %w", err)
	}
	for _, e := range entries {
		data, err := assets.ReadFile("assets/" + e.Name())
		if err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("unpack %s: %w", e.Name(), err)
		}
	}
	return &FitzSVGSource{dir: dir, rendered: cache.New(cache.NoExpiration, 0)}, nil
}

// Names lists the icons this source can render.
func (s *FitzSVGSource) Names() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".svg") {
			names = append(names, strings.TrimSuffix(e.Name(), ".svg"))
		}
	}
	return names
}

func (s *FitzSVGSource) Icon(name string, heightPx int) (*image.Alpha, error) {
	key := fmt.Sprintf("%s@%d", name, heightPx)
	if img, ok := s.rendered.Get(key); ok {
		return img.(*image.Alpha), nil
	}

	path := filepath.Join(s.dir, name+".svg")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIcon, name)
	}

	// MuPDF contexts are not shared between goroutines
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open icon %s: %w", name, err)
	}
	defer doc.Close()

	bound, err := doc.Bound(0)
	if err != nil {
		return nil, fmt.Errorf("icon %s bounds: %w", name, err)
	}
	dpi := 72.0
	if bound.Dy() > 0 && heightPx > 0 {
		dpi = 72 * float64(heightPx) / float64(bound.Dy())
	}
	img, err := doc.ImageDPI(0, math.Max(dpi, 1))
	if err != nil {
		return nil, fmt.Errorf("render icon %s: %w", name, err)
	}

	mask := Mask(img)
	s.rendered.Set(key, mask, cache.NoExpiration)
	return mask, nil
}

func (s *FitzSVGSource) Close() error {
	return os.RemoveAll(s.dir)
}

// Chain asks each source in turn and returns the first icon found.
type Chain []IconSource

func (c Chain) Icon(name string, heightPx int) (*image.Alpha, error) {
	for _, s := range c {
		img, err := s.Icon(name, heightPx)
		if errors.Is(err, ErrUnknownIcon) {
			continue
		}
		return img, err
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownIcon, name)
}

func (c Chain) Close() error {
	var errs []error
	for _, s := range c {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
