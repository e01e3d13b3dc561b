package scene

import (
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/patrickmn/go-cache"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultEm is the font size of a Text at scale 1, in scene units.
const DefaultEm = 0.5

// measurePx is the pixel size used to measure text independently of the output resolution.
const measurePx = 64

var (
	fontsOnce   sync.Once
	fontsErr    error
	regularFont *opentype.Font
	boldFont    *opentype.Font

	faces = cache.New(cache.NoExpiration, 0)
)

func loadFonts() error {
	fontsOnce.Do(func() {
		regularFont, fontsErr = opentype.Parse(goregular.TTF)
		if fontsErr != nil {
			return
		}
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
	})
	return fontsErr
}

// Face returns a cached face of the Go font at the given pixel size.
func Face(bold bool, px float64) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	// faces are keyed on quarter pixels
	px = math.Max(1, math.Round(px*4)/4)
	key := fmt.Sprintf("%t/%.2f", bold, px)
	if f, ok := faces.Get(key); ok {
		return f.(font.Face), nil
	}
	src := regularFont
	if bold {
		src = boldFont
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{Size: px, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("new face %s: %w", key, err)
	}
	faces.Set(key, face, cache.NoExpiration)
	return face, nil
}

// TextOption customises a Text node.
type TextOption func(*TextShape)

// Bold renders every occurrence of substr in the bold face.
func Bold(substr string) TextOption {
	return func(t *TextShape) { t.Spans = append(t.Spans, Span{Text: substr, Bold: true}) }
}

// Colored renders every occurrence of substr in c.
func Colored(substr string, c color.NRGBA) TextOption {
	return func(t *TextShape) { t.Spans = append(t.Spans, Span{Text: substr, Color: &c}) }
}

// NewText returns a white single-line text node.
func NewText(content string, opts ...TextOption) *Node {
	t := &TextShape{Content: content, Em: DefaultEm}
	for _, opt := range opts {
		opt(t)
	}
	t.w, t.h = measureText(t)
	return newNode(t, White)
}

// MeasureRuns returns the advance width and line height of runs in pixels at size px.
func MeasureRuns(runs []Run, px float64) (width, height, ascent float64, err error) {
	for _, r := range runs {
		face, err := Face(r.Bold, px)
		if err != nil {
			return 0, 0, 0, err
		}
		width += fixedToFloat(font.MeasureString(face, r.Text))
		m := face.Metrics()
		height = math.Max(height, fixedToFloat(m.Ascent+m.Descent))
		ascent = math.Max(ascent, fixedToFloat(m.Ascent))
	}
	return width, height, ascent, nil
}

func measureText(t *TextShape) (float64, float64) {
	w, h, _, err := MeasureRuns(t.Runs(), measurePx)
	if err != nil || h == 0 {
		// the embedded fonts always parse; fall back to a rough estimate anyway
		n := float64(len([]rune(t.Content)))
		return n * t.Em * 0.5, t.Em * 1.2
	}
	return w / measurePx * t.Em, h / measurePx * t.Em
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
