package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/patrickmn/go-cache"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/resultflow/internal/scene"
)

// textLayer is the coverage of every run sharing one colour.
type textLayer struct {
	mask  *image.Alpha
	color *color.NRGBA // nil means the node colour
}

type textBitmap struct {
	layers []textLayer
	bounds image.Rectangle
}

// textPad keeps antialiased glyph edges inside the bitmap.
const textPad = 1

func (c *Canvas) drawText(dst *image.RGBA, n *scene.Node, t *scene.TextShape) error {
	px := t.Em * n.State.Scale * c.scale
	if px < 1 {
		return nil
	}
	bm, err := c.textBitmap(t, px)
	if err != nil {
		return err
	}
	if bm.bounds.Empty() {
		return nil
	}

	src := image.NewRGBA(bm.bounds)
	for _, l := range bm.layers {
		col := n.State.Color
		if l.color != nil {
			col = *l.color
		}
		col = withAlpha(col, n.State.Opacity)
		draw.DrawMask(src, src.Bounds(), image.NewUniform(col), image.Point{}, l.mask, image.Point{}, draw.Over)
	}

	sr := src.Bounds()
	if n.State.Reveal < 1 {
		sr.Max.X = int(math.Ceil(float64(sr.Dx()) * n.State.Reveal))
	}
	cx, cy := c.ToPixel(n.State.Pos)
	w, h := float64(bm.bounds.Dx()), float64(bm.bounds.Dy())
	aff := placement(cx, cy, w, h, 1, 1, n.State.Angle)
	xdraw.ApproxBiLinear.Transform(dst, aff, src, sr, xdraw.Over, nil)
	return nil
}

// textBitmap rasterises the runs of t at px pixels per em.
func (c *Canvas) textBitmap(t *scene.TextShape, px float64) (*textBitmap, error) {
	// quarter pixel steps, matching the face cache
	px = math.Round(px*4) / 4
	key := fmt.Sprintf("%q/%v/%.2f", t.Content, t.Spans, px)
	if v, ok := c.texts.Get(key); ok {
		return v.(*textBitmap), nil
	}

	runs := t.Runs()
	width, height, ascent, err := scene.MeasureRuns(runs, px)
	if err != nil {
		return nil, err
	}
	bm := &textBitmap{bounds: image.Rect(0, 0, int(math.Ceil(width))+2*textPad, int(math.Ceil(height))+2*textPad)}

	layerFor := func(col *color.NRGBA) *image.Alpha {
		for _, l := range bm.layers {
			if (l.color == nil && col == nil) || (l.color != nil && col != nil && *l.color == *col) {
				return l.mask
			}
		}
		m := image.NewAlpha(bm.bounds)
		bm.layers = append(bm.layers, textLayer{mask: m, color: col})
		return m
	}

	dot := fixed.Point26_6{X: fixed.I(textPad), Y: floatToFixed(ascent + textPad)}
	for _, r := range runs {
		face, err := scene.Face(r.Bold, px)
		if err != nil {
			return nil, err
		}
		d := font.Drawer{Dst: layerFor(r.Color), Src: image.Opaque, Face: face, Dot: dot}
		d.DrawString(r.Text)
		dot = d.Dot
	}

	c.texts.Set(key, bm, cache.DefaultExpiration)
	return bm, nil
}

func (c *Canvas) drawRaster(dst *image.RGBA, n *scene.Node, r *scene.RasterShape) {
	if r.Image == nil {
		return
	}
	b := r.Image.Bounds()
	if b.Empty() {
		return
	}
	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if r.Tint {
		col := withAlpha(n.State.Color, n.State.Opacity)
		draw.DrawMask(src, src.Bounds(), image.NewUniform(col), image.Point{}, r.Image, b.Min, draw.Over)
	} else {
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(255 * math.Min(1, n.State.Opacity)))})
		draw.DrawMask(src, src.Bounds(), r.Image, b.Min, mask, image.Point{}, draw.Over)
	}

	sw, sh := float64(b.Dx()), float64(b.Dy())
	kx := r.W * n.State.Scale * c.scale / sw
	ky := r.H * n.State.Scale * c.scale / sh
	cx, cy := c.ToPixel(n.State.Pos)
	xdraw.ApproxBiLinear.Transform(dst, placement(cx, cy, sw, sh, kx, ky, n.State.Angle), src, src.Bounds(), xdraw.Over, nil)
}

// placement maps a w×h source so its centre lands on (cx, cy), scaled by
// (kx, ky) and turned counter-clockwise by angle as seen on screen.
func placement(cx, cy, w, h, kx, ky, angle float64) f64.Aff3 {
	sin, cos := math.Sincos(angle)
	// pixel rows grow downwards, which flips the sign of the sine terms
	a, b := kx*cos, ky*sin
	d, e := -kx*sin, ky*cos
	ox, oy := w/2, h/2
	return f64.Aff3{a, b, cx - a*ox - b*oy, d, e, cy - d*ox - e*oy}
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
