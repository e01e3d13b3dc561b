package scene

import (
	"image"
	"image/color"
	"math"
)

// Shape is the local geometry of a leaf, centred on the origin at scale 1.
// The renderer switches on the concrete type.
type Shape interface {
	// Outline returns the local points used for bounds and, for vector shapes, for drawing.
	Outline() []Vec
	Kind() string
	clone() Shape
}

// RectShape is an axis-aligned rectangle before rotation.
type RectShape struct {
	W, H float64
}

func (r *RectShape) Outline() []Vec {
	w, h := r.W/2, r.H/2
	// counter-clockwise from the top-right corner, so edges run top, left, bottom, right
	return []Vec{{w, h}, {-w, h}, {-w, -h}, {w, -h}}
}

func (r *RectShape) Kind() string { return "rectangle" }
func (r *RectShape) clone() Shape { c := *r; return &c }

// PolygonShape is a closed polygon.
type PolygonShape struct {
	Points []Vec
}

func (p *PolygonShape) Outline() []Vec { return p.Points }
func (p *PolygonShape) Kind() string   { return "polygon" }
func (p *PolygonShape) clone() Shape {
	return &PolygonShape{Points: append([]Vec(nil), p.Points...)}
}

// CircleShape is a circle of radius R. Filled circles are dots; unfilled ones double as motion paths.
type CircleShape struct {
	R         float64
	Clockwise bool
	Segments  int
}

func (c *CircleShape) Outline() []Vec {
	n := c.Segments
	if n <= 0 {
		n = 48
	}
	pts := make([]Vec, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Vec{c.R * math.Cos(a), c.R * math.Sin(a)}
		if c.Clockwise {
			// mirrored: starts on the left
			pts[i].X = -pts[i].X
		}
	}
	return pts
}

func (c *CircleShape) Kind() string { return "circle" }
func (c *CircleShape) clone() Shape { cc := *c; return &cc }

// LineShape is an open segment, optionally dashed.
type LineShape struct {
	A, B       Vec
	DashLength float64
}

func (l *LineShape) Outline() []Vec { return []Vec{l.A, l.B} }
func (l *LineShape) Kind() string   { return "line" }
func (l *LineShape) clone() Shape   { c := *l; return &c }

// Span overrides the style of every occurrence of a substring.
type Span struct {
	Text  string
	Bold  bool
	Color *color.NRGBA
}

// Run is a maximal piece of text sharing one style.
type Run struct {
	Text  string
	Bold  bool
	Color *color.NRGBA
}

// TextShape is a single line of text. Em is the font size in scene units at scale 1.
type TextShape struct {
	Content string
	Spans   []Span
	Em      float64

	w, h float64
}

func (t *TextShape) Outline() []Vec {
	w, h := t.w/2, t.h/2
	return []Vec{{-w, h}, {-w, -h}, {w, -h}, {w, h}}
}

func (t *TextShape) Kind() string { return "text" }
func (t *TextShape) clone() Shape {
	c := *t
	c.Spans = append([]Span(nil), t.Spans...)
	return &c
}

// Size is the natural width and height in scene units.
func (t *TextShape) Size() (float64, float64) { return t.w, t.h }

// Runs splits the content into styled runs. Later spans win where they overlap.
func (t *TextShape) Runs() []Run {
	rs := []rune(t.Content)
	if len(rs) == 0 {
		return nil
	}
	bold := make([]bool, len(rs))
	colors := make([]*color.NRGBA, len(rs))
	for _, sp := range t.Spans {
		needle := []rune(sp.Text)
		if len(needle) == 0 {
			continue
		}
		for i := 0; i+len(needle) <= len(rs); i++ {
			if string(rs[i:i+len(needle)]) != sp.Text {
				continue
			}
			for j := i; j < i+len(needle); j++ {
				if sp.Bold {
					bold[j] = true
				}
				if sp.Color != nil {
					colors[j] = sp.Color
				}
			}
		}
	}
	var runs []Run
	start := 0
	for i := 1; i <= len(rs); i++ {
		if i < len(rs) && bold[i] == bold[start] && colors[i] == colors[start] {
			continue
		}
		runs = append(runs, Run{Text: string(rs[start:i]), Bold: bold[start], Color: colors[start]})
		start = i
	}
	return runs
}

// RasterShape is a bitmap stretched over W×H scene units. With Tint the bitmap
// alpha is used as a mask for the node colour.
type RasterShape struct {
	Image image.Image
	W, H  float64
	Tint  bool
	Name  string
}

func (r *RasterShape) Outline() []Vec {
	w, h := r.W/2, r.H/2
	return []Vec{{-w, h}, {-w, -h}, {w, -h}, {w, h}}
}

func (r *RasterShape) Kind() string { return "raster" }
func (r *RasterShape) clone() Shape { c := *r; return &c }
