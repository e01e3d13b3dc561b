package renderer

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"

	"github.com/ivlev/resultflow/internal/scene"
)

type pt struct{ x, y float64 }

type segment struct {
	a, b pt
	edge int
}

func (c *Canvas) pixels(world []scene.Vec) []pt {
	out := make([]pt, len(world))
	for i, v := range world {
		out[i].x, out[i].y = c.ToPixel(v)
	}
	return out
}

// strokeWidth scales the 1080p stroke width to the frame height.
func (c *Canvas) strokeWidth(n *scene.Node) float64 {
	return math.Max(1, n.Style.StrokeWidth*float64(c.Height)/1080)
}

func (c *Canvas) drawOutline(dst *image.RGBA, n *scene.Node) {
	pts := c.pixels(n.WorldOutline())
	if len(pts) < 2 {
		return
	}
	st := n.State

	if n.Style.FillOpacity > 0 && len(pts) > 2 {
		c.raster.Reset(c.Width, c.Height)
		addPolygon(c.raster, pts)
		c.paint(dst, n.Style.Fill, n.Style.FillOpacity*st.Opacity*st.Reveal)
	}
	if n.Style.StrokeWidth <= 0 {
		return
	}

	closed := append(append([]pt(nil), pts...), pts[0])
	segs := truncate(closed, st.Reveal)
	hw := c.strokeWidth(n) / 2

	if len(n.Style.EdgeColors) == 0 {
		c.raster.Reset(c.Width, c.Height)
		for _, s := range segs {
			addSegment(c.raster, s.a, s.b, hw)
		}
		c.paint(dst, st.Color, st.Opacity)
		return
	}

	for k, col := range n.Style.EdgeColors {
		c.raster.Reset(c.Width, c.Height)
		drawn := false
		for _, s := range segs {
			if s.edge%len(n.Style.EdgeColors) == k {
				addSegment(c.raster, s.a, s.b, hw)
				drawn = true
			}
		}
		if drawn {
			c.paint(dst, col, st.Opacity)
		}
	}
}

func (c *Canvas) drawLine(dst *image.RGBA, n *scene.Node, l *scene.LineShape) {
	segs := truncate(c.pixels([]scene.Vec{n.ToWorld(l.A), n.ToWorld(l.B)}), n.State.Reveal)
	if len(segs) == 0 {
		return
	}
	hw := c.strokeWidth(n) / 2
	dash := l.DashLength * n.State.Scale * c.scale

	c.raster.Reset(c.Width, c.Height)
	s := segs[0]
	if dash <= 0 {
		addSegment(c.raster, s.a, s.b, hw)
	} else {
		// dashes and gaps of equal length
		total := dist(s.a, s.b)
		for from := 0.0; from < total; from += 2 * dash {
			to := math.Min(from+dash, total)
			addSegment(c.raster, lerpPt(s.a, s.b, from/total), lerpPt(s.a, s.b, to/total), hw)
		}
	}
	c.paint(dst, n.State.Color, n.State.Opacity)
}

func (c *Canvas) paint(dst *image.RGBA, col color.NRGBA, alpha float64) {
	col = withAlpha(col, alpha)
	if col.A == 0 {
		return
	}
	c.raster.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

// truncate keeps the leading fraction of a polyline's length.
func truncate(pts []pt, fraction float64) []segment {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += dist(pts[i-1], pts[i])
	}
	left := total * math.Min(1, fraction)
	var out []segment
	for i := 1; i < len(pts) && left > 0; i++ {
		a, b := pts[i-1], pts[i]
		d := dist(a, b)
		if d > left {
			b = lerpPt(a, b, left/d)
			d = left
		}
		out = append(out, segment{a: a, b: b, edge: i - 1})
		left -= d
	}
	return out
}

// addSegment adds a thick segment with a round-ish cap at each end.
func addSegment(r *vector.Rasterizer, a, b pt, hw float64) {
	d := dist(a, b)
	if d > 0 {
		nx, ny := -(b.y-a.y)/d*hw, (b.x-a.x)/d*hw
		addPolygon(r, []pt{
			{a.x + nx, a.y + ny},
			{b.x + nx, b.y + ny},
			{b.x - nx, b.y - ny},
			{a.x - nx, a.y - ny},
		})
	}
	addDisc(r, a, hw)
	addDisc(r, b, hw)
}

func addDisc(r *vector.Rasterizer, c pt, radius float64) {
	const sides = 8
	pts := make([]pt, sides)
	for i := range pts {
		s, co := math.Sincos(2 * math.Pi * float64(i) / sides)
		pts[i] = pt{c.x + radius*co, c.y + radius*s}
	}
	addPolygon(r, pts)
}

// addPolygon adds a closed path. Every path is wound the same way so
// overlapping pieces of one stroke add up instead of cancelling.
func addPolygon(r *vector.Rasterizer, pts []pt) {
	if len(pts) < 3 {
		return
	}
	area := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	at := func(i int) pt {
		if area < 0 {
			return pts[len(pts)-1-i]
		}
		return pts[i]
	}
	p := at(0)
	r.MoveTo(float32(p.x), float32(p.y))
	for i := 1; i < len(pts); i++ {
		p = at(i)
		r.LineTo(float32(p.x), float32(p.y))
	}
	r.ClosePath()
}

func dist(a, b pt) float64 { return math.Hypot(b.x-a.x, b.y-a.y) }

func lerpPt(a, b pt, t float64) pt {
	return pt{a.x + (b.x-a.x)*t, a.y + (b.y-a.y)*t}
}
