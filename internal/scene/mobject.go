package scene

import (
	"image/color"
	"strings"
)

// Mobject is anything that can be placed in a scene: a single Node or a Group of them.
// Mutators change the object in place and return it for chaining.
type Mobject interface {
	Leaves() []*Node
	Clone() Mobject
	Label() string

	Bounds() Box
	Center() Vec
	Width() float64
	Height() float64
	Edge(dir Vec) Vec

	MoveTo(p Vec) Mobject
	Shift(d Vec) Mobject
	Scale(f float64) Mobject
	Rotate(angle float64) Mobject
	SetOpacity(o float64) Mobject
	SetColor(c color.NRGBA) Mobject
	SetZ(z int) Mobject
	AlignTo(ref Mobject, dir Vec) Mobject
	NextTo(ref Mobject, dir Vec, buff float64) Mobject
	ScaleToFitWidth(w float64) Mobject
}

// family implements the layout operations shared by nodes and groups.
type family []*Node

func (f family) bounds() Box {
	if len(f) == 0 {
		return Box{}
	}
	b := f[0].localBounds()
	for _, n := range f[1:] {
		b = b.union(n.localBounds())
	}
	return b
}

func (f family) shift(d Vec) {
	for _, n := range f {
		n.State.Pos = n.State.Pos.Add(d)
	}
}

func (f family) moveTo(p Vec) {
	f.shift(p.Sub(f.bounds().Center()))
}

func (f family) scale(k float64) {
	c := f.bounds().Center()
	for _, n := range f {
		n.State.Pos = c.Add(n.State.Pos.Sub(c).Mul(k))
		n.State.Scale *= k
	}
}

func (f family) rotate(angle float64) {
	c := f.bounds().Center()
	for _, n := range f {
		n.State.Pos = c.Add(n.State.Pos.Sub(c).Rotate(angle))
		n.State.Angle += angle
	}
}

func (f family) setOpacity(o float64) {
	for _, n := range f {
		n.State.Opacity = o
	}
}

func (f family) setColor(c color.NRGBA) {
	for _, n := range f {
		n.State.Color = c
	}
}

func (f family) setZ(z int) {
	for _, n := range f {
		n.Z = z
	}
}

func (f family) alignTo(ref Mobject, dir Vec) {
	target := ref.Edge(dir)
	own := f.bounds().Edge(dir)
	var d Vec
	if dir.X != 0 {
		d.X = target.X - own.X
	}
	if dir.Y != 0 {
		d.Y = target.Y - own.Y
	}
	f.shift(d)
}

func (f family) nextTo(ref Mobject, dir Vec, buff float64) {
	target := ref.Edge(dir)
	own := f.bounds().Edge(dir.Mul(-1))
	f.shift(target.Sub(own).Add(dir.Mul(buff)))
}

func (f family) scaleToFitWidth(w float64) {
	cur := f.bounds().Width()
	if cur <= 0 {
		return
	}
	f.scale(w / cur)
}

// Label joins the labels of a set of objects, for logs and timelines.
func Label(ms ...Mobject) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		if m == nil {
			continue
		}
		parts = append(parts, m.Label())
	}
	return strings.Join(parts, ", ")
}
