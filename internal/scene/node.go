package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// DefaultStrokeWidth is measured in pixels of a 1080p frame.
const DefaultStrokeWidth = 4.0

// State is the part of a node that effects interpolate.
type State struct {
	Pos     Vec
	Scale   float64
	Angle   float64
	Opacity float64
	// Reveal is the drawn fraction, used by Write and Create.
	Reveal float64
	Color  color.NRGBA
}

// Lerp interpolates every field of the state.
func (s State) Lerp(o State, t float64) State {
	return State{
		Pos:     s.Pos.Lerp(o.Pos, t),
		Scale:   s.Scale + (o.Scale-s.Scale)*t,
		Angle:   s.Angle + (o.Angle-s.Angle)*t,
		Opacity: s.Opacity + (o.Opacity-s.Opacity)*t,
		Reveal:  s.Reveal + (o.Reveal-s.Reveal)*t,
		Color:   LerpColor(s.Color, o.Color, t),
	}
}

// Style holds the static drawing attributes.
type Style struct {
	Fill        color.NRGBA
	FillOpacity float64
	StrokeWidth float64
	// EdgeColors, when set, colours each polygon edge separately.
	EdgeColors []color.NRGBA
}

// Node is a leaf object.
type Node struct {
	Shape Shape
	State State
	Style Style
	Z     int
}

func newNode(s Shape, c color.NRGBA) *Node {
	return &Node{
		Shape: s,
		State: State{Scale: 1, Opacity: 1, Reveal: 1, Color: c},
		Style: Style{StrokeWidth: DefaultStrokeWidth},
	}
}

// NewRectangle returns a stroked rectangle.
func NewRectangle(w, h float64, stroke color.NRGBA) *Node {
	return newNode(&RectShape{W: w, H: h}, stroke)
}

// NewSurroundingRectangle returns a rectangle enclosing m with buff padding on every side.
func NewSurroundingRectangle(m Mobject, buff float64, stroke color.NRGBA) *Node {
	r := NewRectangle(m.Width()+2*buff, m.Height()+2*buff, stroke)
	r.MoveTo(m.Center())
	return r
}

// NewTriangle returns an equilateral triangle of circumradius 1 pointing up.
func NewTriangle(stroke color.NRGBA) *Node {
	pts := make([]Vec, 3)
	for i := range pts {
		a := math.Pi/2 + float64(i)*2*math.Pi/3
		pts[i] = Vec{math.Cos(a), math.Sin(a)}
	}
	// centre on the bounding box, not the circumcentre, so MoveTo behaves like the other shapes
	c := boxOf(pts).Center()
	for i := range pts {
		pts[i] = pts[i].Sub(c)
	}
	return newNode(&PolygonShape{Points: pts}, stroke)
}

// NewDot returns a filled circle.
func NewDot(radius float64, c color.NRGBA) *Node {
	n := newNode(&CircleShape{R: radius}, c)
	n.Style.Fill = c
	n.Style.FillOpacity = 1
	n.Style.StrokeWidth = 0
	return n
}

// NewCircle returns an unfilled circle.
func NewCircle(radius float64, stroke color.NRGBA) *Node {
	return newNode(&CircleShape{R: radius}, stroke)
}

// NewDashedLine returns a dashed segment between two points.
func NewDashedLine(a, b Vec, c color.NRGBA) *Node {
	mid := a.Lerp(b, 0.5)
	n := newNode(&LineShape{A: a.Sub(mid), B: b.Sub(mid), DashLength: 0.05}, c)
	n.State.Pos = mid
	return n
}

// NewRaster wraps a bitmap scaled to the given height, keeping its aspect ratio.
func NewRaster(name string, img image.Image, height float64, tint bool) *Node {
	b := img.Bounds()
	w := height
	if b.Dy() > 0 {
		w = height * float64(b.Dx()) / float64(b.Dy())
	}
	return newNode(&RasterShape{Image: img, W: w, H: height, Tint: tint, Name: name}, White)
}

// SetFill sets the fill colour and opacity of a node.
func (n *Node) SetFill(c color.NRGBA, opacity float64) *Node {
	n.Style.Fill = c
	n.Style.FillOpacity = opacity
	return n
}

// SetStrokeWidth sets the stroke width in 1080p pixels.
func (n *Node) SetStrokeWidth(w float64) *Node {
	n.Style.StrokeWidth = w
	return n
}

// SetEdgeColors colours polygon edges separately. Edge i runs from outline point i to point i+1.
func (n *Node) SetEdgeColors(cs ...color.NRGBA) *Node {
	n.Style.EdgeColors = append([]color.NRGBA(nil), cs...)
	return n
}

// Flip mirrors a circle left to right, so as a path it starts on the left and runs clockwise.
func (n *Node) Flip() *Node {
	if c, ok := n.Shape.(*CircleShape); ok {
		c.Clockwise = !c.Clockwise
	}
	return n
}

// ToWorld maps a local point of the node into scene coordinates.
func (n *Node) ToWorld(p Vec) Vec {
	return n.State.Pos.Add(p.Mul(n.State.Scale).Rotate(n.State.Angle))
}

// WorldOutline returns the outline in scene coordinates.
func (n *Node) WorldOutline() []Vec {
	local := n.Shape.Outline()
	pts := make([]Vec, len(local))
	for i, p := range local {
		pts[i] = n.ToWorld(p)
	}
	return pts
}

func (n *Node) localBounds() Box { return boxOf(n.WorldOutline()) }

func (n *Node) Leaves() []*Node { return []*Node{n} }

func (n *Node) Clone() Mobject {
	c := *n
	c.Shape = n.Shape.clone()
	c.Style.EdgeColors = append([]color.NRGBA(nil), n.Style.EdgeColors...)
	return &c
}

func (n *Node) Label() string {
	switch s := n.Shape.(type) {
	case *TextShape:
		return fmt.Sprintf("text(%q)", s.Content)
	case *RasterShape:
		return "raster(" + s.Name + ")"
	default:
		return n.Shape.Kind()
	}
}

func (n *Node) Bounds() Box          { return n.localBounds() }
func (n *Node) Center() Vec          { return n.Bounds().Center() }
func (n *Node) Width() float64       { return n.Bounds().Width() }
func (n *Node) Height() float64      { return n.Bounds().Height() }
func (n *Node) Edge(dir Vec) Vec     { return n.Bounds().Edge(dir) }
func (n *Node) fam() family          { return family{n} }
func (n *Node) MoveTo(p Vec) Mobject { n.fam().moveTo(p); return n }
func (n *Node) Shift(d Vec) Mobject  { n.fam().shift(d); return n }
func (n *Node) Scale(f float64) Mobject {
	n.fam().scale(f)
	return n
}
func (n *Node) Rotate(angle float64) Mobject {
	n.fam().rotate(angle)
	return n
}
func (n *Node) SetOpacity(o float64) Mobject {
	n.fam().setOpacity(o)
	return n
}
func (n *Node) SetColor(c color.NRGBA) Mobject {
	n.fam().setColor(c)
	return n
}
func (n *Node) SetZ(z int) Mobject {
	n.fam().setZ(z)
	return n
}
func (n *Node) AlignTo(ref Mobject, dir Vec) Mobject {
	n.fam().alignTo(ref, dir)
	return n
}
func (n *Node) NextTo(ref Mobject, dir Vec, buff float64) Mobject {
	n.fam().nextTo(ref, dir, buff)
	return n
}
func (n *Node) ScaleToFitWidth(w float64) Mobject {
	n.fam().scaleToFitWidth(w)
	return n
}

// Group is an ordered collection of objects moved as one.
type Group struct {
	children []Mobject
}

// NewGroup groups the given objects. The objects are shared, not copied.
func NewGroup(ms ...Mobject) *Group {
	return &Group{children: append([]Mobject(nil), ms...)}
}

// Get returns the i-th child.
func (g *Group) Get(i int) Mobject { return g.children[i] }

// Len returns the number of direct children.
func (g *Group) Len() int { return len(g.children) }

func (g *Group) Leaves() []*Node {
	var out []*Node
	for _, c := range g.children {
		out = append(out, c.Leaves()...)
	}
	return out
}

func (g *Group) Clone() Mobject {
	c := &Group{children: make([]Mobject, len(g.children))}
	for i, ch := range g.children {
		c.children[i] = ch.Clone()
	}
	return c
}

func (g *Group) Label() string {
	return "group[" + Label(g.children...) + "]"
}

func (g *Group) fam() family { return family(g.Leaves()) }

func (g *Group) Bounds() Box      { return g.fam().bounds() }
func (g *Group) Center() Vec      { return g.Bounds().Center() }
func (g *Group) Width() float64   { return g.Bounds().Width() }
func (g *Group) Height() float64  { return g.Bounds().Height() }
func (g *Group) Edge(dir Vec) Vec { return g.Bounds().Edge(dir) }
func (g *Group) MoveTo(p Vec) Mobject {
	g.fam().moveTo(p)
	return g
}
func (g *Group) Shift(d Vec) Mobject {
	g.fam().shift(d)
	return g
}
func (g *Group) Scale(f float64) Mobject {
	g.fam().scale(f)
	return g
}
func (g *Group) Rotate(angle float64) Mobject {
	g.fam().rotate(angle)
	return g
}
func (g *Group) SetOpacity(o float64) Mobject {
	g.fam().setOpacity(o)
	return g
}
func (g *Group) SetColor(c color.NRGBA) Mobject {
	g.fam().setColor(c)
	return g
}
func (g *Group) SetZ(z int) Mobject {
	g.fam().setZ(z)
	return g
}
func (g *Group) AlignTo(ref Mobject, dir Vec) Mobject {
	g.fam().alignTo(ref, dir)
	return g
}
func (g *Group) NextTo(ref Mobject, dir Vec, buff float64) Mobject {
	g.fam().nextTo(ref, dir, buff)
	return g
}
func (g *Group) ScaleToFitWidth(w float64) Mobject {
	g.fam().scaleToFitWidth(w)
	return g
}
