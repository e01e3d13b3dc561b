package scene

import "math"

// Frame dimensions in scene units. The origin is the centre of the frame, y grows up.
const (
	FrameHeight = 8.0
	FrameWidth  = FrameHeight * 16.0 / 9.0

	SmallBuff    = 0.1
	MedSmallBuff = 0.25
)

// Vec is a point or a direction in scene units.
type Vec struct {
	X, Y float64
}

var (
	Origin = Vec{}
	Up     = Vec{0, 1}
	Down   = Vec{0, -1}
	Left   = Vec{-1, 0}
	Right  = Vec{1, 0}
)

func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (v Vec) Add(o Vec) Vec     { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec     { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Mul(f float64) Vec { return Vec{v.X * f, v.Y * f} }
func (v Vec) Len() float64      { return math.Hypot(v.X, v.Y) }
func (v Vec) Lerp(o Vec, t float64) Vec {
	return Vec{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Rotate turns v by angle radians counter-clockwise around the origin.
func (v Vec) Rotate(angle float64) Vec {
	s, c := math.Sincos(angle)
	return Vec{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec
}

func (b Box) Center() Vec     { return b.Min.Lerp(b.Max, 0.5) }
func (b Box) Width() float64  { return b.Max.X - b.Min.X }
func (b Box) Height() float64 { return b.Max.Y - b.Min.Y }

// Edge returns the critical point of the box in direction dir. Zero components take the centre.
func (b Box) Edge(dir Vec) Vec {
	c := b.Center()
	p := c
	switch {
	case dir.X > 0:
		p.X = b.Max.X
	case dir.X < 0:
		p.X = b.Min.X
	}
	switch {
	case dir.Y > 0:
		p.Y = b.Max.Y
	case dir.Y < 0:
		p.Y = b.Min.Y
	}
	return p
}

func (b Box) union(o Box) Box {
	return Box{
		Min: Vec{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y)},
		Max: Vec{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y)},
	}
}

func boxOf(points []Vec) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.union(Box{Min: p, Max: p})
	}
	return b
}
