package effects

import (
	"math"

	"github.com/ivlev/resultflow/internal/scene"
)

type transform struct {
	base
	m      scene.Mobject
	target []scene.State
	tr     *track
}

// Transform animates m towards a copy of itself changed by build. The copy is
// made now, so the target reflects the state of m at construction; the
// animation starts from wherever m is when the batch begins.
func Transform(m scene.Mobject, build func(target scene.Mobject), opts ...Option) Effect {
	s := newSettings(DefaultRunTime, Smooth, opts)
	t := m.Clone()
	build(t)
	return &transform{base: newBase("transform", s, m), m: m, target: statesOf(t)}
}

func (t *transform) Begin(st Stage) {
	st.Add(t.m)
	t.tr = newTrack(t.m)
	copy(t.tr.to, t.target)
}

func (t *transform) Interpolate(alpha float64) { t.tr.apply(t.eased(alpha)) }

func (t *transform) Finish(Stage) { t.tr.apply(1) }

type replacement struct {
	base
	from, to scene.Mobject
	out, in  *track
}

// ReplacementTransform morphs from into to. Afterwards from is off screen and
// to is on screen; from must stay valid until the batch has begun.
func ReplacementTransform(from, to scene.Mobject, opts ...Option) Effect {
	s := newSettings(DefaultRunTime, Smooth, opts)
	return &replacement{base: newBase("replacement_transform", s, from, to), from: from, to: to}
}

func (r *replacement) Begin(st Stage) {
	st.Add(r.from, r.to)
	offset := r.to.Center().Sub(r.from.Center())

	r.out = newTrack(r.from)
	shiftAll(r.out.to, offset)
	for i := range r.out.to {
		r.out.to[i].Opacity = 0
	}

	r.in = newTrack(r.to)
	shiftAll(r.in.from, offset.Mul(-1))
	for i := range r.in.from {
		r.in.from[i].Opacity = 0
	}
	r.Interpolate(0)
}

func (r *replacement) Interpolate(alpha float64) {
	a := r.eased(alpha)
	r.out.apply(a)
	r.in.apply(a)
}

func (r *replacement) Finish(st Stage) {
	r.Interpolate(1)
	st.Remove(r.from)
	// restore the replaced object so a later reuse starts from a sane state
	for i, n := range r.out.nodes {
		n.State = r.out.from[i]
	}
}

type rotate struct {
	base
	m      scene.Mobject
	angle  float64
	center scene.Vec
	tr     *track
}

// Rotate turns m by angle radians around its centre.
func Rotate(m scene.Mobject, angle float64, opts ...Option) Effect {
	s := newSettings(DefaultRunTime, Smooth, opts)
	return &rotate{base: newBase("rotate", s, m), m: m, angle: angle}
}

func (r *rotate) Begin(st Stage) {
	st.Add(r.m)
	r.tr = newTrack(r.m)
	r.center = r.m.Center()
}

func (r *rotate) Interpolate(alpha float64) {
	a := r.angle * r.eased(alpha)
	for i, n := range r.tr.nodes {
		s := r.tr.from[i]
		s.Pos = r.center.Add(s.Pos.Sub(r.center).Rotate(a))
		s.Angle += a
		n.State = s
	}
}

func (r *rotate) Finish(Stage) { r.Interpolate(1) }

type indicate struct {
	base
	m  scene.Mobject
	tr *track
}

// IndicateScale is how much Indicate enlarges its target at the peak.
const IndicateScale = 1.2

// Indicate briefly enlarges m and tints it yellow.
func Indicate(m scene.Mobject, opts ...Option) Effect {
	s := newSettings(DefaultRunTime, ThereAndBack, opts)
	return &indicate{base: newBase("indicate", s, m), m: m}
}

func (e *indicate) Begin(st Stage) {
	st.Add(e.m)
	e.tr = newTrack(e.m)
	scaleAbout(e.tr.to, e.m.Center(), IndicateScale)
	for i := range e.tr.to {
		e.tr.to[i].Color = scene.Yellow
	}
}

func (e *indicate) Interpolate(alpha float64) { e.tr.apply(e.eased(alpha)) }

func (e *indicate) Finish(Stage) {
	// ThereAndBack ends where it started, whatever the override
	e.tr.apply(0)
}

type alongPath struct {
	base
	m      scene.Mobject
	path   *scene.Node
	points []scene.Vec
	tr     *track
}

// MoveAlongPath moves the centre of m once around the outline of path.
func MoveAlongPath(m scene.Mobject, path *scene.Node, opts ...Option) Effect {
	s := newSettings(DefaultRunTime, Smooth, opts)
	return &alongPath{base: newBase("move_along_path", s, m), m: m, path: path}
}

func (p *alongPath) Begin(st Stage) {
	st.Add(p.m)
	p.tr = newTrack(p.m)
	p.points = p.path.WorldOutline()
	if _, closed := p.path.Shape.(*scene.CircleShape); closed && len(p.points) > 0 {
		p.points = append(p.points, p.points[0])
	}
}

func (p *alongPath) Interpolate(alpha float64) {
	target := PointAlong(p.points, p.eased(alpha))
	offset := target.Sub(centerOf(p.tr.from))
	for i, n := range p.tr.nodes {
		s := p.tr.from[i]
		s.Pos = s.Pos.Add(offset)
		n.State = s
	}
}

func (p *alongPath) Finish(Stage) { p.Interpolate(1) }

// PointAlong returns the point at the given proportion of a polyline's length.
func PointAlong(points []scene.Vec, proportion float64) scene.Vec {
	if len(points) == 0 {
		return scene.Origin
	}
	if len(points) == 1 || proportion <= 0 {
		return points[0]
	}
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i].Sub(points[i-1]).Len()
	}
	if proportion >= 1 || total == 0 {
		return points[len(points)-1]
	}

	// walk the segments until the remaining length fits in one
	want := proportion * total
	for i := 1; i < len(points); i++ {
		seg := points[i].Sub(points[i-1]).Len()
		if want <= seg {
			t := 0.0
			if seg > 0 {
				t = want / seg
			}
			return points[i-1].Lerp(points[i], t)
		}
		want -= seg
	}
	return points[len(points)-1]
}

func centerOf(states []scene.State) scene.Vec {
	if len(states) == 0 {
		return scene.Origin
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range states {
		minX, maxX = math.Min(minX, s.Pos.X), math.Max(maxX, s.Pos.X)
		minY, maxY = math.Min(minY, s.Pos.Y), math.Max(maxY, s.Pos.Y)
	}
	return scene.V((minX+maxX)/2, (minY+maxY)/2)
}
