package effects

import (
	"github.com/ivlev/resultflow/internal/scene"
)

type fade struct {
	base
	in       bool
	m        scene.Mobject
	settings settings
	tr       *track
}

// FadeIn puts m on screen and raises it to its current opacity.
func FadeIn(m scene.Mobject, opts ...Option) Effect {
	s := newSettings(DefaultRunTime, Smooth, opts)
	return &fade{base: newBase("fade_in", s, m), in: true, m: m, settings: s}
}

// FadeOut lowers m to zero opacity and takes it off screen.
func FadeOut(m scene.Mobject, opts ...Option) Effect {
	s := newSettings(DefaultRunTime, Smooth, opts)
	return &fade{base: newBase("fade_out", s, m), m: m, settings: s}
}

func (f *fade) Begin(st Stage) {
	st.Add(f.m)
	f.tr = newTrack(f.m)
	center := f.m.Center()

	faded := statesOf(f.m)
	for i := range faded {
		faded[i].Opacity = 0
	}
	if f.settings.target != nil {
		shiftAll(faded, f.settings.target.Sub(center))
		center = *f.settings.target
	}
	if f.settings.scale != 1 {
		scaleAbout(faded, center, f.settings.scale)
	}

	if f.in {
		f.tr.from = faded
	} else {
		f.tr.to = faded
	}
	f.tr.apply(0)
}

func (f *fade) Interpolate(alpha float64) { f.tr.apply(f.eased(alpha)) }

// Finish of a FadeOut takes the object off screen and puts it back in its
// starting state, so it can be shown again later.
func (f *fade) Finish(st Stage) {
	f.tr.apply(1)
	if !f.in {
		st.Remove(f.m)
		f.tr.apply(0)
	}
}

type reveal struct {
	base
	m  scene.Mobject
	tr *track
}

// Write draws text progressively from left to right.
func Write(m scene.Mobject, opts ...Option) Effect {
	s := newSettings(DefaultRunTime, Linear, opts)
	return &reveal{base: newBase("write", s, m), m: m}
}

// Create draws the outline of a shape progressively.
func Create(m scene.Mobject, opts ...Option) Effect {
	s := newSettings(DefaultRunTime, Smooth, opts)
	return &reveal{base: newBase("create", s, m), m: m}
}

func (r *reveal) Begin(st Stage) {
	st.Add(r.m)
	r.tr = newTrack(r.m)
	for i := range r.tr.from {
		r.tr.from[i].Reveal = 0
	}
	r.tr.apply(0)
}

func (r *reveal) Interpolate(alpha float64) { r.tr.apply(r.eased(alpha)) }

func (r *reveal) Finish(Stage) { r.tr.apply(1) }

type grow struct {
	base
	m     scene.Mobject
	point scene.Vec
	tr    *track
}

// GrowFromPoint scales m up from nothing at point.
func GrowFromPoint(m scene.Mobject, point scene.Vec, opts ...Option) Effect {
	s := newSettings(DefaultRunTime, Smooth, opts)
	return &grow{base: newBase("grow_from_point", s, m), m: m, point: point}
}

func (g *grow) Begin(st Stage) {
	st.Add(g.m)
	g.tr = newTrack(g.m)
	for i := range g.tr.from {
		g.tr.from[i].Pos = g.point
		g.tr.from[i].Scale = 0
	}
	g.tr.apply(0)
}

func (g *grow) Interpolate(alpha float64) { g.tr.apply(g.eased(alpha)) }

func (g *grow) Finish(Stage) { g.tr.apply(1) }
