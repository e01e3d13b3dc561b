package effects

import (
	"github.com/ivlev/resultflow/internal/scene"
)

// DefaultRunTime is the run time of an effect that does not set one, in seconds.
const DefaultRunTime = 1.0

// Stage is where effects put objects on and off screen.
type Stage interface {
	Add(ms ...scene.Mobject)
	Remove(ms ...scene.Mobject)
}

// Effect is one unit of visual change. A presenter calls Begin once, Interpolate
// with linear progress in [0,1] any number of times, and Finish once.
type Effect interface {
	RunTime() float64
	SetRunTime(seconds float64)
	SetRate(r RateFunc)
	Begin(st Stage)
	Interpolate(alpha float64)
	Finish(st Stage)
	Meta() Meta
}

// Meta describes an effect for logs and timelines.
type Meta struct {
	Kind     string
	Targets  []string
	RunTime  float64
	Children []Meta
}

// Option tunes an effect at construction.
type Option func(*settings)

type settings struct {
	runTime  float64
	rate     RateFunc
	lagRatio *float64
	target   *scene.Vec
	scale    float64
}

func newSettings(rt float64, rate RateFunc, opts []Option) settings {
	s := settings{runTime: rt, rate: rate, scale: 1}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithRunTime overrides the run time in seconds.
func WithRunTime(seconds float64) Option {
	return func(s *settings) { s.runTime = seconds }
}

// WithRate overrides the rate function.
func WithRate(r RateFunc) Option {
	return func(s *settings) { s.rate = r }
}

// LagRatio sets how far into a child a group starts the next one.
func LagRatio(r float64) Option {
	return func(s *settings) { s.lagRatio = &r }
}

// TargetPosition makes FadeIn come from, and FadeOut head to, the given point.
func TargetPosition(p scene.Vec) Option {
	return func(s *settings) { s.target = &p }
}

// WithScale makes FadeIn grow from, and FadeOut shrink to, the given factor.
func WithScale(f float64) Option {
	return func(s *settings) { s.scale = f }
}

// base carries the fields every simple effect shares.
type base struct {
	kind    string
	runTime float64
	rate    RateFunc
	targets []scene.Mobject
}

func newBase(kind string, s settings, targets ...scene.Mobject) base {
	return base{kind: kind, runTime: s.runTime, rate: s.rate, targets: targets}
}

func (b *base) RunTime() float64           { return b.runTime }
func (b *base) SetRunTime(seconds float64) { b.runTime = seconds }
func (b *base) SetRate(r RateFunc)         { b.rate = r }

func (b *base) Meta() Meta {
	m := Meta{Kind: b.kind, RunTime: b.runTime}
	for _, t := range b.targets {
		m.Targets = append(m.Targets, t.Label())
	}
	return m
}

func (b *base) eased(alpha float64) float64 {
	if b.rate == nil {
		return clamp(alpha, 0, 1)
	}
	return b.rate(clamp(alpha, 0, 1))
}

// track interpolates the states of a fixed set of nodes.
type track struct {
	nodes    []*scene.Node
	from, to []scene.State
}

func newTrack(m scene.Mobject) *track {
	nodes := m.Leaves()
	tr := &track{nodes: nodes, from: make([]scene.State, len(nodes)), to: make([]scene.State, len(nodes))}
	for i, n := range nodes {
		tr.from[i] = n.State
		tr.to[i] = n.State
	}
	return tr
}

func (tr *track) apply(t float64) {
	for i, n := range tr.nodes {
		n.State = tr.from[i].Lerp(tr.to[i], t)
	}
}

func statesOf(m scene.Mobject) []scene.State {
	leaves := m.Leaves()
	out := make([]scene.State, len(leaves))
	for i, n := range leaves {
		out[i] = n.State
	}
	return out
}

// scaleAbout maps states the way scene.Mobject.Scale maps nodes.
func scaleAbout(states []scene.State, c scene.Vec, k float64) {
	for i := range states {
		states[i].Pos = c.Add(states[i].Pos.Sub(c).Mul(k))
		states[i].Scale *= k
	}
}

func shiftAll(states []scene.State, d scene.Vec) {
	for i := range states {
		states[i].Pos = states[i].Pos.Add(d)
	}
}
