package effects

import "math"

// Default lag ratios of the group constructors.
const (
	GroupLag       = 0.0
	SuccessionLag  = 1.0
	LaggedStartLag = 0.05
)

type slot struct {
	effect        Effect
	start, length float64
	begun, done   bool
}

type group struct {
	kind     string
	children []*slot
	lag      float64
	override float64
	rate     RateFunc
	natural  float64
	stage    Stage
}

// Group plays its children together, each starting LagRatio of the previous
// child's run time after it (0 by default).
func Group(children []Effect, opts ...Option) Effect {
	return newGroup("group", GroupLag, children, opts)
}

// Succession plays its children one after another.
func Succession(children []Effect, opts ...Option) Effect {
	return newGroup("succession", SuccessionLag, children, opts)
}

// LaggedStart starts each child shortly after the previous one.
func LaggedStart(children []Effect, opts ...Option) Effect {
	return newGroup("lagged_start", LaggedStartLag, children, opts)
}

func newGroup(kind string, lag float64, children []Effect, opts []Option) *group {
	s := newSettings(-1, Linear, opts)
	if s.lagRatio != nil {
		lag = *s.lagRatio
	}
	g := &group{kind: kind, lag: lag, rate: s.rate, override: s.runTime}
	for _, c := range children {
		g.children = append(g.children, &slot{effect: c})
	}
	g.layout()
	return g
}

// layout places every child on the group's own clock.
func (g *group) layout() {
	cur, end := 0.0, 0.0
	for _, s := range g.children {
		rt := s.effect.RunTime()
		s.start, s.length = cur, rt
		end = math.Max(end, cur+rt)
		cur += g.lag * rt
	}
	g.natural = end
}

func (g *group) RunTime() float64 {
	if g.override >= 0 {
		return g.override
	}
	return g.natural
}

func (g *group) SetRunTime(seconds float64) { g.override = seconds }
func (g *group) SetRate(r RateFunc)         { g.rate = r }

func (g *group) Begin(st Stage) {
	g.stage = st
}

func (g *group) Interpolate(alpha float64) {
	final := alpha >= 1
	a := clamp(alpha, 0, 1)
	if g.rate != nil {
		a = g.rate(a)
	}
	t := a * g.natural
	for _, s := range g.children {
		if s.done {
			continue
		}
		if t < s.start && !final {
			// later children have not started yet either, unless lag is negative
			continue
		}
		if !s.begun {
			s.effect.Begin(g.stage)
			s.begun = true
		}
		sub := 1.0
		if s.length > 0 {
			sub = clamp((t-s.start)/s.length, 0, 1)
		}
		if final {
			sub = 1
		}
		s.effect.Interpolate(sub)
		if sub >= 1 {
			s.effect.Finish(g.stage)
			s.done = true
		}
	}
}

func (g *group) Finish(st Stage) {
	if g.stage == nil {
		g.stage = st
	}
	g.Interpolate(1)
}

func (g *group) Meta() Meta {
	m := Meta{Kind: g.kind, RunTime: g.RunTime()}
	for _, s := range g.children {
		cm := s.effect.Meta()
		m.Children = append(m.Children, cm)
		m.Targets = append(m.Targets, cm.Targets...)
	}
	return m
}
