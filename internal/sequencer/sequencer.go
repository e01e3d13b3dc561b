// Package sequencer batches effects and keeps the single on-screen caption.
//
// Scene scripts build effects and hand them to a Sequencer. Effects can be
// queued and later released together with one flush, so that several changes
// appear to happen at the same time. A Sequencer belongs to one scene run and
// is not safe for concurrent use.
package sequencer

import (
	"context"

	"github.com/ivlev/resultflow/internal/effects"
	"github.com/ivlev/resultflow/internal/scene"
)

// Caption placement, relative to the frame centre.
var CaptionPosition = scene.Down.Mul(2.9)

const (
	CaptionScale   = 0.4
	CaptionRunTime = 0.4
)

// PlayOptions are passed through to the presenter when a batch is flushed.
type PlayOptions struct {
	// Enqueue defers presentation to a later flush.
	Enqueue bool
	// RunTime, when positive, overrides the run time of every effect in the batch.
	RunTime float64
	// RateFunc, when set, overrides the rate of every effect in the batch.
	RateFunc effects.RateFunc

	Subcaption         string
	SubcaptionDuration float64
	SubcaptionOffset   float64
}

// Presenter plays a batch of effects simultaneously and returns once they have been presented.
type Presenter interface {
	Play(ctx context.Context, batch []effects.Effect, opts PlayOptions) error
}

type Sequencer struct {
	presenter Presenter
	queue     []effects.Effect
	caption   scene.Mobject
}

func New(p Presenter) *Sequencer {
	return &Sequencer{presenter: p}
}

// Enqueue appends effects to the pending batch.
func (s *Sequencer) Enqueue(effs ...effects.Effect) {
	s.queue = append(s.queue, effs...)
}

// Play appends effects to the pending batch and, unless opts.Enqueue is set,
// presents the whole batch at once and empties it. Presenter errors are
// returned as is; the batch is consumed either way.
func (s *Sequencer) Play(ctx context.Context, opts PlayOptions, effs ...effects.Effect) error {
	s.Enqueue(effs...)
	if opts.Enqueue {
		return nil
	}
	batch := s.queue
	s.queue = nil
	return s.presenter.Play(ctx, batch, opts)
}

// Flush presents the pending batch plus effs with default options.
func (s *Sequencer) Flush(ctx context.Context, effs ...effects.Effect) error {
	return s.Play(ctx, PlayOptions{}, effs...)
}

// Describe shows text as the caption. The first caption is written on screen;
// later ones replace the previous caption, which the transition keeps alive
// until it has been built. The reference is swapped even when the transition
// is only queued.
func (s *Sequencer) Describe(ctx context.Context, text scene.Mobject, enqueue bool) error {
	text.MoveTo(CaptionPosition)
	text.Scale(CaptionScale)

	var e effects.Effect
	if s.caption == nil {
		e = effects.Write(text, effects.WithRunTime(CaptionRunTime))
	} else {
		e = effects.ReplacementTransform(s.caption, text)
	}
	err := s.Play(ctx, PlayOptions{Enqueue: enqueue}, e)
	s.caption = text
	return err
}

// Pending returns the number of queued effects.
func (s *Sequencer) Pending() int { return len(s.queue) }

// Caption returns the current caption, or nil before the first Describe.
func (s *Sequencer) Caption() scene.Mobject { return s.caption }
