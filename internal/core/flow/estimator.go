// Package flow estimates a before/after transition graph from two marginal
// tables that share no join key.
//
// The estimate assumes independence: the share of a Before bucket that moves
// to an After bucket equals that After bucket's share of the total. It is an
// approximation, not a reconstruction of per-user paths, and every edge says so
// in its annotation.
package flow

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// State is the terminal classification of one estimation pass.
type State string

const (
	StateInsufficient State = "insufficient"
	StateDegenerate   State = "degenerate"
	StateAllZero      State = "all_zero"
	StateEstimated    State = "estimated"

	stateValidating = "validating"
	stateEstimating = "estimating"
)

const (
	eventInsufficient = "insufficient"
	eventDegenerate   = "degenerate"
	eventEstimate     = "estimate"
	eventAllZero      = "all_zero"
	eventEstimated    = "estimated"
)

// Result carries the terminal state plus whatever the caller can draw for it:
// Graph when Estimated, Comparison when Insufficient.
type Result struct {
	State      State
	Mode       Mode
	Graph      *Graph
	Comparison []ComparisonRow
}

type Estimator struct {
	Logger *logrus.Entry
}

func NewEstimator(logger *logrus.Entry) *Estimator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Estimator{Logger: logger}
}

func (e *Estimator) lifecycle() *fsm.FSM {
	return fsm.NewFSM(
		stateValidating,
		fsm.Events{
			{Name: eventInsufficient, Src: []string{stateValidating}, Dst: string(StateInsufficient)},
			{Name: eventDegenerate, Src: []string{stateValidating}, Dst: string(StateDegenerate)},
			{Name: eventEstimate, Src: []string{stateValidating}, Dst: stateEstimating},
			{Name: eventAllZero, Src: []string{stateEstimating}, Dst: string(StateAllZero)},
			{Name: eventEstimated, Src: []string{stateEstimating}, Dst: string(StateEstimated)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, ev *fsm.Event) {
				e.Logger.WithFields(logrus.Fields{"from": ev.Src, "to": ev.Dst}).Debug("flow estimation transition")
			},
		},
	)
}

// Estimate builds the flow graph for before → after under mode.
//
// The returned error is nil only for StateEstimated; otherwise it wraps
// ErrInsufficient, ErrDegenerate or ErrAllZero and Result.State names the same
// condition.
func (e *Estimator) Estimate(ctx context.Context, before, after *Marginal, mode Mode) (Result, error) {
	if mode != PreserveAfter {
		mode = PreserveBefore
	}
	machine := e.lifecycle()
	res := Result{Mode: mode}

	finish := func(event string, state State, cause error) (Result, error) {
		if err := machine.Event(ctx, event); err != nil {
			return res, fmt.Errorf("flow lifecycle %s: %w", event, err)
		}
		res.State = state
		return res, cause
	}

	if before.Len() == 0 || after.Len() == 0 {
		res.Comparison = Compare(before, after)
		return finish(eventInsufficient, StateInsufficient, fmt.Errorf("%w: %s", ErrInsufficient, missingSides(before, after)))
	}

	beforeTotal, afterTotal := before.Total(), after.Total()
	if mode == PreserveBefore && afterTotal == 0 {
		return finish(eventDegenerate, StateDegenerate, fmt.Errorf("%w: after total is 0", ErrDegenerate))
	}
	if mode == PreserveAfter && beforeTotal == 0 {
		return finish(eventDegenerate, StateDegenerate, fmt.Errorf("%w: before total is 0", ErrDegenerate))
	}
	if err := machine.Event(ctx, eventEstimate); err != nil {
		return res, fmt.Errorf("flow lifecycle %s: %w", eventEstimate, err)
	}

	beforeLabels, afterLabels := before.Labels(), after.Labels()
	printer := message.NewPrinter(language.English)
	var edges []Edge
	for _, b := range beforeLabels {
		bMass := before.Mass(b)
		for _, a := range afterLabels {
			aMass := after.Mass(a)
			var w float64
			if mode == PreserveBefore {
				w = bMass * (aMass / afterTotal)
			} else {
				w = aMass * (bMass / beforeTotal)
			}
			if w <= 0 {
				continue
			}
			edges = append(edges, Edge{Source: b, Target: a, Weight: w, Annotation: annotate(printer, b, a, w)})
		}
	}

	if len(edges) == 0 {
		return finish(eventAllZero, StateAllZero, fmt.Errorf("%w: %d×%d pairs", ErrAllZero, len(beforeLabels), len(afterLabels)))
	}

	res.Graph = &Graph{Mode: mode, Before: beforeLabels, After: afterLabels, Edges: edges}
	return finish(eventEstimated, StateEstimated, nil)
}

func annotate(p *message.Printer, before, after string, w float64) string {
	return p.Sprintf("%s → %s\nUsers (approx.): %.0f\nEstimated from before/after totals assuming independence; not an observed per-user count.", before, after, w)
}

func missingSides(before, after *Marginal) string {
	switch {
	case before.Len() == 0 && after.Len() == 0:
		return "before and after are both empty"
	case before.Len() == 0:
		return "before is empty"
	default:
		return "after is empty"
	}
}
