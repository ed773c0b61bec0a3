package trial

import (
	"fmt"

	"centerout/domain/core"
	"centerout/domain/geometry"
)

// Timing holds the phase limits of one attempt. Hold limits are measured from
// t1_hold_1 entry, so t1_hold_2 ends at T1Hold1+T1Hold2.
type Timing struct {
	T1Hold1   core.Millis `json:"t1_hold_1"`
	T1Hold2   core.Millis `json:"t1_hold_2"`
	React     core.Millis `json:"react"`
	Move      core.Millis `json:"move"`
	T2Hold1   core.Millis `json:"t2_hold_1"`
	Overshoot core.Millis `json:"overshoot"`
}

// Zone is the pair of circles one attempt moves between.
type Zone struct {
	Start  geometry.Point
	End    geometry.Point
	Radius float64
}

// InStart uses a strict comparison: a cursor exactly on the rim is outside.
func (z Zone) InStart(p geometry.Point) bool {
	return geometry.Distance(p, z.Start) < z.Radius
}

func (z Zone) InEnd(p geometry.Point) bool {
	return geometry.Distance(p, z.End) < z.Radius
}

// Clocks are the phase entry times of the current attempt.
type Clocks struct {
	T1        core.Millis `json:"t1"`
	React     core.Millis `json:"react"`
	Move      core.Millis `json:"move"`
	T2        core.Millis `json:"t2"`
	Arrive    core.Millis `json:"arrive"` // first t2_hold_1 entry
	Overshoot core.Millis `json:"overshoot"`
}

// State is the part of the session the machine reads and rewrites.
type State struct {
	Phase      Phase  `json:"phase"`
	Clocks     Clocks `json:"clocks"`
	Overshoots int    `json:"overshoots"`
}

// Begin returns the state of a fresh attempt waiting in t1_pre.
func Begin(overshoots int) State {
	return State{Phase: T1Pre, Overshoots: overshoots}
}

// Result of one step.
type Result struct {
	State   State
	Intent  RenderIntent
	Outcome Outcome
}

// Step advances the machine by one conditioned sample. It has no side
// effects; a failed attempt comes back in t1_pre with Outcome.Ended set and the
// caller decides how the next attempt starts. Timeouts compare with a strict
// '>', so a sample exactly at a limit is judged by the acquisition check.
func Step(st State, timing Timing, zone Zone, cursor geometry.Point, now core.Millis) (Result, error) {
	var out Outcome
	inStart := zone.InStart(cursor)
	inEnd := zone.InEnd(cursor)

	fail := func(r FailReason) {
		out = failed(r)
		st = State{Phase: T1Pre, Overshoots: st.Overshoots}
	}
	enterOvershoot := func() {
		st.Phase = Overshoot
		st.Overshoots++
		st.Clocks.Overshoot = now
	}

	switch st.Phase {
	case Idle:

	case T1Pre:
		if inStart {
			st.Phase = T1Hold1
			st.Clocks.T1 = now
		}

	case T1Hold1:
		elapsed := now.Since(st.Clocks.T1)
		switch {
		case elapsed > timing.T1Hold1 && inStart:
			st.Phase = T1Hold2
		case elapsed > timing.T1Hold1:
			fail(LeftStartOnCue)
		case !inStart:
			fail(LeftStartEarly)
		}

	case T1Hold2:
		elapsed := now.Since(st.Clocks.T1)
		switch {
		case elapsed > timing.T1Hold1+timing.T1Hold2 && inStart:
			st.Phase = Go
			st.Clocks.React = now
		case elapsed > timing.T1Hold1+timing.T1Hold2:
			fail(LeftStartOnCue)
		case !inStart:
			fail(LeftStartEarly)
		}

	case Go:
		elapsed := now.Since(st.Clocks.React)
		switch {
		case elapsed > timing.React && inStart:
			fail(ReactionTimeout)
		case !inStart:
			st.Phase = Move
			st.Clocks.Move = now
		}

	case Move:
		elapsed := now.Since(st.Clocks.Move)
		switch {
		case inEnd:
			st.Phase = T2Hold1
			st.Clocks.T2 = now
			st.Clocks.Arrive = now
		case elapsed > timing.Move:
			fail(MovementTimeout)
		}

	case T2Hold1:
		elapsed := now.Since(st.Clocks.T2)
		switch {
		case elapsed > timing.T2Hold1 && inEnd:
			st.Phase = Success
			out = succeeded()
		case !inEnd:
			enterOvershoot()
		}

	case Overshoot:
		elapsed := now.Since(st.Clocks.Overshoot)
		switch {
		case inEnd:
			st.Phase = T2Hold1
			st.Clocks.T2 = now
		case elapsed > timing.Overshoot:
			fail(OvershootTimeout)
		}

	case Success:
		// terminal; the session starts the next trial

	default:
		return Result{}, fmt.Errorf("%w: %d", core.ErrUnknownPhase, int(st.Phase))
	}

	return Result{State: st, Intent: IntentFor(st.Phase), Outcome: out}, nil
}

// IntentFor maps a phase to what the renderer should show.
func IntentFor(p Phase) RenderIntent {
	switch p {
	case T1Pre:
		return RenderIntent{Phase: p, Start: "orange", Cursor: "white"}
	case T1Hold1, T1Hold2:
		return RenderIntent{Phase: p, Start: "cyan", Cursor: "gold"}
	case Go, Move:
		return RenderIntent{Phase: p, Start: "black", Cursor: "dodgerblue"}
	case T2Hold1:
		return RenderIntent{Phase: p, Highlight: true, Start: "black", Cursor: "gold"}
	case Overshoot:
		return RenderIntent{Phase: p, Start: "black", Cursor: "red"}
	case Success:
		return RenderIntent{Phase: p, Start: "black", Cursor: "white"}
	default:
		return RenderIntent{Phase: Idle, Start: "white", Cursor: "white"}
	}
}
