package session

import (
	"fmt"

	"centerout/domain/core"
	"centerout/domain/geometry"
	"centerout/domain/trial"
)

// HoldSampler draws the randomized start-hold durations of a new attempt.
type HoldSampler interface {
	SampleHolds() (t1Hold1, t1Hold2 core.Millis)
}

// Config parameterizes a Controller.
type Config struct {
	Schedule     Schedule
	Timing       trial.Timing
	Policy       OvershootPolicy
	Layout       geometry.Layout
	TargetRadius float64 // acceptance radius, target size plus cursor size
	Holds        HoldSampler
}

// Validate checks the parts of the configuration the controller depends on.
func (c Config) Validate() error {
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	if _, err := ParseOvershootPolicy(string(c.Policy)); err != nil {
		return err
	}
	if c.TargetRadius <= 0 {
		return core.NewConfigError("target_radius", "must be positive")
	}
	if c.Layout.Count() == 0 {
		return core.NewConfigError("layout", "no targets")
	}
	return nil
}

// Controller sequences trials. It keeps no per-session state of its own.
type Controller struct {
	cfg Config
}

// NewController validates cfg and returns a controller for it.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Policy == "" {
		cfg.Policy = ResetOvershoots
	}
	return &Controller{cfg: cfg}, nil
}

// Config returns the controller configuration.
func (c *Controller) Config() Config { return c.cfg }

// StartSession begins a session in t1_pre of the first baseline trial. hint
// carries the target hint across sessions.
func (c *Controller) StartSession(hint int, now core.Millis) Session {
	s := Session{
		ID:         core.NewSessionID(),
		Running:    true,
		TargetHint: hint,
		LastMs:     now,
		seen:       true,
	}
	return c.newTrial(s, trial.Outward, now)
}

// EndSession stops the session. Counters and clocks are cleared and the
// phase is idle; the id and target hint survive for reporting.
func (c *Controller) EndSession(s Session) Session {
	return Session{
		ID:         s.ID,
		Done:       s.Done,
		TargetHint: s.TargetHint,
		HeldTarget: s.HeldTarget,
		Machine:    trial.State{Phase: trial.Idle},
	}
}

// Step feeds one conditioned cursor sample through the running attempt.
func (c *Controller) Step(s Session, cursor geometry.Point, now core.Millis) (Session, Report, error) {
	if s.seen && now < s.LastMs {
		return s, Report{}, core.NewNonMonotonicError(s.LastMs, now)
	}
	s.LastMs, s.seen = now, true

	if !s.Running || s.Paused {
		return s, Report{Trial: s.Trial, Intent: trial.IntentFor(trial.Idle), Done: s.Done}, nil
	}

	from := s.Machine.Phase
	res, err := trial.Step(s.Machine, s.Trial.Timing, c.zone(s.Trial), cursor, now)
	if err != nil {
		return s, Report{}, err
	}

	rep := Report{
		Trial:      s.Trial,
		From:       from,
		Phase:      res.State.Phase,
		Overshoots: res.State.Overshoots,
		Intent:     res.Intent,
		Outcome:    res.Outcome,
		Clocks:     res.State.Clocks,
		Active:     true,
	}
	if res.Outcome.Ended {
		rep.Clocks = s.Machine.Clocks
	}
	s.Machine = res.State
	s.Counters.Overshoots = res.State.Overshoots
	if res.Outcome.Ended {
		s = c.OnTrialOutcome(s, res.Outcome, now)
	}
	rep.Done = s.Done
	return s, rep, nil
}

// OnTrialOutcome applies the end of an attempt. A success advances to the
// next trial with the direction flipped; a failure retries the same trial.
func (c *Controller) OnTrialOutcome(s Session, out trial.Outcome, now core.Millis) Session {
	if !s.Running || !out.Ended {
		return s
	}
	s.Counters.Attempted++

	if !out.Success {
		carry := 0
		if out.Reason == trial.OvershootTimeout && c.cfg.Policy == CarryOvershoots {
			carry = s.Machine.Overshoots
		}
		return c.retry(s, carry, now)
	}

	s.Counters.Successful++
	if s.Trial.Direction == trial.Outward {
		s.HeldTarget = s.Trial.Target
	}
	if s.Counters.Successful >= c.cfg.Schedule.Total() {
		s.Done = true
		return c.EndSession(s)
	}
	return c.newTrial(s, s.Trial.Direction.Flip(), now)
}

// SetTargetHint records the target for the next outward trial.
func (c *Controller) SetTargetHint(s Session, index int) (Session, error) {
	if _, err := c.cfg.Layout.Target(index); err != nil {
		return s, err
	}
	s.TargetHint = index
	return s, nil
}

// OverridePhase forces the machine into p and restarts that phase's clock.
// Forcing success ends the attempt; the report then carries its outcome.
func (c *Controller) OverridePhase(s Session, p trial.Phase, now core.Millis) (Session, Report, error) {
	if !p.Valid() {
		return s, Report{}, fmt.Errorf("%w: %d", core.ErrUnknownPhase, int(p))
	}
	if !s.Running {
		return s, Report{}, core.ErrSessionNotRunning
	}
	rep := Report{
		Trial:      s.Trial,
		From:       s.Machine.Phase,
		Phase:      p,
		Overshoots: s.Machine.Overshoots,
		Intent:     trial.IntentFor(p),
		Clocks:     s.Machine.Clocks,
		Active:     true,
	}
	if p == trial.Success {
		rep.Outcome = trial.Outcome{Ended: true, Success: true}
		s.Machine.Phase = p
		s = c.OnTrialOutcome(s, rep.Outcome, now)
		rep.Done = s.Done
		return s, rep, nil
	}
	st := s.Machine
	st.Phase = p
	switch p {
	case trial.T1Hold1:
		st.Clocks.T1 = now
	case trial.Go:
		st.Clocks.React = now
	case trial.Move:
		st.Clocks.Move = now
	case trial.T2Hold1:
		st.Clocks.T2 = now
	case trial.Overshoot:
		st.Clocks.Overshoot = now
	}
	s.Machine = st
	s.Paused = p == trial.Idle
	rep.Clocks = st.Clocks
	return s, rep, nil
}

// Pause parks a running session in idle, keeping its counters.
func (c *Controller) Pause(s Session) (Session, error) {
	if !s.Running {
		return s, core.ErrSessionNotRunning
	}
	s.Paused = true
	return s, nil
}

// Resume leaves idle into a fresh attempt of the current trial.
func (c *Controller) Resume(s Session, now core.Millis) (Session, error) {
	if !s.Running {
		return s, core.ErrSessionNotRunning
	}
	if !s.Paused {
		return s, nil
	}
	s.Paused = false
	return c.retry(s, 0, now), nil
}

// Reset zeroes the counters and restarts at the first baseline trial.
func (c *Controller) Reset(s Session, now core.Millis) (Session, error) {
	if !s.Running {
		return s, core.ErrSessionNotRunning
	}
	s.Counters = Counters{}
	s.Paused = false
	s.Done = false
	return c.newTrial(s, trial.Outward, now), nil
}

// Zone resolves the start and end circles of the current trial.
func (c *Controller) Zone(t Trial) trial.Zone { return c.zone(t) }

func (c *Controller) zone(t Trial) trial.Zone {
	home := c.cfg.Layout.Home()
	ring := home
	if tgt, err := c.cfg.Layout.Target(t.Target); err == nil {
		ring = tgt.Position
	}
	if t.Direction == trial.Inward {
		return trial.Zone{Start: ring, End: home, Radius: c.cfg.TargetRadius}
	}
	return trial.Zone{Start: home, End: ring, Radius: c.cfg.TargetRadius}
}

func (c *Controller) newTrial(s Session, dir trial.Direction, now core.Millis) Session {
	typ, ok := c.cfg.Schedule.TypeFor(s.Counters.Successful)
	if !ok {
		s.Done = true
		return c.EndSession(s)
	}
	target := s.HeldTarget
	if dir == trial.Outward {
		target = s.TargetHint
	}
	s.Trial = Trial{
		ID:        core.NewTrialID(),
		Target:    target,
		Type:      typ,
		Direction: dir,
	}
	return c.retry(s, 0, now)
}

// retry starts the next attempt of the current trial. Outward attempts take
// the latest target hint; inward attempts keep the held target.
func (c *Controller) retry(s Session, overshoots int, now core.Millis) Session {
	if s.Trial.Direction == trial.Outward {
		s.Trial.Target = s.TargetHint
	}
	s.Trial.Attempt++
	s.Trial.StartMs = now
	s.Trial.Timing = c.timing()
	s.Machine = trial.Begin(overshoots)
	s.Counters.Overshoots = overshoots
	return s
}

func (c *Controller) timing() trial.Timing {
	t := c.cfg.Timing
	if c.cfg.Holds != nil {
		t.T1Hold1, t.T1Hold2 = c.cfg.Holds.SampleHolds()
	}
	return t
}
