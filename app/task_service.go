package app

import (
	"context"
	"sync"
	"time"

	"centerout/domain/core"
	"centerout/domain/geometry"
	"centerout/domain/record"
	"centerout/domain/session"
	"centerout/domain/signal"
	"centerout/domain/trial"
	"centerout/internal"
	"centerout/internal/errors"
	"centerout/internal/params"
	"centerout/internal/summary"
	"centerout/ports"
)

// TaskDeps are the optional collaborators of a TaskService. Nil fields are
// skipped.
type TaskDeps struct {
	Clock    ports.Clock
	Events   ports.EventPublisher
	Ledger   ports.LedgerWriterPort
	Exporter ports.RowExporter
	Targets  ports.TargetRequester
	Logger   *internal.Logger
}

// StepResult is what one raw sample produced.
type StepResult struct {
	Report   session.Report   `json:"report"`
	Hand     geometry.Point   `json:"hand"`   // conditioned position
	Cursor   geometry.Point   `json:"cursor"` // displayed position, rotated in perturbation trials
	Speed    float64          `json:"speed"`  // low-passed hand speed, px/s
	Counters session.Counters `json:"counters"`
}

// Status is a snapshot of the task.
type Status struct {
	Session  session.Session  `json:"session"`
	Phase    trial.Phase      `json:"phase"`
	Counters session.Counters `json:"counters"`
	Rows     int              `json:"rows"`
	Total    int              `json:"total"`
}

// TaskService runs the sample pipeline: range map, conditioner, rotation,
// session step, recorder. All entry points are serialized.
type TaskService struct {
	mu       sync.Mutex
	params   params.Params
	ctrl     *session.Controller
	cond     *signal.Conditioner
	rangeMap geometry.RangeMap
	home     geometry.Point
	recorder *record.Recorder
	sess     session.Session
	attempts []ports.AttemptRecord
	lastAux  geometry.Point
	lastMs   core.Millis
	offset   core.Millis // added to sample timestamps, see deviceTime
	anchored bool
	deps     TaskDeps
	logger   *internal.Logger
}

// NewTaskService validates p and wires the pipeline.
func NewTaskService(p params.Params, deps TaskDeps) (*TaskService, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid task parameters")
	}
	ctrl, err := session.NewController(p.SessionConfig())
	if err != nil {
		return nil, errors.Wrap(err, "failed to build session controller")
	}
	lowpass, err := p.Lowpass()
	if err != nil {
		return nil, errors.Wrap(err, "failed to design lowpass")
	}
	home := p.Layout().Home()
	cond, err := signal.NewConditioner(p.Filter.Alpha, lowpass, home)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build conditioner")
	}
	logger := deps.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TaskService{
		params:   p,
		ctrl:     ctrl,
		cond:     cond,
		rangeMap: p.RangeMap(),
		home:     home,
		recorder: record.NewRecorder(),
		lastAux:  home,
		deps:     deps,
		logger:   logger.With("task"),
	}, nil
}

// Params returns the protocol the service runs.
func (s *TaskService) Params() params.Params { return s.params }

// StartSession begins a new session, clearing the previous log.
func (s *TaskService) StartSession(ctx context.Context) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess.Running {
		return s.sess, errors.Wrap(core.ErrSessionRunning, "cannot start session")
	}

	hint := s.sess.TargetHint
	if s.deps.Targets != nil {
		if tgt, err := s.deps.Targets.CurrentTarget(ctx); err != nil {
			s.logger.Warn("target controller unavailable, keeping target %d: %v", hint, err)
		} else if _, err := s.ctrl.Config().Layout.Target(tgt); err == nil {
			hint = tgt
		}
	}

	s.cond.Reset(s.home)
	s.lastAux = s.home
	s.recorder.Reset()
	s.attempts = nil
	now := s.now()
	s.sess = s.ctrl.StartSession(hint, now)
	s.lastMs = now
	s.offset, s.anchored = 0, false

	s.logger.Info("session %s started, subject %s, %d trials", s.sess.ID, s.params.Subject, s.params.Schedule.Total())
	s.logger.Debug("ENTERED::%s::", s.sess.Phase())
	s.publish(ports.EventSession, map[string]interface{}{"running": true, "target": s.sess.Trial.Target})
	s.publish(ports.EventParams, s.params.Event())
	return s.sess, nil
}

// EndSession stops the running session and exports its rows. The returned
// path is empty without an exporter.
func (s *TaskService) EndSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Running {
		return "", errors.Wrap(core.ErrSessionNotRunning, "cannot end session")
	}
	s.sess = s.ctrl.EndSession(s.sess)
	return s.finish(ctx)
}

// finish exports the log of a session that just stopped.
func (s *TaskService) finish(ctx context.Context) (string, error) {
	s.logger.Info("session %s ended", s.sess.ID)
	s.publish(ports.EventSession, map[string]interface{}{"running": false, "done": s.sess.Done})
	if s.deps.Exporter == nil {
		return "", nil
	}
	path, err := s.deps.Exporter.Export(ctx, s.sess.ID.String(), s.recorder.Rows())
	if err != nil {
		return "", errors.ExportError("failed to export session rows", err)
	}
	s.logger.Info("exported %d rows to %s", s.recorder.Len(), path)
	return path, nil
}

// ProcessSample satisfies ports.SampleSink.
func (s *TaskService) ProcessSample(ctx context.Context, raw ports.RawSample) error {
	_, err := s.Process(ctx, raw)
	return err
}

// Process runs one raw sample through the pipeline. A sample without a
// timestamp is stamped with the service clock.
func (s *TaskService) Process(ctx context.Context, raw ports.RawSample) (StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := raw.TimestampMs
	if now == 0 {
		now = s.now()
	} else {
		now = s.deviceTime(now)
	}
	if now < s.lastMs {
		return StepResult{}, errors.Wrap(core.NewNonMonotonicError(s.lastMs, now), "sample rejected")
	}

	hand := s.rangeMap.Apply(raw.X, raw.Y)
	out := s.cond.Process(hand)
	speed := s.speed(out.Aux, now)
	s.lastMs = now

	cursor := out.Cursor
	if s.sess.Running && s.sess.Trial.Type == trial.Perturbation {
		cursor = geometry.Rotate(cursor, s.home, -s.params.RotationDegrees)
	}

	next, rep, err := s.ctrl.Step(s.sess, cursor, now)
	if err != nil {
		return StepResult{}, errors.Wrap(err, "step failed")
	}
	s.sess = next

	if rep.Active {
		s.recorder.Append(record.Row{
			TrialID:         rep.Trial.ID,
			TrialNum:        rep.Trial.Attempt,
			TrialOvershoots: rep.Overshoots,
			TrialPhase:      rep.Phase,
			TrialType:       rep.Trial.Type,
			TrialDirection:  rep.Trial.Direction,
			Time:            now.Since(rep.Trial.StartMs),
			CursorX:         cursor.X,
			CursorY:         cursor.Y,
			HandX:           out.Cursor.X,
			HandY:           out.Cursor.Y,
			Target:          rep.Trial.Target,
			RawX:            raw.X,
			RawY:            raw.Y,
		})
	}
	if rep.Changed() {
		s.logger.Debug("LEFT::%s::", rep.From)
		s.logger.Debug("ENTERED::%s::", rep.Phase)
		s.publish(ports.EventPhase, map[string]interface{}{
			"from": rep.From.String(), "to": rep.Phase.String(), "intent": rep.Intent,
		})
	}
	if rep.Outcome.Ended {
		s.recordAttempt(ctx, rep)
	}

	s.publish(ports.EventCursor, map[string]interface{}{
		"x":         cursor.X,
		"y":         cursor.Y,
		"speed":     speed,
		"target":    rep.Trial.Target,
		"state":     s.sess.Phase().String(),
		"direction": string(s.sess.Trial.Direction),
		"intent":    rep.Intent,
	})

	res := StepResult{Report: rep, Hand: out.Cursor, Cursor: cursor, Speed: speed, Counters: s.sess.Counters}
	if rep.Done {
		if _, err := s.finish(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

// deviceTime maps a sample timestamp onto the session time base. When the
// first timed sample of a session lags the session start, that sample and
// every later one are shifted forward by the lag.
func (s *TaskService) deviceTime(t core.Millis) core.Millis {
	if !s.anchored && s.sess.Running {
		s.anchored = true
		if t < s.lastMs {
			s.offset = s.lastMs - t
		}
	}
	return t + s.offset
}

func (s *TaskService) speed(aux geometry.Point, now core.Millis) float64 {
	dt := now.Since(s.lastMs)
	prev := s.lastAux
	s.lastAux = aux
	if dt <= 0 {
		return 0
	}
	return geometry.Distance(aux, prev) / dt.Seconds()
}

func (s *TaskService) recordAttempt(ctx context.Context, rep session.Report) {
	rec := ports.AttemptRecord{
		SessionID:  s.sess.ID,
		TrialID:    rep.Trial.ID,
		Attempt:    rep.Trial.Attempt,
		Target:     rep.Trial.Target,
		Type:       rep.Trial.Type,
		Direction:  rep.Trial.Direction,
		Success:    rep.Outcome.Success,
		Reason:     string(rep.Outcome.Reason),
		Overshoots: rep.Overshoots,
		EndedAt:    time.Now().UTC(),
	}
	if rt, ok := rep.ReactionTime(); ok {
		rec.ReactionMs = rt
	}
	if mt, ok := rep.MovementTime(); ok {
		rec.MovementMs = mt
	}
	s.attempts = append(s.attempts, rec)

	if rec.Success {
		s.logger.Info("trial %s %s/%s target %d succeeded (%d/%d)",
			rec.TrialID, rec.Type, rec.Direction, rec.Target, s.sess.Counters.Successful, s.params.Schedule.Total())
	} else {
		s.logger.Debug("trial %s attempt %d failed: %s", rec.TrialID, rec.Attempt, rec.Reason)
	}
	s.publish(ports.EventOutcome, map[string]interface{}{
		"trial_id": rec.TrialID.String(), "attempt": rec.Attempt, "success": rec.Success,
		"reason": rec.Reason, "counters": s.sess.Counters,
		"target": rec.Target, "direction": string(rec.Direction), "done": rep.Done,
	})

	if s.deps.Ledger != nil {
		if err := s.deps.Ledger.RecordAttempt(ctx, rec); err != nil {
			s.logger.Error("failed to record attempt %s: %v", rec.TrialID, err)
		}
	}
}

// HandleCommand applies an injected control message. Unknown kinds and
// phase names are rejected without touching the session.
func (s *TaskService) HandleCommand(ctx context.Context, cmd ports.Command) error {
	switch cmd.Kind {
	case ports.CommandStart:
		_, err := s.StartSession(ctx)
		return err
	case ports.CommandStop:
		_, err := s.EndSession(ctx)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now < s.lastMs {
		now = s.lastMs
	}

	var (
		next session.Session
		rep  session.Report
		err  error
	)
	switch cmd.Kind {
	case ports.CommandPhase:
		p, perr := trial.ParsePhase(cmd.Phase)
		if perr != nil {
			return errors.Wrapf(perr, "rejected phase command")
		}
		next, rep, err = s.ctrl.OverridePhase(s.sess, p, now)
	case ports.CommandTarget:
		next, err = s.ctrl.SetTargetHint(s.sess, cmd.Target)
	case ports.CommandPause:
		next, err = s.ctrl.Pause(s.sess)
	case ports.CommandResume:
		next, err = s.ctrl.Resume(s.sess, now)
	case ports.CommandReset:
		next, err = s.ctrl.Reset(s.sess, now)
	default:
		return errors.InvalidInput("unknown command " + string(cmd.Kind))
	}
	if err != nil {
		return errors.Wrapf(err, "command %s failed", cmd.Kind)
	}
	s.logger.Debug("command %s applied, phase %s", cmd.Kind, next.Phase())
	s.sess = next

	if rep.Active && rep.Changed() {
		s.publish(ports.EventPhase, map[string]interface{}{
			"from": rep.From.String(), "to": rep.Phase.String(), "intent": rep.Intent,
		})
	}
	if rep.Outcome.Ended {
		s.recordAttempt(ctx, rep)
	}
	if rep.Done {
		_, err = s.finish(ctx)
	}
	return err
}

// Status returns a snapshot of the session.
func (s *TaskService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Session:  s.sess,
		Phase:    s.sess.Phase(),
		Counters: s.sess.Counters,
		Rows:     s.recorder.Len(),
		Total:    s.params.Schedule.Total(),
	}
}

// Counters returns the session counters.
func (s *TaskService) Counters() session.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Counters
}

// Rows returns a copy of the recorder log.
func (s *TaskService) Rows() []record.Row {
	return s.recorder.Rows()
}

// RowsSince returns the rows appended after the first i.
func (s *TaskService) RowsSince(i int) []record.Row {
	return s.recorder.Since(i)
}

// Attempts returns the finished attempts of the current or last session.
func (s *TaskService) Attempts() []ports.AttemptRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.AttemptRecord, len(s.attempts))
	copy(out, s.attempts)
	return out
}

// Summary reduces the finished attempts to per-block statistics.
func (s *TaskService) Summary() summary.Summary {
	s.mu.Lock()
	id := s.sess.ID.String()
	s.mu.Unlock()
	return summary.Build(id, s.Attempts())
}

func (s *TaskService) now() core.Millis {
	if s.deps.Clock != nil {
		return s.deps.Clock.NowMs()
	}
	return core.Millis(time.Now().UnixMilli())
}

func (s *TaskService) publish(typ string, data map[string]interface{}) {
	if s.deps.Events == nil {
		return
	}
	s.deps.Events.Publish(ports.TaskEvent{
		SessionID: s.sess.ID.String(),
		Type:      typ,
		Data:      data,
		Timestamp: time.Now(),
	})
}

var _ ports.SampleSink = (*TaskService)(nil)
