package record

import (
	"strconv"
	"sync"

	"centerout/domain/core"
	"centerout/domain/trial"
)

// Columns is the export header, in order.
var Columns = []string{
	"trialID", "trialNum", "trialOvershoots", "trialPhase", "trialType",
	"trialDirection", "time", "cursorX", "cursorY", "handX", "handY",
}

// Row is one processed sample with the trial context it was judged in.
// Target and the raw device reading are kept for queries but are not part of
// the export columns.
type Row struct {
	TrialID         core.TrialID    `json:"trialID"`
	TrialNum        int             `json:"trialNum"`
	TrialOvershoots int             `json:"trialOvershoots"`
	TrialPhase      trial.Phase     `json:"trialPhase"`
	TrialType       trial.Type      `json:"trialType"`
	TrialDirection  trial.Direction `json:"trialDirection"`
	Time            core.Millis     `json:"time"`
	CursorX         float64         `json:"cursorX"`
	CursorY         float64         `json:"cursorY"`
	HandX           float64         `json:"handX"`
	HandY           float64         `json:"handY"`
	Target          int             `json:"target"`
	RawX            float64         `json:"rawX"`
	RawY            float64         `json:"rawY"`
}

// Values formats the row in Columns order.
func (r Row) Values() []string {
	return []string{
		r.TrialID.String(),
		strconv.Itoa(r.TrialNum),
		strconv.Itoa(r.TrialOvershoots),
		r.TrialPhase.String(),
		string(r.TrialType),
		string(r.TrialDirection),
		strconv.FormatInt(int64(r.Time), 10),
		formatFloat(r.CursorX),
		formatFloat(r.CursorY),
		formatFloat(r.HandX),
		formatFloat(r.HandY),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Recorder is an append-only in-memory log of rows. Safe for concurrent use.
type Recorder struct {
	mu   sync.RWMutex
	rows []Row
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append adds a row to the end of the log.
func (r *Recorder) Append(row Row) {
	r.mu.Lock()
	r.rows = append(r.rows, row)
	r.mu.Unlock()
}

// Rows returns a copy of the log.
func (r *Recorder) Rows() []Row {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Row, len(r.rows))
	copy(out, r.rows)
	return out
}

// Since returns a copy of the rows from index i on.
func (r *Recorder) Since(i int) []Row {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 {
		i = 0
	}
	if i >= len(r.rows) {
		return nil
	}
	out := make([]Row, len(r.rows)-i)
	copy(out, r.rows[i:])
	return out
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

// Reset drops every row. Called when a new session starts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.rows = nil
	r.mu.Unlock()
}
