// Package trial holds the phase machine of a single center-out attempt.
package trial

import (
	"encoding/json"
	"fmt"

	"centerout/domain/core"
)

// Phase is the stage of one trial attempt.
type Phase int

const (
	Idle Phase = iota
	T1Pre
	T1Hold1
	T1Hold2
	Go
	Move
	T2Hold1
	Overshoot
	Success
)

var phaseNames = [...]string{
	Idle:      "idle",
	T1Pre:     "t1_pre",
	T1Hold1:   "t1_hold_1",
	T1Hold2:   "t1_hold_2",
	Go:        "go",
	Move:      "move",
	T2Hold1:   "t2_hold_1",
	Overshoot: "overshoot",
	Success:   "success",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Valid reports whether p is one of the declared phases.
func (p Phase) Valid() bool {
	return p >= Idle && p <= Success
}

// Terminal reports whether p ends the trial.
func (p Phase) Terminal() bool { return p == Success }

// ParsePhase resolves a phase name. Unknown names are configuration errors.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return Idle, fmt.Errorf("%w: %q", core.ErrUnknownPhase, s)
}

// Phases lists every phase in protocol order.
func Phases() []Phase {
	out := make([]Phase, 0, len(phaseNames))
	for i := range phaseNames {
		out = append(out, Phase(i))
	}
	return out
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePhase(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
