// Package params loads the protocol parameters of a session from YAML.
package params

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"centerout/domain/core"
	"centerout/domain/geometry"
	"centerout/domain/session"
	"centerout/domain/signal"
	"centerout/domain/trial"

	"gopkg.in/yaml.v3"
)

// Params is the full protocol description. Durations are milliseconds.
type Params struct {
	Subject         string           `yaml:"subject" json:"subject"`
	Canvas          Canvas           `yaml:"canvas" json:"canvas"`
	Targets         Targets          `yaml:"targets" json:"targets"`
	Timing          Timing           `yaml:"timing" json:"timing"`
	Schedule        session.Schedule `yaml:"schedule" json:"schedule"`
	RotationDegrees float64          `yaml:"rotation_degrees" json:"rotation_degrees"`
	Filter          Filter           `yaml:"filter" json:"filter"`
	Device          Device           `yaml:"device" json:"device"`
	OvershootPolicy string           `yaml:"overshoot_policy" json:"overshoot_policy"`
	Seed            uint64           `yaml:"seed" json:"seed"` // 0 draws from the clock
}

// Canvas is half the size of the task box; home sits at its centre.
type Canvas struct {
	HalfWidth  float64 `yaml:"half_width" json:"half_width"`
	HalfHeight float64 `yaml:"half_height" json:"half_height"`
}

type Targets struct {
	Count      int     `yaml:"count" json:"count"`
	RingRadius float64 `yaml:"ring_radius" json:"ring_radius"`
	Size       float64 `yaml:"size" json:"size"`
	CursorSize float64 `yaml:"cursor_size" json:"cursor_size"`

	// IncludeCursor widens acceptance by the cursor size.
	IncludeCursor bool `yaml:"include_cursor" json:"include_cursor"`
}

// Timing holds the phase limits. The start holds are drawn per attempt
// between their min and max.
type Timing struct {
	T1Hold1Min core.Millis `yaml:"t1_hold_1_min" json:"t1_hold_1_min"`
	T1Hold1Max core.Millis `yaml:"t1_hold_1_max" json:"t1_hold_1_max"`
	T1Hold2Min core.Millis `yaml:"t1_hold_2_min" json:"t1_hold_2_min"`
	T1Hold2Max core.Millis `yaml:"t1_hold_2_max" json:"t1_hold_2_max"`
	React      core.Millis `yaml:"react" json:"react"`
	Move       core.Millis `yaml:"move" json:"move"`
	T2Hold1    core.Millis `yaml:"t2_hold_1" json:"t2_hold_1"`
	Overshoot  core.Millis `yaml:"overshoot" json:"overshoot"`
}

type Filter struct {
	Alpha   float64 `yaml:"alpha" json:"alpha"`
	Lowpass Lowpass `yaml:"lowpass" json:"lowpass"`
}

// Lowpass configures the auxiliary biquad stream.
type Lowpass struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	Kind       string  `yaml:"kind" json:"kind"`
	Cutoff     float64 `yaml:"cutoff" json:"cutoff"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
	Q          float64 `yaml:"q" json:"q"`
	GainDB     float64 `yaml:"gain_db" json:"gain_db"`
}

// Device is the raw calibration range. Values are used as given.
type Device struct {
	Left     float64 `yaml:"left" json:"left"`
	Right    float64 `yaml:"right" json:"right"`
	Bottom   float64 `yaml:"bottom" json:"bottom"`
	Top      float64 `yaml:"top" json:"top"`
	SwapAxes bool    `yaml:"swap_axes" json:"swap_axes"`
}

// Default returns the reference protocol.
func Default() Params {
	return Params{
		Subject: "unknown",
		Canvas:  Canvas{HalfWidth: 300, HalfHeight: 300},
		Targets: Targets{Count: geometry.DefaultTargetCount, RingRadius: 200, Size: 20, CursorSize: 5},
		Timing: Timing{
			T1Hold1Min: 500, T1Hold1Max: 500,
			T1Hold2Min: 750, T1Hold2Max: 750,
			React: 1000, Move: 2000, T2Hold1: 500, Overshoot: 500,
		},
		Schedule:        session.Schedule{Baseline: 5, Perturbation: 5, Washout: 5},
		RotationDegrees: 30,
		Filter: Filter{
			Alpha: 0.1,
			Lowpass: Lowpass{
				Enabled: true, Kind: string(signal.Lowpass),
				Cutoff: 0.2, SampleRate: 1.0, Q: signal.ButterworthQ, GainDB: 6,
			},
		},
		Device:          Device{Left: 670, Right: 0, Bottom: 675, Top: 0, SwapAxes: true},
		OvershootPolicy: string(session.ResetOvershoots),
	}
}

// Load reads a params file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Params, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Params{}, fmt.Errorf("error loading params %s: %w", path, err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return Params{}, fmt.Errorf("error reading params %s: %w", path, err)
	}
	return p, nil
}

// Decode parses YAML over the defaults and validates the result.
func Decode(r io.Reader) (Params, error) {
	p := Default()
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(&p); err != nil && err != io.EOF {
		return Params{}, core.NewConfigError("params", err.Error())
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Encode writes p as YAML.
func (p Params) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}

// Fingerprint hashes the encoded parameters so exports can name the protocol
// they were produced under.
func (p Params) Fingerprint() core.Hash {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return ""
	}
	return core.NewHash(buf.Bytes())
}

// Validate rejects parameter sets the engine cannot run.
func (p Params) Validate() error {
	if err := signal.ValidateAlpha(p.Filter.Alpha); err != nil {
		return err
	}
	if p.Filter.Lowpass.Enabled {
		if _, err := p.Lowpass(); err != nil {
			return err
		}
	}
	if err := p.Schedule.Validate(); err != nil {
		return err
	}
	if _, err := session.ParseOvershootPolicy(p.OvershootPolicy); err != nil {
		return err
	}
	if p.Targets.Count <= 0 {
		return core.NewConfigError("targets.count", "must be positive")
	}
	if p.Targets.RingRadius <= 0 || p.Targets.Size <= 0 || p.Targets.CursorSize < 0 {
		return core.NewConfigError("targets", "sizes must be positive")
	}
	t := p.Timing
	for name, v := range map[string]core.Millis{
		"timing.t1_hold_1_min": t.T1Hold1Min, "timing.t1_hold_2_min": t.T1Hold2Min,
		"timing.react": t.React, "timing.move": t.Move,
		"timing.t2_hold_1": t.T2Hold1, "timing.overshoot": t.Overshoot,
	} {
		if v <= 0 {
			return core.NewConfigError(name, "must be positive")
		}
	}
	if t.T1Hold1Max != 0 && t.T1Hold1Max < t.T1Hold1Min {
		return core.NewConfigError("timing.t1_hold_1_max", "below the minimum")
	}
	if t.T1Hold2Max != 0 && t.T1Hold2Max < t.T1Hold2Min {
		return core.NewConfigError("timing.t1_hold_2_max", "below the minimum")
	}
	return nil
}

// Layout builds the target geometry.
func (p Params) Layout() geometry.Layout {
	return geometry.NewLayout(p.Canvas.HalfWidth, p.Canvas.HalfHeight, p.Targets.RingRadius, p.Targets.Count)
}

// AcceptRadius is how close the cursor centre must be to count as inside:
// the target size, plus the cursor size when include_cursor is set.
func (p Params) AcceptRadius() float64 {
	if p.Targets.IncludeCursor {
		return p.Targets.Size + p.Targets.CursorSize
	}
	return p.Targets.Size
}

// RangeMap maps raw device readings onto the canvas.
func (p Params) RangeMap() geometry.RangeMap {
	return geometry.RangeMap{
		Left: p.Device.Left, Right: p.Device.Right,
		Bottom: p.Device.Bottom, Top: p.Device.Top,
		Width: 2 * p.Canvas.HalfWidth, Height: 2 * p.Canvas.HalfHeight,
		SwapAxes: p.Device.SwapAxes,
	}
}

// BaseTiming is the phase timing with the start holds at their minimum.
func (p Params) BaseTiming() trial.Timing {
	return trial.Timing{
		T1Hold1:   p.Timing.T1Hold1Min,
		T1Hold2:   p.Timing.T1Hold2Min,
		React:     p.Timing.React,
		Move:      p.Timing.Move,
		T2Hold1:   p.Timing.T2Hold1,
		Overshoot: p.Timing.Overshoot,
	}
}

// Lowpass returns the auxiliary biquad coefficients, nil when disabled.
func (p Params) Lowpass() (*signal.Coefficients, error) {
	lp := p.Filter.Lowpass
	if !lp.Enabled {
		return nil, nil
	}
	kind, err := signal.ParseFilterKind(lp.Kind)
	if err != nil {
		return nil, err
	}
	c, err := signal.CalcBiquad(kind, lp.Cutoff, lp.SampleRate, lp.Q, lp.GainDB)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SessionConfig assembles the controller configuration.
func (p Params) SessionConfig() session.Config {
	policy, _ := session.ParseOvershootPolicy(p.OvershootPolicy)
	return session.Config{
		Schedule:     p.Schedule,
		Timing:       p.BaseTiming(),
		Policy:       policy,
		Layout:       p.Layout(),
		TargetRadius: p.AcceptRadius(),
		Holds:        NewHoldSampler(p.Timing, p.Seed),
	}
}

// Event is the params broadcast sent to observers when they connect.
func (p Params) Event() map[string]interface{} {
	return map[string]interface{}{
		"subject":             p.Subject,
		"baseline_trials":     p.Schedule.Baseline,
		"perturbation_trials": p.Schedule.Perturbation,
		"washout_trials":      p.Schedule.Washout,
		"rotation":            p.RotationDegrees,
		"ring_radius":         p.Targets.RingRadius,
		"target_size":         p.Targets.Size,
		"cursor_size":         p.Targets.CursorSize,
		"accept_radius":       p.AcceptRadius(),
		"n_targets":           p.Targets.Count,
	}
}
