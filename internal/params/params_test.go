package params

import (
	"bytes"
	"strings"
	"testing"

	"centerout/domain/core"
	"centerout/domain/geometry"
	"centerout/domain/session"
	"centerout/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())

	tgt, err := p.Layout().Target(0)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, tgt.Position.X, 1e-9)
	assert.InDelta(t, 300.0, tgt.Position.Y, 1e-9)
	assert.Equal(t, 20.0, p.AcceptRadius())
	p.Targets.IncludeCursor = true
	assert.Equal(t, 25.0, p.AcceptRadius())

	lp, err := p.Lowpass()
	require.NoError(t, err)
	require.NotNil(t, lp)
	assert.InDelta(t, 0.6389437261127493, lp.A0, 1e-12)
}

func TestSessionConfig_AcceptRadius(t *testing.T) {
	tests := []struct {
		name          string
		includeCursor bool
		want          trial.Phase
	}{
		{"target size only", false, trial.T1Pre},
		{"cursor included", true, trial.T1Hold1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			p.Targets.IncludeCursor = tt.includeCursor
			c, err := session.NewController(p.SessionConfig())
			require.NoError(t, err)

			s := c.StartSession(0, 0)
			s, _, err = c.Step(s, geometry.Point{X: 322, Y: 300}, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Phase())
		})
	}
}

func TestDecode_OverridesDefaults(t *testing.T) {
	p, err := Decode(strings.NewReader(`
subject: S01
schedule:
  baseline: 2
  perturbation: 3
  washout: 4
timing:
  t1_hold_1_max: 900
overshoot_policy: carry
`))
	require.NoError(t, err)
	assert.Equal(t, "S01", p.Subject)
	assert.Equal(t, session.Schedule{Baseline: 2, Perturbation: 3, Washout: 4}, p.Schedule)
	assert.Equal(t, core.Millis(500), p.Timing.T1Hold1Min)
	assert.Equal(t, core.Millis(900), p.Timing.T1Hold1Max)
	assert.Equal(t, 0.1, p.Filter.Alpha)
	assert.Equal(t, session.CarryOvershoots, p.SessionConfig().Policy)
}

func TestDecode_Empty(t *testing.T) {
	p, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestDecode_Rejects(t *testing.T) {
	tests := map[string]string{
		"alpha one":       "filter:\n  alpha: 1\n",
		"alpha zero":      "filter:\n  alpha: 0\n",
		"above nyquist":   "filter:\n  lowpass:\n    cutoff: 0.5\n",
		"unknown filter":  "filter:\n  lowpass:\n    kind: comb\n",
		"unknown policy":  "overshoot_policy: keep\n",
		"empty schedule":  "schedule:\n  baseline: 0\n  perturbation: 0\n  washout: 0\n",
		"unknown field":   "rotaton_degrees: 45\n",
		"hold max < min":  "timing:\n  t1_hold_2_min: 800\n  t1_hold_2_max: 700\n",
		"non-positive go": "timing:\n  react: 0\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, core.IsConfigError(err), err.Error())
		})
	}
}

func TestDecode_DisabledLowpassSkipsNyquistCheck(t *testing.T) {
	p, err := Decode(strings.NewReader("filter:\n  lowpass:\n    enabled: false\n    cutoff: 9\n"))
	require.NoError(t, err)
	lp, err := p.Lowpass()
	require.NoError(t, err)
	assert.Nil(t, lp)
}

func TestEncode_RoundTripAndFingerprint(t *testing.T) {
	p := Default()
	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, p, back)
	assert.Equal(t, p.Fingerprint(), back.Fingerprint())

	back.RotationDegrees = 45
	assert.NotEqual(t, p.Fingerprint(), back.Fingerprint())
}

func TestHoldSampler(t *testing.T) {
	fixed := NewHoldSampler(Default().Timing, 1)
	a, b := fixed.SampleHolds()
	assert.Equal(t, core.Millis(500), a)
	assert.Equal(t, core.Millis(750), b)

	tm := Default().Timing
	tm.T1Hold1Max = 1500
	tm.T1Hold2Max = 2000
	h := NewHoldSampler(tm, 42)
	varied := false
	for i := 0; i < 200; i++ {
		a, b := h.SampleHolds()
		assert.GreaterOrEqual(t, int64(a), int64(500))
		assert.LessOrEqual(t, int64(a), int64(1500))
		assert.GreaterOrEqual(t, int64(b), int64(750))
		assert.LessOrEqual(t, int64(b), int64(2000))
		if a != 500 {
			varied = true
		}
	}
	assert.True(t, varied)

	// same seed, same draws
	x1, y1 := NewHoldSampler(tm, 7).SampleHolds()
	x2, y2 := NewHoldSampler(tm, 7).SampleHolds()
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
}
