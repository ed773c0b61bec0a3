package trial

import (
	"encoding/json"
	"errors"
	"testing"

	"centerout/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhase_RoundTripsEveryName(t *testing.T) {
	for _, p := range Phases() {
		parsed, err := ParsePhase(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	assert.Len(t, Phases(), 9)
}

func TestParsePhase_Unknown(t *testing.T) {
	for _, name := range []string{"", "hold", "target", "reward", "T1_PRE"} {
		_, err := ParsePhase(name)
		assert.True(t, errors.Is(err, core.ErrUnknownPhase), "name %q", name)
	}
}

func TestPhase_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		P Phase `json:"p"`
	}{T2Hold1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"t2_hold_1"}`, string(b))

	var p Phase
	assert.Error(t, json.Unmarshal([]byte(`"bogus"`), &p))
	require.NoError(t, json.Unmarshal([]byte(`"overshoot"`), &p))
	assert.Equal(t, Overshoot, p)
}

func TestPhase_Terminal(t *testing.T) {
	for _, p := range Phases() {
		assert.Equal(t, p == Success, p.Terminal(), p.String())
	}
	assert.False(t, Phase(42).Valid())
}

func TestDirectionAndType(t *testing.T) {
	assert.Equal(t, Inward, Outward.Flip())
	assert.Equal(t, Outward, Inward.Flip())

	_, err := ParseDirection("sideways")
	assert.True(t, errors.Is(err, core.ErrUnknownDirection))

	typ, err := ParseType("vmr")
	require.NoError(t, err)
	assert.Equal(t, Perturbation, typ)
	_, err = ParseType("probe")
	assert.True(t, errors.Is(err, core.ErrUnknownTrialType))
}
