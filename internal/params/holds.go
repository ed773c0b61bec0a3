package params

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"centerout/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// cdfBound places max-min at five exponential scales, so about 99.3% of
// draws land inside the range before clipping.
const cdfBound = 5

// HoldSampler draws start-hold durations from an exponential distribution
// shifted to min and clipped at max. A range with max <= min is fixed at min.
type HoldSampler struct {
	mu    sync.Mutex
	src   rand.Source
	hold1 holdRange
	hold2 holdRange
}

type holdRange struct {
	min, max core.Millis
}

// NewHoldSampler seeds a sampler for the two start holds. seed 0 uses the
// wall clock.
func NewHoldSampler(t Timing, seed uint64) *HoldSampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &HoldSampler{
		src:   rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
		hold1: holdRange{t.T1Hold1Min, t.T1Hold1Max},
		hold2: holdRange{t.T1Hold2Min, t.T1Hold2Max},
	}
}

// SampleHolds draws one t1_hold_1 and one t1_hold_2 duration.
func (h *HoldSampler) SampleHolds() (core.Millis, core.Millis) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.draw(h.hold1), h.draw(h.hold2)
}

func (h *HoldSampler) draw(r holdRange) core.Millis {
	if r.max <= r.min {
		return r.min
	}
	beta := float64(r.max-r.min) / cdfBound
	dist := distuv.Exponential{Rate: 1 / beta, Src: h.src}
	v := math.Min(dist.Rand(), float64(r.max-r.min))
	return r.min + core.Millis(math.Round(v))
}
