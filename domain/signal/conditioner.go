package signal

import (
	"centerout/domain/geometry"
)

// Channel conditions one axis: EMA first, then an optional independent
// low-pass over the raw stream.
type Channel struct {
	ema *EMA
	aux *Biquad
}

// Process returns the smoothed value and the auxiliary low-passed value.
// aux equals x when the channel has no biquad.
func (c *Channel) Process(x float64) (smoothed, aux float64) {
	smoothed = c.ema.Update(x)
	aux = x
	if c.aux != nil {
		aux = c.aux.Process(x)
	}
	return smoothed, aux
}

func (c *Channel) reset(seed float64) {
	c.ema.Reset(seed)
	if c.aux != nil {
		c.aux.Reset()
	}
}

// Output is one conditioned sample.
type Output struct {
	Raw    geometry.Point
	Cursor geometry.Point // EMA-smoothed, consumed by the trial machine
	Aux    geometry.Point // independently low-passed stream
}

// Conditioner owns one channel per axis.
type Conditioner struct {
	x, y Channel
}

// NewConditioner builds a two-axis conditioner seeded at seed. lowpass may be
// nil to disable the auxiliary stream.
func NewConditioner(alpha float64, lowpass *Coefficients, seed geometry.Point) (*Conditioner, error) {
	ex, err := NewEMA(alpha, seed.X)
	if err != nil {
		return nil, err
	}
	ey, err := NewEMA(alpha, seed.Y)
	if err != nil {
		return nil, err
	}

	c := &Conditioner{x: Channel{ema: ex}, y: Channel{ema: ey}}
	if lowpass != nil {
		c.x.aux = NewBiquad(*lowpass)
		c.y.aux = NewBiquad(*lowpass)
	}
	return c, nil
}

// Process conditions one raw canvas-space sample.
func (c *Conditioner) Process(raw geometry.Point) Output {
	sx, ax := c.x.Process(raw.X)
	sy, ay := c.y.Process(raw.Y)
	return Output{
		Raw:    raw,
		Cursor: geometry.Point{X: sx, Y: sy},
		Aux:    geometry.Point{X: ax, Y: ay},
	}
}

// Reset clears filter memory on both axes, typically at session start.
func (c *Conditioner) Reset(seed geometry.Point) {
	c.x.reset(seed.X)
	c.y.reset(seed.Y)
}
