package signal

import (
	"fmt"
	"math"

	"centerout/domain/core"
)

// FilterKind selects the biquad response.
type FilterKind string

const (
	Lowpass  FilterKind = "lowpass"
	Highpass FilterKind = "highpass"
	Bandpass FilterKind = "bandpass"
	Notch    FilterKind = "notch"
	Peak     FilterKind = "peak"
)

// ButterworthQ is the quality factor of a second-order Butterworth section.
const ButterworthQ = 0.7071

// ParseFilterKind validates a filter kind name.
func ParseFilterKind(s string) (FilterKind, error) {
	switch k := FilterKind(s); k {
	case Lowpass, Highpass, Bandpass, Notch, Peak:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownFilterKind, s)
}

// Coefficients of one biquad section. A0..A2 weight the input (numerator),
// B1 and B2 the feedback (denominator, with an implied leading 1).
type Coefficients struct {
	A0, A1, A2 float64
	B1, B2     float64
}

// CalcBiquad computes section coefficients from the analog prototype via the
// bilinear transform. fc and fs share a unit; fc must be below fs/2.
func CalcBiquad(kind FilterKind, fc, fs, q, peakGainDB float64) (Coefficients, error) {
	if fs <= 0 || fc <= 0 {
		return Coefficients{}, core.NewConfigError("biquad", fmt.Sprintf("fc=%v fs=%v must be positive", fc, fs))
	}
	if fc >= fs/2 {
		return Coefficients{}, fmt.Errorf("%w: fc=%v fs=%v", core.ErrAboveNyquist, fc, fs)
	}
	if q <= 0 {
		return Coefficients{}, core.NewConfigError("biquad", fmt.Sprintf("q=%v must be positive", q))
	}

	v := math.Pow(10, math.Abs(peakGainDB)/20)
	k := math.Tan(math.Pi * (fc / (fs / 2)))
	var c Coefficients

	switch kind {
	case Lowpass:
		norm := 1 / (1 + k/q + k*k)
		c.A0 = k * k * norm
		c.A1 = 2 * c.A0
		c.A2 = c.A0
		c.B1 = 2 * (k*k - 1) * norm
		c.B2 = (1 - k/q + k*k) * norm
	case Highpass:
		norm := 1 / (1 + k/q + k*k)
		c.A0 = norm
		c.A1 = -2 * c.A0
		c.A2 = c.A0
		c.B1 = 2 * (k*k - 1) * norm
		c.B2 = (1 - k/q + k*k) * norm
	case Bandpass:
		norm := 1 / (1 + k/q + k*k)
		c.A0 = k / q * norm
		c.A1 = 0
		c.A2 = -c.A0
		c.B1 = 2 * (k*k - 1) * norm
		c.B2 = (1 - k/q + k*k) * norm
	case Notch:
		norm := 1 / (1 + k/q + k*k)
		c.A0 = (1 + k*k) * norm
		c.A1 = 2 * (k*k - 1) * norm
		c.A2 = c.A0
		c.B1 = c.A1
		c.B2 = (1 - k/q + k*k) * norm
	case Peak:
		if peakGainDB >= 0 {
			norm := 1 / (1 + 1/q*k + k*k)
			c.A0 = (1 + v/q*k + k*k) * norm
			c.A1 = 2 * (k*k - 1) * norm
			c.A2 = (1 - v/q*k + k*k) * norm
			c.B1 = c.A1
			c.B2 = (1 - 1/q*k + k*k) * norm
		} else {
			norm := 1 / (1 + v/q*k + k*k)
			c.A0 = (1 + 1/q*k + k*k) * norm
			c.A1 = 2 * (k*k - 1) * norm
			c.A2 = (1 - 1/q*k + k*k) * norm
			c.B1 = c.A1
			c.B2 = (1 - v/q*k + k*k) * norm
		}
	default:
		return Coefficients{}, fmt.Errorf("%w: %q", core.ErrUnknownFilterKind, kind)
	}
	return c, nil
}

// Butter returns a Butterworth low-pass section.
func Butter(fc, fs float64) (Coefficients, error) {
	return CalcBiquad(Lowpass, fc, fs, ButterworthQ, 6)
}

// Biquad is one direct-form II section. w holds w(n-2), w(n-1), w(n).
// A Biquad belongs to exactly one channel; use a separate instance per axis.
type Biquad struct {
	c Coefficients
	w [3]float64
}

// NewBiquad returns a section with a zeroed delay line.
func NewBiquad(c Coefficients) *Biquad {
	return &Biquad{c: c}
}

// Process filters one sample.
func (f *Biquad) Process(x float64) float64 {
	f.w[0], f.w[1] = f.w[1], f.w[2]
	f.w[2] = x - f.c.B1*f.w[1] - f.c.B2*f.w[0]
	return f.c.A0*f.w[2] + f.c.A1*f.w[1] + f.c.A2*f.w[0]
}

// Reset zeroes the delay line.
func (f *Biquad) Reset() {
	f.w = [3]float64{}
}

func (f *Biquad) Coefficients() Coefficients { return f.c }

// Filter runs a block through a fresh section.
func (c Coefficients) Filter(xs []float64) []float64 {
	f := NewBiquad(c)
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f.Process(x)
	}
	return out
}
