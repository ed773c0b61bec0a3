// Package geometry places the radial targets on the task canvas and holds the
// coordinate helpers shared by the conditioner and the trial machine.
package geometry

import (
	"fmt"
	"math"

	"centerout/domain/core"
)

// DefaultTargetCount is the number of radial targets on the ring.
const DefaultTargetCount = 8

// Point is a position in canvas units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Target is one radial target on the ring.
type Target struct {
	Index    int     `json:"index"`
	Angle    float64 `json:"angle"` // radians
	Position Point   `json:"position"`
}

// Layout is the precomputed ring of targets around the box centre.
type Layout struct {
	halfWidth  float64
	halfHeight float64
	radius     float64
	targets    []Target
}

// NewLayout computes n targets at angle i*2π/n on a ring of the given radius
// centred at (halfWidth, halfHeight).
func NewLayout(halfWidth, halfHeight, radius float64, n int) Layout {
	l := Layout{halfWidth: halfWidth, halfHeight: halfHeight, radius: radius}
	l.targets = make([]Target, n)
	for i := 0; i < n; i++ {
		theta := float64(i) * 2 * math.Pi / float64(n)
		l.targets[i] = Target{
			Index: i,
			Angle: theta,
			Position: Point{
				X: halfWidth + radius*math.Cos(theta),
				Y: halfHeight + radius*math.Sin(theta),
			},
		}
	}
	return l
}

// Home is the start position of an outward trial, the box centre.
func (l Layout) Home() Point {
	return Point{X: l.halfWidth, Y: l.halfHeight}
}

func (l Layout) Radius() float64 { return l.radius }
func (l Layout) Count() int       { return len(l.targets) }

// Target returns the target at index i.
func (l Layout) Target(i int) (Target, error) {
	if i < 0 || i >= len(l.targets) {
		return Target{}, fmt.Errorf("%w: %d not in [0,%d)", core.ErrTargetOutOfRange, i, len(l.targets))
	}
	return l.targets[i], nil
}

// Targets returns a copy of all targets.
func (l Layout) Targets() []Target {
	out := make([]Target, len(l.targets))
	copy(out, l.targets)
	return out
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// LinearMap maps x from the range [a, b] onto [c, d].
func LinearMap(x, a, b, c, d float64) float64 {
	return c + (x-a)*(d-c)/(b-a)
}

// Rotate turns p about centre by the given angle in degrees.
func Rotate(p, centre Point, degrees float64) Point {
	r, theta := ToPolar(p, centre)
	return FromPolar(r, theta+degrees*math.Pi/180, centre)
}

// ToPolar returns radius and angle of p with respect to centre.
func ToPolar(p, centre Point) (r, theta float64) {
	return Distance(p, centre), math.Atan2(p.Y-centre.Y, p.X-centre.X)
}

// FromPolar is the inverse of ToPolar.
func FromPolar(r, theta float64, centre Point) Point {
	return Point{X: centre.X + r*math.Cos(theta), Y: centre.Y + r*math.Sin(theta)}
}

// RangeMap converts raw device units into canvas units. Calibration values are
// used as given; Left > Right flips the axis.
type RangeMap struct {
	Left, Right float64
	Bottom, Top float64
	Width       float64
	Height      float64
	SwapAxes    bool // device x drives canvas y
}

// Apply maps a raw (x, y) device reading onto the canvas.
func (m RangeMap) Apply(x, y float64) Point {
	if m.SwapAxes {
		x, y = y, x
	}
	return Point{
		X: LinearMap(x, m.Left, m.Right, 0, m.Width),
		Y: LinearMap(y, m.Bottom, m.Top, 0, m.Height),
	}
}
