// Package track models the closed track centerline and the track-relative
// localization of world positions against it.
package track

import (
	"errors"
	"math"

	"github.com/openkart/racecore/pkg/geom"
)

const (
	// DefaultTension is the cardinal spline tension; 0 yields the classic
	// Catmull-Rom shape, 1 degenerates toward straight segments.
	DefaultTension = 0.5

	// DefaultDivisions is the cached tessellation resolution.
	DefaultDivisions = 400
)

var ErrTooFewPoints = errors.New("track: need at least 3 control points")

// Curve is a closed cardinal spline through an ordered set of control
// points. It is immutable after construction; a track change replaces the
// whole curve.
type Curve struct {
	points    []geom.Vec3
	tension   float64
	divisions int
	samples   []sample
}

type sample struct {
	point   geom.Vec3
	tangent geom.Vec3
}

type CurveOption func(*Curve)

func WithTension(tension float64) CurveOption {
	return func(c *Curve) {
		c.tension = geom.Clamp(tension, 0, 1)
	}
}

func WithDivisions(divisions int) CurveOption {
	return func(c *Curve) {
		if divisions > 0 {
			c.divisions = divisions
		}
	}
}

// NewCurve builds a closed curve through the given control points. The last
// segment connects the final point back to the first.
func NewCurve(points []geom.Vec3, opts ...CurveOption) (*Curve, error) {
	if len(points) < 3 {
		return nil, ErrTooFewPoints
	}
	c := &Curve{
		points:    append([]geom.Vec3(nil), points...),
		tension:   DefaultTension,
		divisions: DefaultDivisions,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tessellate()
	return c, nil
}

// Divisions returns the cached tessellation resolution.
func (c *Curve) Divisions() int {
	return c.divisions
}

// ControlPoints returns a copy of the control point sequence.
func (c *Curve) ControlPoints() []geom.Vec3 {
	return append([]geom.Vec3(nil), c.points...)
}

// PointAt evaluates the curve at normalized parameter t, wrapping t into
// [0, 1).
func (c *Curve) PointAt(t float64) geom.Vec3 {
	p, _ := c.eval(t)
	return p
}

// TangentAt returns the normalized first-derivative direction at t.
func (c *Curve) TangentAt(t float64) geom.Vec3 {
	_, tan := c.eval(t)
	return tan
}

// TangentAngleAt returns the heading angle (radians, atan2(x, z)) of the
// tangent at t, matching the vehicle heading convention.
func (c *Curve) TangentAngleAt(t float64) float64 {
	tan := c.TangentAt(t)
	return math.Atan2(tan.X, tan.Z)
}

func (c *Curve) eval(t float64) (point, tangent geom.Vec3) {
	n := len(c.points)
	u := geom.Wrap01(t) * float64(n)
	seg := int(math.Floor(u))
	if seg >= n {
		seg = n - 1
	}
	u -= float64(seg)

	p0 := c.points[(seg-1+n)%n]
	p1 := c.points[seg]
	p2 := c.points[(seg+1)%n]
	p3 := c.points[(seg+2)%n]

	s := (1 - c.tension) / 2
	m1 := p2.Sub(p0).Scale(s)
	m2 := p3.Sub(p1).Scale(s)

	u2 := u * u
	u3 := u2 * u

	point = p1.Scale(2*u3 - 3*u2 + 1).
		Add(m1.Scale(u3 - 2*u2 + u)).
		Add(p2.Scale(-2*u3 + 3*u2)).
		Add(m2.Scale(u3 - u2))

	deriv := p1.Scale(6*u2 - 6*u).
		Add(m1.Scale(3*u2 - 4*u + 1)).
		Add(p2.Scale(-6*u2 + 6*u)).
		Add(m2.Scale(3*u2 - 2*u))

	tangent = deriv.Normalize()
	if tangent.LenSq() == 0 {
		// degenerate control geometry is rejected at load time; keep the
		// evaluator total anyway
		tangent = geom.V3(0, 0, 1)
	}
	return point, tangent
}

// Length approximates the curve length from the cached tessellation.
func (c *Curve) Length() float64 {
	total := 0.0
	for i := range c.samples {
		next := c.samples[(i+1)%len(c.samples)]
		total += c.samples[i].point.Distance(next.point)
	}
	return total
}

func (c *Curve) tessellate() {
	c.samples = make([]sample, c.divisions)
	for i := 0; i < c.divisions; i++ {
		t := float64(i) / float64(c.divisions)
		p, tan := c.eval(t)
		c.samples[i] = sample{point: p, tangent: tan}
	}
}
