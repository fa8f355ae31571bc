package vehicle

import (
	"math"

	"github.com/openkart/racecore/pkg/geom"
	"github.com/openkart/racecore/pkg/track"
)

// State is the mutable per-vehicle state advanced once per fixed tick.
// T is always the output of the most recent localization, never written by
// the integrator directly.
type State struct {
	Position        geom.Vec3
	Speed           float64
	Heading         float64
	VelocityHeading float64
	T               float64
	WrongWay        bool
	OnKerb          bool
	KerbTimer       int
	Handling        float64
}

// NewState places a vehicle at the start line of the given curve: t=0,
// position on the centerline, heading along the tangent.
func NewState(curve *track.Curve, tun Tunables) *State {
	s := &State{}
	s.ResetTo(curve, tun)
	return s
}

// ResetTo rewinds the state wholesale for a track change or race restart.
// Re-seeding T keeps the localizer's windowed search valid on the first
// tick after the reset.
func (s *State) ResetTo(curve *track.Curve, tun Tunables) {
	heading := curve.TangentAngleAt(0)
	*s = State{
		Position:        curve.PointAt(0),
		Heading:         heading,
		VelocityHeading: heading,
		Handling:        tun.Handling,
	}
}

// Forward returns the unit vector of the vehicle's facing direction.
func (s *State) Forward() geom.Vec3 {
	return geom.V3(math.Sin(s.Heading), 0, math.Cos(s.Heading))
}
