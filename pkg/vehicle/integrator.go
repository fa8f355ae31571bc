// Package vehicle advances arcade vehicle state along a closed track
// corridor one fixed timestep at a time.
package vehicle

import (
	"math"

	"github.com/openkart/racecore/pkg/geom"
	"github.com/openkart/racecore/pkg/track"
)

const (
	speedEpsilon = 0.005 // below this magnitude speed snaps to zero
	minTurnSpeed = 0.25  // speed at which steering reaches full authority

	wrongWayDot      = -0.5
	wrongWayMinSpeed = 0.1
	wrongWayPenalty  = 0.8

	collisionPenalty = 0.85
	boundaryLerp     = 0.5
	edgeMargin       = 0.05

	kerbBaseCost       = 0.002
	kerbTurnCost       = 0.012
	kerbHandlingFactor = 0.6
	kerbRecoverTicks   = 30
)

// Integrator advances vehicle state one fixed timestep at a time. It owns
// the per-class tunables; the state and curve are owned by the caller.
type Integrator struct {
	tun         Tunables
	kerbEnabled bool
	kerbWidth   float64
}

type Option func(*Integrator)

// WithKerb enables the kerb band of the given width just outside the
// drivable half-width. Kerb contact costs speed in proportion to how hard
// the vehicle is turning and temporarily degrades handling.
func WithKerb(width float64) Option {
	return func(it *Integrator) {
		it.kerbEnabled = width > 0
		it.kerbWidth = width
	}
}

func New(tun Tunables, opts ...Option) *Integrator {
	it := &Integrator{tun: tun}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

func (it *Integrator) Tunables() Tunables {
	return it.tun
}

// StepResult is the transient per-tick summary handed to the rendering,
// audio and networking collaborators.
type StepResult struct {
	Position   geom.Vec3
	Heading    float64
	Speed      float64
	WrongWay   bool
	OnKerb     bool
	TurnInput  float64
	WheelDelta float64
}

// Step advances st by one fixed timestep. It never fails; out-of-range
// inputs are clamped and degenerate situations degrade gracefully.
func (it *Integrator) Step(
	ctl Controls,
	st *State,
	curve *track.Curve,
	roadHalfWidth float64,
) StepResult {
	tun := it.tun

	// steering-to-heading, with authority scaled down at low speed so the
	// vehicle cannot pivot in place
	turn := ctl.TurnInput()
	speedFactor := math.Min(1, math.Abs(st.Speed)/minTurnSpeed)
	st.Heading = geom.NormalizeAngle(st.Heading + turn*st.Handling*speedFactor)

	// throttle / brake / handbrake, multiplicative friction when coasting
	active := false
	if ctl.Throttle {
		st.Speed += tun.Acceleration
		active = true
	}
	if ctl.Brake {
		st.Speed -= tun.BrakeDecel
		active = true
	}
	if ctl.Handbrake {
		st.Speed *= tun.HandbrakeFactor
		active = true
	}
	if !active {
		st.Speed *= tun.Friction
	}
	st.Speed = geom.Clamp(st.Speed, -tun.MaxSpeed/2, tun.MaxSpeed)
	if math.Abs(st.Speed) < speedEpsilon {
		st.Speed = 0
	}

	// the travel direction chases the facing direction; low grip lets the
	// car slide, the drift clamp prevents spin-outs
	delta := geom.AngleDelta(st.VelocityHeading, st.Heading)
	st.VelocityHeading = geom.NormalizeAngle(
		st.VelocityHeading + delta*(1-tun.Grip))
	drift := geom.AngleDelta(st.VelocityHeading, st.Heading)
	if math.Abs(drift) > tun.MaxDriftAngle {
		capped := math.Copysign(tun.MaxDriftAngle, drift)
		st.VelocityHeading = geom.NormalizeAngle(st.Heading - capped)
	}

	st.Position = st.Position.Add(
		geom.V3(math.Sin(st.VelocityHeading), 0, math.Cos(st.VelocityHeading)).
			Scale(st.Speed))

	loc := curve.Localize(st.Position, st.T)
	st.T = loc.T

	// wrong-way: facing against the tangent while actually moving forward
	if st.Forward().Dot(loc.Tangent) < wrongWayDot && st.Speed > wrongWayMinSpeed {
		st.WrongWay = true
		st.Speed *= wrongWayPenalty
	} else {
		st.WrongWay = false
	}

	if it.kerbEnabled {
		it.applyKerb(st, loc, turn, roadHalfWidth)
	}

	it.applyBoundary(st, loc, roadHalfWidth)

	return StepResult{
		Position:   st.Position,
		Heading:    st.Heading,
		Speed:      st.Speed,
		WrongWay:   st.WrongWay,
		OnKerb:     st.OnKerb,
		TurnInput:  turn,
		WheelDelta: st.Speed / tun.WheelRadius,
	}
}

func (it *Integrator) applyKerb(
	st *State,
	loc track.Localization,
	turn, roadHalfWidth float64,
) {
	lat := math.Abs(loc.Lateral)
	st.OnKerb = lat > roadHalfWidth && lat <= roadHalfWidth+it.kerbWidth
	if st.OnKerb {
		// straight-line kerb contact costs little, turning on it costs more
		st.Speed *= 1 - (kerbBaseCost + kerbTurnCost*math.Abs(turn))
		if st.KerbTimer == 0 {
			st.Handling = it.tun.Handling * kerbHandlingFactor
		}
		st.KerbTimer = kerbRecoverTicks
	}
	if st.KerbTimer > 0 && !st.OnKerb {
		st.KerbTimer--
		if st.KerbTimer == 0 {
			st.Handling = it.tun.Handling
		}
	}
}

func (it *Integrator) applyBoundary(st *State, loc track.Localization, roadHalfWidth float64) {
	limit := roadHalfWidth
	if it.kerbEnabled {
		limit += it.kerbWidth
	}
	if math.Abs(loc.Lateral) <= limit {
		return
	}
	st.Speed *= collisionPenalty
	edge := loc.Point.Add(
		loc.Binormal.Scale(math.Copysign(limit-edgeMargin, loc.Lateral)))
	st.Position = st.Position.Lerp(edge, boundaryLerp)
}
