package vehicle

import (
	"math"

	"github.com/openkart/racecore/pkg/geom"
	"github.com/openkart/racecore/pkg/track"
)

const (
	defaultLookahead = 0.01
	defaultSteerGain = 4.0
	brakeThreshold   = 0.9
)

// Autopilot is a simple centerline-chasing driver used by the headless
// commands. It aims at a point slightly ahead on the curve, pulls back
// toward the centerline when offset, and lifts for sharp direction changes.
type Autopilot struct {
	lookahead float64
	steerGain float64
}

type AutopilotOption func(*Autopilot)

// WithLookahead sets how far ahead on the curve the driver aims, as a
// fraction of the loop.
func WithLookahead(f float64) AutopilotOption {
	return func(a *Autopilot) {
		if f > 0 {
			a.lookahead = f
		}
	}
}

func NewAutopilot(opts ...AutopilotOption) *Autopilot {
	ret := &Autopilot{
		lookahead: defaultLookahead,
		steerGain: defaultSteerGain,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Controls computes the next tick's input for the given state.
func (a *Autopilot) Controls(st State, curve *track.Curve) Controls {
	aim := curve.PointAt(st.T + a.lookahead)
	to := aim.Sub(st.Position)
	targetHeading := headingOf(to)
	delta := geom.AngleDelta(st.Heading, targetHeading)

	ctl := Controls{Throttle: true}
	ctl.Steer = AnalogSteer(geom.Clamp(delta*a.steerGain, -1, 1))
	if delta > brakeThreshold || delta < -brakeThreshold {
		ctl.Throttle = false
		ctl.Brake = true
	}
	return ctl
}

func headingOf(v geom.Vec3) float64 {
	return geom.NormalizeAngle(math.Atan2(v.X, v.Z))
}
