package vehicle

import "github.com/openkart/racecore/pkg/geom"

// Controls is the per-tick control vector produced by an input collaborator
// (keyboard, touch or gyroscope). Digital left/right are the fallback when
// no analog steer value is present.
type Controls struct {
	Throttle  bool
	Brake     bool
	Left      bool
	Right     bool
	Handbrake bool

	// Steer is an optional analog override in [-1, 1]; it takes precedence
	// over the digital left/right flags.
	Steer *float64
}

// TurnInput resolves the effective steering input in [-1, 1].
// Left is positive.
func (c Controls) TurnInput() float64 {
	if c.Steer != nil {
		return geom.Clamp(*c.Steer, -1, 1)
	}
	turn := 0.0
	if c.Left {
		turn++
	}
	if c.Right {
		turn--
	}
	return turn
}

// AnalogSteer is a convenience helper for building an analog control vector.
func AnalogSteer(v float64) *float64 {
	return &v
}
