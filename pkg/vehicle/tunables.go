package vehicle

// Tunables are the immutable per-class physics constants. Speeds are in
// world units per fixed tick, angles in radians per tick.
type Tunables struct {
	MaxSpeed        float64 // forward cap; reverse is capped at half
	Acceleration    float64 // fixed speed gain per tick under throttle
	BrakeDecel      float64 // fixed speed loss per tick under brake/reverse
	HandbrakeFactor float64 // multiplicative hard-brake factor
	Friction        float64 // passive multiplicative decay when coasting
	Handling        float64 // base steering rate at full authority
	Grip            float64 // heading/velocity coupling; 1 means no drift
	MaxDriftAngle   float64 // hard cap on heading vs travel direction
	WheelRadius     float64 // for the render collaborator's wheel spin
}

// DefaultTunables returns the arcade road-car class.
func DefaultTunables() Tunables {
	return Tunables{
		MaxSpeed:        1.0,
		Acceleration:    0.012,
		BrakeDecel:      0.02,
		HandbrakeFactor: 0.90,
		Friction:        0.975,
		Handling:        0.05,
		Grip:            0.85,
		MaxDriftAngle:   0.7,
		WheelRadius:     0.33,
	}
}
