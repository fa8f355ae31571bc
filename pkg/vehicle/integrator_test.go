package vehicle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkart/racecore/pkg/geom"
	"github.com/openkart/racecore/pkg/track"
)

const testHalfWidth = 10.0

// testCurve returns a square loop whose first control point sits on the
// middle of a straight, so a vehicle starting at t=0 faces a long straight.
func testCurve(t *testing.T) *track.Curve {
	t.Helper()
	c, err := track.NewCurve([]geom.Vec3{
		geom.V3(0, 0, 100),
		geom.V3(-100, 0, 100),
		geom.V3(-100, 0, -100),
		geom.V3(100, 0, -100),
		geom.V3(100, 0, 100),
	})
	require.NoError(t, err)
	return c
}

func TestTurnInput(t *testing.T) {
	assert.Equal(t, 0.0, Controls{}.TurnInput())
	assert.Equal(t, 1.0, Controls{Left: true}.TurnInput())
	assert.Equal(t, -1.0, Controls{Right: true}.TurnInput())
	assert.Equal(t, 0.0, Controls{Left: true, Right: true}.TurnInput())

	// analog override wins over digital and is clamped
	assert.Equal(t, 0.4, Controls{Right: true, Steer: AnalogSteer(0.4)}.TurnInput())
	assert.Equal(t, -1.0, Controls{Steer: AnalogSteer(-3)}.TurnInput())
}

func TestSpeedNeverLeavesBounds(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)

	inputs := []Controls{
		{Throttle: true},
		{Brake: true},
		{Throttle: true, Left: true},
		{Brake: true, Right: true},
		{Handbrake: true},
		{},
		{Throttle: true, Brake: true},
	}
	for i := 0; i < 2000; i++ {
		it.Step(inputs[i%len(inputs)], st, curve, testHalfWidth)
		assert.LessOrEqual(t, st.Speed, tun.MaxSpeed)
		assert.GreaterOrEqual(t, st.Speed, -tun.MaxSpeed/2)
	}
}

func TestReverseCap(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)

	for i := 0; i < 200; i++ {
		it.Step(Controls{Brake: true}, st, curve, testHalfWidth)
	}
	assert.InDelta(t, -tun.MaxSpeed/2, st.Speed, 1e-9)
}

func TestFrictionConvergesToZero(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)
	st.Speed = tun.MaxSpeed

	prev := st.Speed
	ticks := 0
	for st.Speed != 0 {
		it.Step(Controls{}, st, curve, testHalfWidth)
		ticks++
		require.Less(t, math.Abs(st.Speed), math.Abs(prev)+1e-15,
			"speed must strictly decrease while coasting")
		prev = st.Speed
		require.Less(t, ticks, 1000, "speed must reach zero in bounded time")
	}
	assert.Equal(t, 0.0, st.Speed)
}

func TestNoPivotInPlace(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)

	before := st.Heading
	it.Step(Controls{Left: true}, st, curve, testHalfWidth)
	assert.Equal(t, before, st.Heading, "steering at zero speed must not turn")
}

func TestWrongWayPenalty(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)

	st.Heading = geom.NormalizeAngle(st.Heading + math.Pi)
	st.VelocityHeading = st.Heading
	st.Speed = 0.5

	res := it.Step(Controls{Throttle: true}, st, curve, testHalfWidth)
	assert.True(t, res.WrongWay)
	assert.Less(t, st.Speed, 0.5, "wrong-way travel costs speed")
}

func TestWrongWayIgnoredWhenSlow(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)

	st.Heading = geom.NormalizeAngle(st.Heading + math.Pi)
	st.VelocityHeading = st.Heading
	st.Speed = 0.05

	res := it.Step(Controls{}, st, curve, testHalfWidth)
	assert.False(t, res.WrongWay)
}

func TestBoundaryContainment(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)

	// push the vehicle well outside the corridor
	loc := curve.Localize(st.Position, st.T)
	st.Position = loc.Point.Add(loc.Binormal.Scale(testHalfWidth + 5))
	st.Speed = 0.4
	preLateral := testHalfWidth + 5.0

	it.Step(Controls{}, st, curve, testHalfWidth)

	after := curve.Localize(st.Position, st.T)
	assert.Less(t, math.Abs(after.Lateral), preLateral,
		"the lerp response must move the vehicle back toward the corridor")
	assert.Less(t, st.Speed, 0.4, "collision costs speed")
}

func TestKerbBand(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun, WithKerb(3))
	st := NewState(curve, tun)

	// place the vehicle inside the kerb band
	loc := curve.Localize(st.Position, st.T)
	center := loc.Point
	st.Position = center.Add(loc.Binormal.Scale(testHalfWidth + 1.5))
	st.Speed = 0.8

	res := it.Step(Controls{Throttle: true, Left: true}, st, curve, testHalfWidth)
	assert.True(t, res.OnKerb)
	assert.Less(t, st.Handling, tun.Handling, "kerb contact degrades handling")
	assert.Equal(t, kerbRecoverTicks, st.KerbTimer)

	// back on the centerline the handling recovers after the countdown
	st.Position = center
	st.Speed = 0
	for i := 0; i < kerbRecoverTicks; i++ {
		assert.Less(t, st.Handling, tun.Handling)
		it.Step(Controls{}, st, curve, testHalfWidth)
	}
	assert.Equal(t, tun.Handling, st.Handling)
	assert.False(t, st.OnKerb)
}

func TestKerbCostsMoreWhileTurning(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()

	run := func(ctl Controls) float64 {
		it := New(tun, WithKerb(3))
		st := NewState(curve, tun)
		loc := curve.Localize(st.Position, st.T)
		st.Position = loc.Point.Add(loc.Binormal.Scale(testHalfWidth + 1.5))
		st.Speed = tun.MaxSpeed
		it.Step(ctl, st, curve, testHalfWidth)
		return st.Speed
	}

	straight := run(Controls{})
	turning := run(Controls{Left: true})
	assert.Less(t, turning, straight)
}

// Spec scenario: full throttle down a straight. Speed climbs monotonically
// to the cap, progress advances, and the vehicle hugs the centerline.
func TestScenarioFullThrottleStraight(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)

	prevSpeed := 0.0
	prevT := st.T
	for i := 0; i < 120; i++ {
		res := it.Step(Controls{Throttle: true}, st, curve, testHalfWidth)

		assert.GreaterOrEqual(t, res.Speed, prevSpeed, "tick %d", i)
		assert.False(t, res.WrongWay, "tick %d", i)

		// t advances (or holds within tessellation resolution), never regresses
		diff := geom.Wrap01(st.T - prevT)
		assert.Less(t, diff, 0.5, "tick %d", i)

		loc := curve.LocalizeFull(st.Position)
		assert.Less(t, math.Abs(loc.Lateral), 9.0, "tick %d", i)

		prevSpeed = res.Speed
		prevT = st.T
	}
	assert.InDelta(t, tun.MaxSpeed, st.Speed, 1e-9)
	assert.Greater(t, geom.Wrap01(st.T), 0.0)
}

// Spec scenario: sustained full throttle plus full left steer spirals the
// heading through more than a full revolution and has to hit the corridor
// boundary along the way.
func TestScenarioFullThrottleFullLeft(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)

	totalRotation := 0.0
	collided := false
	prevHeading := st.Heading
	prevSpeed := 0.0
	for i := 0; i < 300; i++ {
		res := it.Step(Controls{Throttle: true, Left: true}, st, curve, testHalfWidth)

		totalRotation += geom.AngleDelta(prevHeading, st.Heading)
		if res.Speed < prevSpeed {
			collided = true
		}
		prevHeading = st.Heading
		prevSpeed = res.Speed
	}

	assert.Greater(t, math.Abs(totalRotation), 2*math.Pi,
		"sustained steering must spiral through a full revolution")
	assert.True(t, collided,
		"sustained turning at speed must trigger a boundary speed penalty")
}
