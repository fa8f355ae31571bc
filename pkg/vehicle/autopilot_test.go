package vehicle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkart/racecore/pkg/geom"
)

func TestAutopilotCompletesLaps(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	it := New(tun)
	st := NewState(curve, tun)
	ap := NewAutopilot()

	laps := 0
	maxLateral := 0.0
	prevT := st.T
	for i := 0; i < 3000; i++ {
		it.Step(ap.Controls(*st, curve), st, curve, testHalfWidth)
		loc := curve.LocalizeFull(st.Position)
		maxLateral = math.Max(maxLateral, math.Abs(loc.Lateral))
		if prevT > 0.95 && st.T < 0.05 && st.Speed > 0.3 {
			laps++
		}
		prevT = st.T
		assert.False(t, st.WrongWay)
	}

	// The driver stays inside the corridor and gets around more than once.
	assert.GreaterOrEqual(t, laps, 2)
	assert.Less(t, maxLateral, testHalfWidth)
}

func TestAutopilotSteersTowardCurve(t *testing.T) {
	curve := testCurve(t)
	tun := DefaultTunables()
	st := NewState(curve, tun)
	ap := NewAutopilot()

	// Aligned with the track: no brake, steering near neutral.
	ctl := ap.Controls(*st, curve)
	assert.True(t, ctl.Throttle)
	assert.False(t, ctl.Brake)
	require.NotNil(t, ctl.Steer)
	assert.InDelta(t, 0.0, *ctl.Steer, 0.3)

	// Facing backwards: full lock plus brake.
	st.Heading = geom.NormalizeAngle(st.Heading + math.Pi)
	ctl = ap.Controls(*st, curve)
	assert.True(t, ctl.Brake)
	assert.False(t, ctl.Throttle)
	assert.InDelta(t, 1.0, math.Abs(*ctl.Steer), 1e-9)
}
