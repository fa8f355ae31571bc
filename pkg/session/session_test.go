package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkart/racecore/pkg/race"
	"github.com/openkart/racecore/pkg/track"
	"github.com/openkart/racecore/pkg/vehicle"
)

func testDefinition() *track.Definition {
	return &track.Definition{
		Name:          "test-loop",
		RoadHalfWidth: 10,
		KerbWidth:     3,
		Laps:          2,
		Points: [][3]float64{
			{0, 0, 100},
			{-100, 0, 100},
			{-100, 0, -100},
			{100, 0, -100},
			{100, 0, 100},
		},
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := FromDefinition(testDefinition(), vehicle.DefaultTunables())
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return sess
}

func TestFromDefinitionConfig(t *testing.T) {
	sess := newTestSession(t)

	cfg := sess.Config()
	assert.Equal(t, DefaultTimestep, cfg.Timestep)
	assert.InDelta(t, 10.0, cfg.RoadHalfWidth, 1e-9)
	assert.InDelta(t, 3.0, cfg.KerbWidth, 1e-9)
	assert.Equal(t, 2, cfg.TotalLaps)
	assert.Equal(t, race.StatusRacing, sess.Tracker().Status())
}

func TestAdvanceAccumulator(t *testing.T) {
	sess := newTestSession(t)
	ctl := vehicle.Controls{Throttle: true}

	// 3.5 ticks worth of wall time runs 3 ticks and banks the remainder.
	results := sess.Advance(DefaultTimestep*7/2, ctl)
	assert.Len(t, results, 3)
	assert.Equal(t, uint64(3), sess.Tick())

	// Half a tick more tips the banked remainder over one full tick.
	results = sess.Advance(DefaultTimestep/2, ctl)
	assert.Len(t, results, 1)
	assert.Equal(t, uint64(4), sess.Tick())

	results = sess.Advance(0, ctl)
	assert.Empty(t, results)
}

func TestAdvanceCapsCatchUp(t *testing.T) {
	sess := newTestSession(t)

	results := sess.Advance(10*time.Second, vehicle.Controls{Throttle: true})
	assert.Len(t, results, maxTicksPerAdvance)

	// The backlog is dropped, not carried into the next call.
	results = sess.Advance(0, vehicle.Controls{})
	assert.Empty(t, results)
}

func TestAdvanceMovesVehicle(t *testing.T) {
	sess := newTestSession(t)
	start := sess.State()

	for i := 0; i < 10; i++ {
		sess.Advance(DefaultTimestep, vehicle.Controls{Throttle: true})
	}
	st := sess.State()
	assert.Greater(t, st.Speed, 0.0)
	assert.Greater(t, st.Position.Distance(start.Position), 0.0)
}

func TestQueueTrackAppliedBetweenTicks(t *testing.T) {
	sess := newTestSession(t)

	// Drive away from the start line first.
	for i := 0; i < 120; i++ {
		sess.Step(vehicle.Controls{Throttle: true})
	}
	require.Greater(t, sess.State().Speed, 0.0)

	next := testDefinition()
	next.RoadHalfWidth = 15
	next.Points = [][3]float64{
		{0, 0, 50},
		{-50, 0, 50},
		{-50, 0, -50},
		{50, 0, -50},
		{50, 0, 50},
	}
	require.NoError(t, sess.QueueTrack(next))

	// Not applied until the next tick runs.
	assert.InDelta(t, 10.0, sess.Config().RoadHalfWidth, 1e-9)

	sess.Step(vehicle.Controls{})
	cfg := sess.Config()
	assert.InDelta(t, 15.0, cfg.RoadHalfWidth, 1e-9)

	// The swap restarted the race: vehicle back on the new start line,
	// speed dropped, lap counter rewound. The single tick after the reset
	// moves the car at most a whisker from t=0.
	st := sess.State()
	assert.InDelta(t, 0.0, st.Speed, 1e-9)
	assert.Less(t, st.Position.Distance(sess.Curve().PointAt(0)), 1.0)
	assert.Equal(t, 0, sess.Tracker().Lap())
}

func TestQueueTrackRejectsBadGeometry(t *testing.T) {
	sess := newTestSession(t)

	bad := testDefinition()
	bad.Points = [][3]float64{{0, 0, 0}, {1, 0, 0}}
	assert.Error(t, sess.QueueTrack(bad))

	// Session untouched.
	sess.Step(vehicle.Controls{})
	assert.InDelta(t, 10.0, sess.Config().RoadHalfWidth, 1e-9)
}

func TestReset(t *testing.T) {
	sess := newTestSession(t)

	for i := 0; i < 200; i++ {
		sess.Step(vehicle.Controls{Throttle: true})
	}
	require.Greater(t, sess.State().Speed, 0.0)

	sess.Reset()
	st := sess.State()
	assert.InDelta(t, 0.0, st.Speed, 1e-9)
	assert.InDelta(t, 0.0, st.T, 1e-9)
	assert.InDelta(t, 0.0, st.Position.Distance(sess.Curve().PointAt(0)), 1e-9)
	assert.Equal(t, 0, sess.Tracker().Lap())
	assert.Equal(t, race.StatusRacing, sess.Tracker().Status())
}
