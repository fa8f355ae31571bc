package replication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreatesSessionOnFirstSnapshot(t *testing.T) {
	reg := NewSessionRegistry()

	snap := testSnapshot(1)
	rv := reg.Apply(snap)
	require.NotNil(t, rv)

	got, err := reg.Get("s1")
	require.NoError(t, err)
	assert.Same(t, rv, got)
	assert.ElementsMatch(t, []string{"s1"}, reg.SessionIDs())

	_, err = reg.Get("unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistryRoutesBySessionID(t *testing.T) {
	reg := NewSessionRegistry()

	a := testSnapshot(1)
	b := testSnapshot(1)
	b.SessionID = "s2"
	b.Heading = 1.5

	rvA := reg.Apply(a)
	rvB := reg.Apply(b)
	assert.NotSame(t, rvA, rvB)
	assert.InDelta(t, 0.5, rvA.Heading(), 1e-9)
	assert.InDelta(t, 1.5, rvB.Heading(), 1e-9)
}

func TestRegistryEvictsStaleSessions(t *testing.T) {
	clock := &fakeNow{t: time.UnixMilli(0)}
	reg := NewSessionRegistry(
		WithStaleDuration(10*time.Second),
		WithRegistryClock(clock.now))

	reg.Apply(testSnapshot(1))
	clock.t = clock.t.Add(5 * time.Second)
	fresh := testSnapshot(1)
	fresh.SessionID = "s2"
	reg.Apply(fresh)

	clock.t = clock.t.Add(6 * time.Second)
	evicted := reg.EvictStale()
	assert.Equal(t, []string{"s1"}, evicted)
	assert.ElementsMatch(t, []string{"s2"}, reg.SessionIDs())

	clock.t = clock.t.Add(time.Hour)
	assert.Equal(t, []string{"s2"}, reg.EvictStale())
	assert.Empty(t, reg.SessionIDs())
}

func TestRegistryRemoveAndClear(t *testing.T) {
	reg := NewSessionRegistry()
	reg.Apply(testSnapshot(1))
	other := testSnapshot(1)
	other.SessionID = "s2"
	reg.Apply(other)

	reg.Remove("s1")
	assert.ElementsMatch(t, []string{"s2"}, reg.SessionIDs())
	reg.Clear()
	assert.Empty(t, reg.SessionIDs())
}

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }
