package replication

import (
	"sync"

	"github.com/openkart/racecore/pkg/geom"
)

// defaultSmoothing is the fraction of the remaining gap closed per Update.
const defaultSmoothing = 0.25

// RemoteVehicle renders a vehicle replicated from another host. Snapshots
// arrive slower than the local frame rate, so the displayed state chases
// the latest snapshot instead of jumping to it. Out-of-order snapshots are
// dropped by tick number.
type RemoteVehicle struct {
	mu        sync.Mutex
	smoothing float64

	position geom.Vec3
	heading  float64
	speed    float64

	target   Snapshot
	seeded   bool
}

type RemoteOption func(*RemoteVehicle)

// WithSmoothing sets the per-update chase fraction, clamped to (0, 1].
func WithSmoothing(f float64) RemoteOption {
	return func(r *RemoteVehicle) {
		if f > 0 && f <= 1 {
			r.smoothing = f
		}
	}
}

func NewRemoteVehicle(opts ...RemoteOption) *RemoteVehicle {
	ret := &RemoteVehicle{smoothing: defaultSmoothing}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Apply feeds a received snapshot. The first snapshot seeds the displayed
// state directly; later ones only move the chase target. Returns false for
// snapshots at or behind the current target tick.
func (r *RemoteVehicle) Apply(snap Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seeded && snap.Tick <= r.target.Tick {
		return false
	}
	if !r.seeded {
		r.position = snap.Pos()
		r.heading = snap.Heading
		r.speed = snap.Speed
		r.seeded = true
	}
	r.target = snap
	return true
}

// Update advances the displayed state one render frame toward the target.
func (r *RemoteVehicle) Update() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.seeded {
		return
	}
	r.position = r.position.Lerp(r.target.Pos(), r.smoothing)
	r.heading += geom.AngleDelta(r.heading, r.target.Heading) * r.smoothing
	r.heading = geom.NormalizeAngle(r.heading)
	r.speed += (r.target.Speed - r.speed) * r.smoothing
}

func (r *RemoteVehicle) Position() geom.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

func (r *RemoteVehicle) Heading() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.heading
}

func (r *RemoteVehicle) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speed
}

// Target returns the latest applied snapshot.
func (r *RemoteVehicle) Target() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target, r.seeded
}
