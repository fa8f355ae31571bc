// Package session owns the live race world: one track curve, one vehicle
// state and one lap tracker, advanced on a fixed physics timestep that is
// decoupled from the caller's frame rate.
package session

import (
	"sync/atomic"
	"time"

	"github.com/openkart/racecore/log"
	"github.com/openkart/racecore/pkg/race"
	"github.com/openkart/racecore/pkg/track"
	"github.com/openkart/racecore/pkg/vehicle"
)

const (
	// DefaultTimestep is the fixed physics tick.
	DefaultTimestep = time.Second / 60

	// maxTicksPerAdvance caps catch-up work after a long stall so one slow
	// frame cannot snowball into a death spiral.
	maxTicksPerAdvance = 30
)

// Config carries the corridor and race parameters of the loaded track.
type Config struct {
	Timestep      time.Duration
	RoadHalfWidth float64
	KerbWidth     float64 // 0 disables the kerb band
	TotalLaps     int
}

type pendingSwap struct {
	curve         *track.Curve
	roadHalfWidth float64
	kerbWidth     float64
}

// Session is single-owner: all methods except QueueTrack must be called
// from the goroutine driving Advance.
type Session struct {
	cfg     Config
	curve   *track.Curve
	integ   *vehicle.Integrator
	state   *vehicle.State
	tracker *race.Tracker

	accumulator time.Duration
	tick        uint64
	pending     atomic.Pointer[pendingSwap]
	l           *log.Logger
}

// New creates a session with the vehicle placed at the start line.
func New(curve *track.Curve, tun vehicle.Tunables, cfg Config) *Session {
	if cfg.Timestep <= 0 {
		cfg.Timestep = DefaultTimestep
	}
	if cfg.RoadHalfWidth <= 0 {
		cfg.RoadHalfWidth = 10
	}
	var opts []vehicle.Option
	if cfg.KerbWidth > 0 {
		opts = append(opts, vehicle.WithKerb(cfg.KerbWidth))
	}
	var trackerOpts []race.TrackerOption
	if cfg.TotalLaps > 0 {
		trackerOpts = append(trackerOpts, race.WithTotalLaps(cfg.TotalLaps))
	}
	return &Session{
		cfg:     cfg,
		curve:   curve,
		integ:   vehicle.New(tun, opts...),
		state:   vehicle.NewState(curve, tun),
		tracker: race.NewTracker(trackerOpts...),
		l:       log.Default().Named("session"),
	}
}

// FromDefinition builds the curve from a track definition and derives the
// corridor/race config from its fields.
func FromDefinition(def *track.Definition, tun vehicle.Tunables) (*Session, error) {
	curve, err := def.Build()
	if err != nil {
		return nil, err
	}
	return New(curve, tun, Config{
		RoadHalfWidth: def.RoadHalfWidth,
		KerbWidth:     def.KerbWidth,
		TotalLaps:     def.Laps,
	}), nil
}

// Advance accumulates elapsed wall time and runs zero or more fixed ticks
// with the given controls. It returns the results of the ticks it ran.
func (s *Session) Advance(elapsed time.Duration, ctl vehicle.Controls) []vehicle.StepResult {
	s.applyPending()

	s.accumulator += elapsed
	var results []vehicle.StepResult
	for s.accumulator >= s.cfg.Timestep && len(results) < maxTicksPerAdvance {
		s.accumulator -= s.cfg.Timestep
		results = append(results, s.step(ctl))
	}
	if s.accumulator >= s.cfg.Timestep {
		// drop the backlog instead of spiraling
		s.accumulator = 0
	}
	return results
}

// Step runs exactly one fixed tick, for callers that drive the timestep
// themselves.
func (s *Session) Step(ctl vehicle.Controls) vehicle.StepResult {
	s.applyPending()
	return s.step(ctl)
}

func (s *Session) step(ctl vehicle.Controls) vehicle.StepResult {
	prevT := s.state.T
	res := s.integ.Step(ctl, s.state, s.curve, s.cfg.RoadHalfWidth)
	s.tracker.CheckLap(s.state.T, prevT, s.state.Speed)
	s.tick++
	return res
}

// QueueTrack schedules a track swap. The swap is applied atomically before
// the next tick, never mid-step; it resets the vehicle to the new start
// line and restarts the race. Safe to call from another goroutine.
func (s *Session) QueueTrack(def *track.Definition) error {
	curve, err := def.Build()
	if err != nil {
		return err
	}
	s.pending.Store(&pendingSwap{
		curve:         curve,
		roadHalfWidth: def.RoadHalfWidth,
		kerbWidth:     def.KerbWidth,
	})
	return nil
}

func (s *Session) applyPending() {
	swap := s.pending.Swap(nil)
	if swap == nil {
		return
	}
	s.curve = swap.curve
	if swap.roadHalfWidth > 0 {
		s.cfg.RoadHalfWidth = swap.roadHalfWidth
	}
	s.cfg.KerbWidth = swap.kerbWidth
	s.Reset()
	s.l.Info("track swapped",
		log.Float("roadHalfWidth", s.cfg.RoadHalfWidth),
		log.Int("divisions", s.curve.Divisions()))
}

// Reset restarts the race on the current track. Re-seats the vehicle at
// t=0, which also re-seeds the localizer's search hint.
func (s *Session) Reset() {
	s.state.ResetTo(s.curve, s.integ.Tunables())
	s.tracker.Reset()
	s.accumulator = 0
}

// State returns a copy of the vehicle state for read-only collaborators.
func (s *Session) State() vehicle.State {
	return *s.state
}

func (s *Session) Curve() *track.Curve    { return s.curve }
func (s *Session) Tracker() *race.Tracker { return s.tracker }
func (s *Session) Tick() uint64           { return s.tick }
func (s *Session) Config() Config         { return s.cfg }

// Close releases the lap tracker's event fan-out.
func (s *Session) Close() {
	s.tracker.Close()
}
