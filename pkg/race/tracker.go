// Package race tracks lap progress and race completion from the curve
// parameter produced by track localization.
package race

import (
	"time"

	"github.com/openkart/racecore/log"
	"github.com/openkart/racecore/pkg/utils/broadcast"
)

const (
	// lap boundary: the parameter wrapped from just below 1 to just above 0
	lapWrapHigh = 0.95
	lapWrapLow  = 0.05

	// defaultMinLapSpeed guards against counting a lap while reversing
	// across the line or after a teleport
	defaultMinLapSpeed = 0.3

	defaultTotalLaps = 3
)

type Status int

const (
	StatusRacing Status = iota
	StatusFinished
)

type EventType int

const (
	EventLapCompleted EventType = iota
	EventRaceFinished
)

// Event is delivered to UI/audio/replication subscribers on lap and race
// boundaries. Times are in milliseconds.
type Event struct {
	Type    EventType
	Lap     int
	LapMS   int64
	BestMS  int64
	TotalMS int64
	Best    bool
}

// Tracker consumes the localization parameter once per tick and detects
// corridor wraparound. It is owned by the session; CheckLap is not safe for
// concurrent use.
type Tracker struct {
	totalLaps int
	minSpeed  float64
	now       func() time.Time

	status    Status
	lap       int
	raceStart time.Time
	lapStart  time.Time
	best      time.Duration
	lapTimes  []time.Duration

	events chan Event
	bcst   broadcast.BroadcastServer[Event]
	l      *log.Logger
}

type TrackerOption func(*Tracker)

func WithTotalLaps(n int) TrackerOption {
	return func(t *Tracker) {
		if n > 0 {
			t.totalLaps = n
		}
	}
}

func WithMinLapSpeed(v float64) TrackerOption {
	return func(t *Tracker) {
		t.minSpeed = v
	}
}

// WithClock replaces the time source, used by tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		totalLaps: defaultTotalLaps,
		minSpeed:  defaultMinLapSpeed,
		now:       time.Now,
		events:    make(chan Event, 16),
		l:         log.Default().Named("race"),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.bcst = broadcast.NewBroadcastServer("race-events", t.events)
	t.Reset()
	return t
}

// Reset restarts the race: lap zero, timers re-seeded from the clock.
func (t *Tracker) Reset() {
	now := t.now()
	t.status = StatusRacing
	t.lap = 0
	t.raceStart = now
	t.lapStart = now
	t.best = 0
	t.lapTimes = nil
}

// CheckLap inspects one parameter transition and returns true when it
// completes a lap. The transition counts only if the parameter wrapped
// from the end of the loop to the start while moving forward at speed.
func (t *Tracker) CheckLap(newT, prevT, speed float64) bool {
	if t.status != StatusRacing {
		return false
	}
	if prevT <= lapWrapHigh || newT >= lapWrapLow || speed <= t.minSpeed {
		return false
	}

	now := t.now()
	lapTime := now.Sub(t.lapStart)
	t.lapStart = now
	t.lap++
	t.lapTimes = append(t.lapTimes, lapTime)

	best := t.best == 0 || lapTime < t.best
	if best {
		t.best = lapTime
	}

	t.l.Info("lap completed",
		log.Int("lap", t.lap),
		log.Duration("time", lapTime),
		log.Bool("best", best))
	t.emit(Event{
		Type:   EventLapCompleted,
		Lap:    t.lap,
		LapMS:  lapTime.Milliseconds(),
		BestMS: t.best.Milliseconds(),
		Best:   best,
	})

	if t.lap >= t.totalLaps {
		t.status = StatusFinished
		total := now.Sub(t.raceStart)
		t.l.Info("race finished",
			log.Int("laps", t.lap), log.Duration("total", total))
		t.emit(Event{
			Type:    EventRaceFinished,
			Lap:     t.lap,
			BestMS:  t.best.Milliseconds(),
			TotalMS: total.Milliseconds(),
		})
	}
	return true
}

func (t *Tracker) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
		t.l.Debug("dropping race event, queue full")
	}
}

func (t *Tracker) Status() Status { return t.status }
func (t *Tracker) Lap() int       { return t.lap }

// BestLap returns the best lap time, false before the first lap.
func (t *Tracker) BestLap() (time.Duration, bool) {
	return t.best, t.best > 0
}

// LapTimes returns a copy of the recorded lap times in order.
func (t *Tracker) LapTimes() []time.Duration {
	return append([]time.Duration(nil), t.lapTimes...)
}

// Subscribe returns a channel of lap/race events. Cancel with Unsubscribe.
func (t *Tracker) Subscribe() <-chan Event {
	return t.bcst.Subscribe()
}

func (t *Tracker) Unsubscribe(ch <-chan Event) {
	t.bcst.CancelSubscription(ch)
}

// Close shuts the event fan-out down; the tracker itself needs no cleanup.
func (t *Tracker) Close() {
	t.bcst.Close()
}
