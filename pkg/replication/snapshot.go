// Package replication mirrors a session's vehicle state to remote viewers
// over NATS. Snapshots are sent at a rate independent of the physics tick;
// receivers smooth between them instead of replaying every tick.
package replication

import (
	"encoding/json"
	"time"

	"github.com/openkart/racecore/pkg/geom"
	"github.com/openkart/racecore/pkg/session"
)

// Snapshot is one wire-format observation of a vehicle. Tick orders
// snapshots; SentAtMS lets receivers judge staleness across hosts.
type Snapshot struct {
	SessionID string     `json:"sessionId"`
	Tick      uint64     `json:"tick"`
	Position  [3]float64 `json:"pos"`
	Heading   float64    `json:"heading"`
	Speed     float64    `json:"speed"`
	TrackT    float64    `json:"t"`
	Lap       int        `json:"lap"`
	WrongWay  bool       `json:"wrongWay"`
	SentAtMS  int64      `json:"sentAtMs"`
}

// Capture reads the session's current state into a snapshot. Must run on
// the goroutine that owns the session.
func Capture(sessionID string, sess *session.Session) Snapshot {
	st := sess.State()
	return Snapshot{
		SessionID: sessionID,
		Tick:      sess.Tick(),
		Position:  [3]float64{st.Position.X, st.Position.Y, st.Position.Z},
		Heading:   st.Heading,
		Speed:     st.Speed,
		TrackT:    st.T,
		Lap:       sess.Tracker().Lap(),
		WrongWay:  st.WrongWay,
		SentAtMS:  time.Now().UnixMilli(),
	}
}

// Pos returns the snapshot position as a vector.
func (s Snapshot) Pos() geom.Vec3 {
	return geom.V3(s.Position[0], s.Position[1], s.Position[2])
}

func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	err := json.Unmarshal(data, &s)
	return s, err
}
