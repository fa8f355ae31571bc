package replication

import (
	"github.com/nats-io/nats.go"

	"github.com/openkart/racecore/log"
)

// Listen subscribes to a session's state subject and feeds decoded
// snapshots into the remote vehicle. Cancel via the returned subscription.
func Listen(conn *nats.Conn, sessionID string, rv *RemoteVehicle) (*nats.Subscription, error) {
	l := log.Default().Named("replication")
	subject := StateSubject(sessionID)
	return conn.Subscribe(subject, func(msg *nats.Msg) {
		snap, err := Decode(msg.Data)
		if err != nil {
			l.Warn("error decoding snapshot",
				log.String("subject", subject), log.ErrorField(err))
			return
		}
		rv.Apply(snap)
	})
}

// ListenAll subscribes to every session's state subject and routes the
// snapshots through the registry.
func ListenAll(conn *nats.Conn, reg *SessionRegistry) (*nats.Subscription, error) {
	l := log.Default().Named("replication")
	return conn.Subscribe("race.*.state", func(msg *nats.Msg) {
		snap, err := Decode(msg.Data)
		if err != nil {
			l.Warn("error decoding snapshot",
				log.String("subject", msg.Subject), log.ErrorField(err))
			return
		}
		reg.Apply(snap)
	})
}
