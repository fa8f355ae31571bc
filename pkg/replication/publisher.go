package replication

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/openkart/racecore/log"
)

// DefaultSendInterval paces the wire at 20 snapshots per second.
const DefaultSendInterval = 50 * time.Millisecond

// Conn is the slice of the NATS client the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher flushes the most recent snapshot at a fixed send rate. The
// physics loop offers a snapshot every tick; ticks between flushes are
// coalesced so the wire rate stays at the configured interval regardless
// of the tick rate.
type Publisher struct {
	conn      Conn
	sessionID string
	interval  time.Duration
	latest    atomic.Pointer[Snapshot]
	done      chan struct{}
	l         *log.Logger
}

type PublisherOption func(*Publisher)

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) PublisherOption {
	return func(p *Publisher) { p.sessionID = id }
}

// WithSendInterval sets the wall-clock interval between flushes.
func WithSendInterval(d time.Duration) PublisherOption {
	return func(p *Publisher) { p.interval = d }
}

func NewPublisher(conn Conn, opts ...PublisherOption) *Publisher {
	ret := &Publisher{
		conn:      conn,
		sessionID: uuid.NewString(),
		interval:  DefaultSendInterval,
		done:      make(chan struct{}),
		l:         log.Default().Named("replication"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Publisher) SessionID() string { return p.sessionID }

// StateSubject is the NATS subject carrying a session's vehicle state.
func StateSubject(sessionID string) string {
	return fmt.Sprintf("race.%s.state", sessionID)
}

// Subject is the NATS subject this publisher sends on.
func (p *Publisher) Subject() string {
	return StateSubject(p.sessionID)
}

// Offer records the snapshot as the newest candidate for the next flush.
// Non-blocking; safe to call every tick.
func (p *Publisher) Offer(snap Snapshot) {
	p.latest.Store(&snap)
}

// Start runs the flush loop until ctx is canceled.
func (p *Publisher) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.flush()
			}
		}
	}()
}

func (p *Publisher) flush() {
	snap := p.latest.Swap(nil)
	if snap == nil {
		return
	}
	data, err := snap.Encode()
	if err != nil {
		p.l.Error("error encoding snapshot", log.ErrorField(err))
		return
	}
	if err := p.conn.Publish(p.Subject(), data); err != nil {
		p.l.Warn("error publishing snapshot",
			log.String("subject", p.Subject()), log.ErrorField(err))
	}
}

// Wait blocks until the flush loop has exited.
func (p *Publisher) Wait() {
	<-p.done
}
