package watch

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/openkart/racecore/log"
	"github.com/openkart/racecore/pkg/config"
	"github.com/openkart/racecore/pkg/replication"
	"github.com/openkart/racecore/pkg/utils"
)

var (
	staleDuration string
	reportEvery   string
)

func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "follows all live sessions on the NATS server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch()
		},
	}
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		nats.DefaultURL,
		"URL of the NATS server")
	cmd.Flags().StringVar(&config.WaitForNats,
		"wait-for-nats",
		"15s",
		"Duration to wait for the NATS server to be ready")
	cmd.Flags().StringVar(&staleDuration,
		"stale-duration",
		"1m",
		"session is removed if no snapshot was received for this duration")
	cmd.Flags().StringVar(&reportEvery,
		"report-every",
		"1s",
		"interval between session reports")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func setupLogger() *log.Logger {
	switch config.LogFormat {
	case "json":
		return log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		return log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
}

//nolint:funlen // by design
func runWatch() error {
	log.ResetDefault(setupLogger())

	if timeout, err := time.ParseDuration(config.WaitForNats); err == nil && timeout > 0 {
		if addr := utils.ExtractFromNatsURL(config.NatsURL); addr != "" {
			if wErr := utils.WaitForTCP(addr, timeout); wErr != nil {
				log.Warn("NATS server not reachable yet", log.ErrorField(wErr))
			}
		}
	}

	conn, err := nats.Connect(config.NatsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1))
	if err != nil {
		return err
	}
	defer conn.Close()

	stale, err := time.ParseDuration(staleDuration)
	if err != nil {
		stale = replication.DefaultStaleDuration
	}
	reg := replication.NewSessionRegistry(replication.WithStaleDuration(stale))
	sub, err := replication.ListenAll(conn, reg)
	if err != nil {
		return err
	}
	//nolint:errcheck // shutting down anyway
	defer sub.Unsubscribe()

	interval, err := time.ParseDuration(reportEvery)
	if err != nil || interval <= 0 {
		interval = time.Second
	}
	report := time.NewTicker(interval)
	defer report.Stop()
	render := time.NewTicker(50 * time.Millisecond)
	defer render.Stop()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching sessions", log.String("natsUrl", config.NatsURL))
	for {
		select {
		case <-ctx.Done():
			log.Info("watch terminated")
			return nil
		case <-render.C:
			reg.UpdateAll()
		case <-report.C:
			for _, id := range reg.EvictStale() {
				log.Info("session went stale", log.String("sessionId", id))
			}
			for _, id := range reg.SessionIDs() {
				rv, gErr := reg.Get(id)
				if gErr != nil {
					continue
				}
				snap, ok := rv.Target()
				if !ok {
					continue
				}
				pos := rv.Position()
				log.Info("session",
					log.String("sessionId", id),
					log.Int("lap", snap.Lap),
					log.Float("t", snap.TrackT),
					log.Float("speed", rv.Speed()),
					log.Float("x", pos.X),
					log.Float("z", pos.Z),
					log.Bool("wrongWay", snap.WrongWay))
			}
		}
	}
}
