package serve

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
	"github.com/openkart/racecore/pkg/session"
	"github.com/openkart/racecore/pkg/track"
	"github.com/openkart/racecore/pkg/utils"
	"github.com/openkart/racecore/pkg/vehicle"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "runs a race session and replicates its state via NATS",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
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
	cmd.Flags().StringVar(&config.SessionID,
		"session-id",
		"",
		"session id to publish under (generated when empty)")
	cmd.Flags().IntVar(&config.SendRateHz,
		"send-rate",
		20,
		"snapshot send rate in Hz")
	cmd.Flags().IntVar(&config.TickRate,
		"tick-rate",
		60,
		"physics ticks per second")
	cmd.Flags().BoolVar(&config.WatchTrack,
		"watch-track",
		false,
		"reload the track file when it changes")
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

func waitForNats() {
	timeout, err := time.ParseDuration(config.WaitForNats)
	if err != nil || timeout <= 0 {
		return
	}
	addr := utils.ExtractFromNatsURL(config.NatsURL)
	if addr == "" {
		return
	}
	if err := utils.WaitForTCP(addr, timeout); err != nil {
		log.Warn("NATS server not reachable yet", log.ErrorField(err))
	}
}

//nolint:funlen // by design
func startServer() error {
	log.ResetDefault(setupLogger())

	def := track.LoadFileOrDefault(config.TrackFile, log.Default())
	if config.Laps > 0 {
		def.Laps = config.Laps
	}
	sess, err := session.FromDefinition(def, vehicle.DefaultTunables())
	if err != nil {
		return err
	}
	defer sess.Close()

	waitForNats()

	conn, err := nats.Connect(config.NatsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	pubOpts := []replication.PublisherOption{}
	if config.SessionID != "" {
		pubOpts = append(pubOpts, replication.WithSessionID(config.SessionID))
	}
	if config.SendRateHz > 0 {
		pubOpts = append(pubOpts,
			replication.WithSendInterval(time.Second/time.Duration(config.SendRateHz)))
	}
	pub := replication.NewPublisher(conn, pubOpts...)
	pub.Start(ctx)

	if config.WatchTrack && config.TrackFile != "" {
		tw, wErr := session.WatchTrack(config.TrackFile, sess)
		if wErr != nil {
			log.Warn("could not watch track file", log.ErrorField(wErr))
		} else {
			defer tw.Close()
		}
	}

	if config.TickRate <= 0 {
		config.TickRate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(config.TickRate))
	defer ticker.Stop()

	ap := vehicle.NewAutopilot()
	log.Info("server started",
		log.String("track", def.Name),
		log.String("sessionId", pub.SessionID()),
		log.String("subject", pub.Subject()),
		log.Int("sendRate", config.SendRateHz))

	for {
		select {
		case <-ctx.Done():
			log.Info("server terminated")
			pub.Wait()
			return nil
		case <-ticker.C:
			sess.Step(ap.Controls(sess.State(), sess.Curve()))
			pub.Offer(replication.Capture(pub.SessionID(), sess))
		}
	}
}
