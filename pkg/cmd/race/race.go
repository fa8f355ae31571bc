package race

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openkart/racecore/log"
	"github.com/openkart/racecore/pkg/config"
	"github.com/openkart/racecore/pkg/race"
	"github.com/openkart/racecore/pkg/session"
	"github.com/openkart/racecore/pkg/track"
	"github.com/openkart/racecore/pkg/vehicle"
)

func NewRaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race",
		Short: "runs a headless race with the built-in driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRace()
		},
	}
	cmd.Flags().IntVar(&config.TickRate,
		"tick-rate",
		60,
		"physics ticks per second")
	cmd.Flags().Float64Var(&config.MaxSpeed,
		"max-speed",
		0,
		"top speed override (0 keeps the default)")
	cmd.Flags().Float64Var(&config.Acceleration,
		"acceleration",
		0,
		"acceleration override (0 keeps the default)")
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
func runRace() error {
	log.ResetDefault(setupLogger())

	def := track.LoadFileOrDefault(config.TrackFile, log.Default())
	if config.Laps > 0 {
		def.Laps = config.Laps
	}
	tun := vehicle.DefaultTunables()
	if config.MaxSpeed > 0 {
		tun.MaxSpeed = config.MaxSpeed
	}
	if config.Acceleration > 0 {
		tun.Acceleration = config.Acceleration
	}

	sess, err := session.FromDefinition(def, tun)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := sess.Tracker().Subscribe()
	defer sess.Tracker().Unsubscribe(events)

	if config.TickRate <= 0 {
		config.TickRate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(config.TickRate))
	defer ticker.Stop()

	ap := vehicle.NewAutopilot()
	log.Info("race started",
		log.String("track", def.Name),
		log.Int("laps", def.Laps),
		log.Int("tickRate", config.TickRate))

	for {
		select {
		case <-ctx.Done():
			log.Info("race aborted")
			return nil
		case ev := <-events:
			switch ev.Type {
			case race.EventLapCompleted:
				log.Info("lap completed",
					log.Int("lap", ev.Lap),
					log.Duration("lapTime", time.Duration(ev.LapMS)*time.Millisecond),
					log.Bool("best", ev.Best))
			case race.EventRaceFinished:
				log.Info("race finished",
					log.Int("laps", ev.Lap),
					log.Duration("total", time.Duration(ev.TotalMS)*time.Millisecond),
					log.Duration("bestLap", time.Duration(ev.BestMS)*time.Millisecond))
				for i, lt := range sess.Tracker().LapTimes() {
					log.Info("lap time", log.Int("lap", i+1), log.Duration("time", lt))
				}
				return nil
			}
		case <-ticker.C:
			sess.Step(ap.Controls(sess.State(), sess.Curve()))
		}
	}
}
