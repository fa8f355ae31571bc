package config

// this holds the resolved configuration values from CLI
var (
	TrackFile    string  // path to the track definition file (YAML)
	WatchTrack   bool    // reload the track file on change
	Laps         int     // laps per race, 0 uses the track's value
	TickRate     int     // physics ticks per second
	NatsURL      string  // URL of the NATS server
	WaitForNats  string  // duration to wait for the NATS server to be ready
	SessionID    string  // session id, generated when empty
	SendRateHz   int     // snapshot send rate in Hz
	LogLevel     string  // sets the log level (zap log level values)
	LogFormat    string  // text vs json
	MaxSpeed     float64 // top speed override, 0 keeps the default
	Acceleration float64 // acceleration override, 0 keeps the default
)
