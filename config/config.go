package config

var (
	Host string = "0.0.0.0"
	Port int    = 6379

	// SetSize bounds the fd table of the event loop. Every fd the server
	// registers (listener included) must be below it.
	SetSize = 1024 * 10

	DefaultMessageSize = 1024
	MaximumClients     = 100
	MaximumQueryBuffer = 1024 * 1024

	// Hz is how many times per second the server cron timer fires.
	Hz = 10

	// ActiveExpireSamples is how many keys with a ttl the cron samples per run.
	ActiveExpireSamples = 20

	LogLevel = "info"
)
