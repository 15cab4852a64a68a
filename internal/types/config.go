package types

type RunMode string

const (
	// ModeLocal is local development; logging uses the console encoder
	ModeLocal RunMode = "local"
	// ModeAPI runs only the API server; scans are triggered externally
	ModeAPI RunMode = "api"
	// ModeCron runs only the periodic scan scheduler
	ModeCron RunMode = "cron"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
