package trace

import "time"

// LimitMode selects which bound governs how long a trace entry survives
// retrieval.
type LimitMode string

const (
	LimitSize   LimitMode = "size"
	LimitTime   LimitMode = "time"
	LimitHybrid LimitMode = "hybrid"
)

// Settings is the per-client-session capture configuration. It is
// persisted by the caller as an opaque blob; this package only interprets
// it.
type Settings struct {
	Enabled                bool
	LimitMode              LimitMode
	MaxPacketsPerReader    int
	MaxPacketsTotal        int
	MaxAgeMinutes          int
	FilterPollCommands     bool
	FilterAckCommands      bool
	MemoryLimitMB          int
	AutoStopOnMemoryLimit  bool
	CaptureRawData         bool
	ParseDetails           bool
}

// DefaultSettings returns a conservative, always-on configuration.
func DefaultSettings() Settings {
	return Settings{
		Enabled:               true,
		LimitMode:             LimitSize,
		MaxPacketsPerReader:   DefaultMaxPacketsPerReader,
		MaxPacketsTotal:       5000,
		MaxAgeMinutes:         60,
		FilterPollCommands:    false,
		FilterAckCommands:     false,
		MemoryLimitMB:         64,
		AutoStopOnMemoryLimit: true,
		CaptureRawData:        true,
		ParseDetails:          true,
	}
}

func (s Settings) maxAge() time.Duration {
	if s.MaxAgeMinutes <= 0 {
		return 0
	}
	return time.Duration(s.MaxAgeMinutes) * time.Minute
}
