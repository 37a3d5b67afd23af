package cfg

import "time"

type Cfg struct {
	// Application configuration
	Port          string
	FeedsFile     string
	DBPath        string
	URLSchemes    []string
	WorkerCount   int
	QueueSize     int
	LoadTimeout   time.Duration
	RefreshPeriod time.Duration

	// Upstream fetching
	UserAgent    string
	FetchTimeout time.Duration
	FetchRetries int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
