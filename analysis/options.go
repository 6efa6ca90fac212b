package analysis

import (
	"runtime"

	"github.com/rs/zerolog"
)

// DefaultConcurrency is the number of methods AnalyzeAll analyzes at once
// when no WithConcurrency option is given.
var DefaultConcurrency = runtime.GOMAXPROCS(0)

type config struct {
	observer    Observer
	logger      zerolog.Logger
	concurrency int
}

func newConfig(opts []Option) config {
	cfg := config{
		observer:    NoOpObserver{},
		logger:      zerolog.Nop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = 1
	}
	return cfg
}

// Option is a configuration function for an Analyzer.
type Option func(*config)

// WithObserver sets an observer for analysis events. Observer methods are
// called synchronously, so implementations should be fast.
func WithObserver(observer Observer) Option {
	return func(c *config) {
		if observer == nil {
			observer = NoOpObserver{}
		}
		c.observer = observer
	}
}

// WithLogger sets the logger. Runs are summarized at debug level and each
// worklist step is logged at trace level. The default logger discards
// everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithConcurrency bounds the number of methods AnalyzeAll analyzes at once.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}
