package parser

import (
	"log/slog"
	"time"
)

// DefaultMaxDepth bounds nesting of pipelines and grouped tag expressions
const DefaultMaxDepth = 64

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Counts only
	TelemetryTiming                      // Counts + elapsed time
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	maxDepth  int
	logger    *slog.Logger
	telemetry TelemetryMode
}

func newConfig(opts []ParserOpt) *ParserConfig {
	config := &ParserConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(config)
	}
	if config.logger == nil {
		config.logger = slog.New(slog.DiscardHandler)
	}
	return config
}

// WithMaxDepth sets the nesting limit; values below 1 are ignored
func WithMaxDepth(depth int) ParserOpt {
	return func(c *ParserConfig) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithLogger routes parser debug logging (recovery, depth trips) to logger
func WithLogger(logger *slog.Logger) ParserOpt {
	return func(c *ParserConfig) {
		c.logger = logger
	}
}

// WithTelemetryBasic enables basic telemetry (counts only)
func WithTelemetryBasic() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + elapsed time)
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryTiming
	}
}

// ParseTelemetry holds parser metrics (production-safe)
type ParseTelemetry struct {
	ParseTime  time.Duration // Zero unless TelemetryTiming
	Items      int           // Top-level declarations recovered
	Steps      int           // Pipeline steps parsed, nested ones included
	Backtracks int           // Alternatives that failed and were rewound
	Recoveries int           // Lines skipped by error recovery
}
