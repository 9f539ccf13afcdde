package logger

import "io"

// SetupLogger initializes the default logger from command-line settings and
// returns it. A nil output keeps the default of stderr.
func SetupLogger(logLevel LogLevel, logJSON, logSource bool, output io.Writer) Logger {
	cfg := DefaultConfig()
	cfg.Level = logLevel
	cfg.JSON = logJSON
	cfg.AddSource = logSource
	if output != nil {
		cfg.Output = output
	}
	Init(cfg)
	return GetDefault()
}
