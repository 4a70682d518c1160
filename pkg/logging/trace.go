package logging

import "log/slog"

// EnableTrace turns on per-sample telemetry logs. Set from log.trace in the config.
var EnableTrace = false

// Trace logs per-sample detail (filter decisions, superseded commands) at DEBUG
// when tracing is on. A nil logger uses the default.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if !EnableTrace {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug(msg, args...)
}
