// Package logger provides the structured logging interface used across followcheck.
//
// It wraps zerolog behind the Logger interface so packages can accept a
// logger without importing zerolog directly:
//
//	cfg := &config.LoggingConfig{Level: "debug"}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//
//	logger.WithField("username", "alice").Info("Fetching followers")
//	logger.WithError(err).Warn("Saved session rejected")
//
// Console output goes to stderr. When LoggingConfig.File is set the same
// events are also appended to that file as JSON lines.
//
// Tests can use NewNopLogger to discard output or NewTestLogger to capture
// messages and assert on them.
package logger
