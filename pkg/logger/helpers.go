package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComparison logs the sizes of both relationship sets and both differences
func LogComparison(username string, followers, following, notFollowingBack, fans int) {
	GetLogger().WithFields(map[string]interface{}{
		"username":           username,
		"followers":          followers,
		"following":          following,
		"not_following_back": notFollowingBack,
		"fans":               fans,
	}).Info("Relationship comparison complete")
}

// LogReportWritten logs a report file write
func LogReportWritten(path string, lines int) {
	GetLogger().WithFields(map[string]interface{}{
		"path":  path,
		"lines": lines,
	}).Info("Report written")
}

// LogEnrichmentSummary logs the outcome of a profile enrichment pass
func LogEnrichmentSummary(total, skipped int) {
	l := GetLogger().WithFields(map[string]interface{}{
		"total":     total,
		"enriched":  total - skipped,
		"skipped":   skipped,
		"operation": "enrich",
	})
	if skipped > 0 {
		l.Warn("Profile enrichment finished with skipped users")
		return
	}
	l.Info("Profile enrichment finished")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
