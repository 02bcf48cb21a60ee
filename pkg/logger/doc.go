// Package logger provides the structured logging interface used across
// behancesync.
//
// It wraps zerolog with:
//   - Leveled logging (Debug, Info, Warn, Error, Fatal)
//   - Child loggers carrying fields (WithField, WithFields, WithError)
//   - Colored console output on stderr, or JSON with format "json"
//   - Optional JSON file output alongside the console
//
// Usage:
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	log.WithField("username", "jdoe").Info("Sync started")
//	log.InfoWithFields("Project emitted", map[string]interface{}{
//	    "project_id": 123,
//	    "status":     "created",
//	})
//
// Components take a Logger in their constructor and fall back to GetLogger
// when given nil. Tests use NewTestLogger to assert on what was logged, or
// NewNopLogger to silence output.
package logger
