/*
Package log provides structured logging for fringedb using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions
for common logging patterns.

# Usage

Initializing the logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component loggers:

	storeLog := log.WithStore(commitPath)
	storeLog.Info().Msg("commit succeeded")

	indexLog := log.WithIndex(dir)
	indexLog.Warn().Msg("artifact target store no longer exists")

# Log Levels

Debug: development and troubleshooting. Info: default production level.
Warn: potential issues that may need attention. Error: failed operations.
Fatal: unrecoverable errors; exits the process.
*/
package log
