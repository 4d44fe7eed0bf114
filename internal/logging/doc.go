// Package logging provides a leveled, printf-style logging interface for the
// video streamer, backed by zap.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable (DEBUG=true
// forces debug). LOG_FORMAT=json switches stdout to JSON lines. [Configure]
// adds a rotated JSON log file through lumberjack.
package logging
