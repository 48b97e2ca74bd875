// Package logger wraps zap for the tag-guard binaries:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level parsing for the log_level setting,
//   - leveled helpers (Infof, WarnKV, ErrorKV, ...) that read the logger from a context.
//
// Components receive a context and log through it, so each log line carries the
// component name and the fields attached upstream.
package logger
