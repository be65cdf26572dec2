// Package logger provides structured logging functionality for the application.
//
// It builds on log/slog, emitting one JSON object per line with field names
// following the Elastic Common Schema and the request's correlation id attached
// to every record logged with a context.
package logger
