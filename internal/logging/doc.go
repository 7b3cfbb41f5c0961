// Package logging builds the slog loggers used across Dropsort.
//
// Two output formats are supported: a human-oriented console format
// ("TIMESTAMP LEVEL component: message key=value ...") and standard JSON.
// Output always goes to stdout and, when a log directory is configured, to
// the daemon log file as well. Subsystems attach themselves with
// NewComponentLogger so every record carries a component attribute.
package logging
