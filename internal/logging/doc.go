// Package logging wraps log/slog with the handlers and standardized field
// keys used across the daemon: a JSON handler for machine consumption and a
// console handler for interactive use, plus context-derived job/stage attrs.
package logging
