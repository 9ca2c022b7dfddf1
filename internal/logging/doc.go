// Package logging wires log/slog with the repository's console and JSON
// handlers and standardizes the attribute keys used across components.
package logging
