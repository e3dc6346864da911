package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrCancelled signals the user backed out of the screen.
	ErrCancelled = errors.New("tui: cancelled")
)
