// package ui implements the terminal interface for tracking runs.
//
// The model consumes progress updates from the tracking engine over a
// buffered channel and renders a live progress bar with per-artist status
// lines, then a summary of the discovered releases.
package ui
