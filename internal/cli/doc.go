// Package cli parses command-line arguments into an app.Config and owns the
// ExitError type used to carry exit codes to the entrypoint.
package cli
