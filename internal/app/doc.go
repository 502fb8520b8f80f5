// Package app owns the application lifecycle: configuration, the isolated
// per-app logger, inventory loading at startup, and running the build
// pipeline to completion.
package app
