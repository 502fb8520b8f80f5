package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	inventoryHCL := `
fabric {
  name          = "dc1"
  loopback_pool = "192.0.2.0/24"
  as_base       = 65000
}

device "spine1" {
  role = "spine"
}

device "leaf1" {
  role    = "leaf"
  uplinks = ["spine1"]
}

device "cvp" {
  role = "controller"
}
`
	tempDir := t.TempDir()
	invPath := filepath.Join(tempDir, "inventory.hcl")
	require.NoError(t, os.WriteFile(invPath, []byte(inventoryHCL), 0600))
	outDir := filepath.Join(tempDir, "configs")

	out := &bytes.Buffer{}
	require.NoError(t, run(out, []string{"-i", invPath, "-o", outDir, "--log-level=error"}))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	content, err := os.ReadFile(filepath.Join(outDir, "leaf1.cfg"))
	require.NoError(t, err)
	require.Contains(t, string(content), "hostname leaf1")
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An HCL syntax error is guaranteed to make inventory loading fail, which
	// app.NewApp() turns into a startup panic.
	invalidHCL := `
		device "leaf1" {
	// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "inventory.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")

	errStr := runErr.Error()
	require.True(t, strings.Contains(errStr, "application startup panicked"), "The error message should indicate that a panic was recovered.")
	require.True(t, strings.Contains(errStr, "failed to parse"), "The error message should contain the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
