// Package testutil provides shared helpers for package tests: a thread-safe
// log buffer and a tmp-dir inventory fixture writer.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteInventory writes the given files into a fresh temporary directory and
// returns its path. Relative file names may contain subdirectories.
func WriteInventory(t *testing.T, files map[string]string) string {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}
	return tmpDir
}

// TwoTierInventory is a minimal valid fabric used by tests across packages:
// two spines, two leaves and a controller entry that must be excluded.
const TwoTierInventory = `
fabric {
  name          = "dc1"
  loopback_pool = "192.0.2.0/24"
  as_base       = 65000
}

device "spine1" {
  role    = "spine"
  mgmt_ip = "10.0.0.11/24"
}

device "spine2" {
  role = "spine"
}

device "leaf1" {
  role    = "leaf"
  uplinks = ["spine1", "spine2"]
}

device "leaf2" {
  role    = "leaf"
  uplinks = ["spine1", "spine2"]
}

device "cvp" {
  role = "controller"
}
`
