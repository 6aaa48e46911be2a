// Package testutil provides shared helpers for command-level tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	consts "github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/shared/constants"
)

// TestEnv holds per-test directories for commands that touch the filesystem.
type TestEnv struct {
	TmpDir  string
	DataDir string
	t       *testing.T
}

// NewTestEnv creates an isolated environment rooted in t.TempDir().
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	if err := os.MkdirAll(dataDir, consts.DefaultDirPerm); err != nil {
		t.Fatalf("create data directory: %v", err)
	}

	return &TestEnv{TmpDir: tmpDir, DataDir: dataDir, t: t}
}

// WriteFile writes content under the env's temp dir and returns the path.
func (e *TestEnv) WriteFile(name string, content []byte) string {
	e.t.Helper()

	path := filepath.Join(e.TmpDir, name)
	if err := os.WriteFile(path, content, consts.DefaultFilePerm); err != nil {
		e.t.Fatalf("write %s: %v", name, err)
	}
	return path
}
