// Package testutil provides shared fixtures for component spec tests.
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// CopyFixture copies a fixture from the repository into a temporary directory
// and returns the copy's path. The tempName parameter sets the file name.
// Calls t.Skip if the fixture is not found.
//
// Example:
//
//	in := testutil.CopyFixture(t, testutil.SLSpec, "sl.xml")
func CopyFixture(t *testing.T, fixturePath, tempName string) string {
	t.Helper()

	src := ResolvePath(t, fixturePath)
	dst := filepath.Join(t.TempDir(), tempName)
	copyFile(t, src, dst)
	return dst
}

// ReadFixture returns the contents of a fixture.
func ReadFixture(t *testing.T, fixturePath string) []byte {
	t.Helper()

	data, err := os.ReadFile(ResolvePath(t, fixturePath))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	return data
}

// ResolvePath finds a fixture by trying multiple path resolutions.
// This handles the fact that tests run from their package directory.
func ResolvePath(t *testing.T, relativePath string) string {
	t.Helper()

	// Try paths in order of likelihood
	candidates := []string{
		relativePath,                  // Direct path (from repo root)
		"../" + relativePath,          // From package one level deep
		"../../" + relativePath,       // From package two levels deep (e.g., pkg/component/)
		"../../../" + relativePath,    // From package three levels deep
		"../../../../" + relativePath, // From package four levels deep
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	t.Skipf("Fixture not found at any candidate path starting from: %s", relativePath)
	return "" // unreachable
}

// copyFile copies a fixture from src to dst.
// Calls t.Fatal if the copy fails.
func copyFile(t *testing.T, src, dst string) {
	t.Helper()

	srcFile, err := os.Open(src)
	if err != nil {
		t.Skipf("Fixture not found: %v", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		t.Fatalf("Failed to create temp fixture: %v", err)
	}
	defer dstFile.Close()

	if _, copyErr := io.Copy(dstFile, srcFile); copyErr != nil {
		t.Fatalf("Failed to copy fixture: %v", copyErr)
	}
}
