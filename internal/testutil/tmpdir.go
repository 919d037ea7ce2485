// Package testutil contains test helpers.
package testutil

import (
	"os"
	"testing"
)

// TempDirectory returns a temporary directory that is removed when the test
// passes and kept for inspection when it fails.
func TempDirectory(t *testing.T) string {
	t.Helper()

	d, err := os.MkdirTemp("", "multitemp-test")
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if !t.Failed() {
			os.RemoveAll(d) //nolint:errcheck
		} else {
			t.Logf("temporary files left in %v", d)
		}
	})

	return d
}
