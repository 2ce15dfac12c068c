package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger wired to stdout for the duration of a test.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[relay-test] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}
