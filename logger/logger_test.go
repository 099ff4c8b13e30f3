package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLoggerInitializes(t *testing.T) {
	log := GetLogger()
	assert.NotNil(t, log)

	// Repeated calls return the same instance.
	assert.Same(t, log, GetLogger())
}

func TestNamed(t *testing.T) {
	assert.NotNil(t, Named("api"))
}

func TestSyncDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, Sync)
}
