package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bminorlang/bminor/pkg/config"
	"github.com/bminorlang/bminor/pkg/logging"
)

func TestNewLogger_Levels(t *testing.T) {
	cfg := config.DefaultConfig()

	// Default config yields warn.
	logger := newLogger(cfg, false)
	assert.Equal(t, logging.WARN, logger.MinLevel())

	// -v raises to info.
	logger = newLogger(cfg, true)
	assert.Equal(t, logging.INFO, logger.MinLevel())

	// A config set to debug is not clobbered by -v.
	cfg.LogLevel = "debug"
	logger = newLogger(cfg, true)
	assert.Equal(t, logging.DEBUG, logger.MinLevel())
}

func TestPrintError_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		printError(fmt.Errorf("toolchain failed"))
	})
}
