package logger_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"aurae.example/auraed/internal/logger"
)

func TestNoop_NeverPanicsAtNonFatalLevels(t *testing.T) {
	log := logger.Noop()

	assert.NotPanics(t, func() {
		log.Debug("debug msg", logger.Fields{"k": "v"})
		log.Info("info msg", logger.Fields{"k": 1})
		log.Warn("warn msg", nil)
		log.Error("error msg", logger.Fields{"err": "boom"})
	})
}

func TestNew_ImplementsLogger(t *testing.T) {
	var log logger.Logger = logger.New(logrus.InfoLevel)
	assert.NotNil(t, log)

	assert.NotPanics(t, func() {
		log.Info("hello", logger.Fields{"cell": "web"})
	})
}
