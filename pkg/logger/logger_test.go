package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInit_Levels(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "")
	Init()
	assert.Equal(t, logrus.InfoLevel, L().GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, L().Formatter)

	t.Setenv("ENVIRONMENT", "development")
	Init()
	assert.Equal(t, logrus.DebugLevel, L().GetLevel())

	t.Setenv("LOG_LEVEL", "warn")
	Init()
	assert.Equal(t, logrus.WarnLevel, L().GetLevel())

	t.Setenv("LOG_LEVEL", "chatty")
	Init()
	assert.Equal(t, logrus.DebugLevel, L().GetLevel())
}
