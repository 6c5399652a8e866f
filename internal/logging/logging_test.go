package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{
		"e":     Error,
		"WARN":  Warn,
		"info":  Info,
		"D":     Debug,
		"trace": MaxLevel,
		"7":     Level(7),
		"-2":    Error,
	} {
		level, err := ParseLevel(s)
		assert.NoError(t, err, s)
		assert.Equal(t, want, level, s)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
	_, err = ParseLevel("10")
	assert.Error(t, err)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "Warn", Warn.String())
	assert.Equal(t, "6", Level(6).String())
	assert.Equal(t, byte('D'), Debug.letter())
	assert.Equal(t, byte('6'), Level(6).letter())
}

func TestLoggerFiltersByLevel(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	log := NewLogger(&out, Info).WithTag("test")

	log.Debug("hidden %d", 1)
	assert.Equal(t, 0, out.Len())

	log.Warn("shown %d", 2)
	line := out.String()
	assert.True(t, strings.HasSuffix(line, "shown 2\n"), line)
	assert.Contains(t, line, " W/test[logging_test.go:")
}

func TestConfigureTagLevels(t *testing.T) {
	saved, savedTags := defaultLevel, tagLevels
	defer func() {
		defaultLevel, tagLevels = saved, savedTags
		DefaultLogger.Level = saved
	}()

	existing := DefaultLogger.WithTag("mp4")
	quiet := DefaultLogger.WithTag("quiet").WithDefaultLevel(Error)

	err := Configure("warn, mp4=debug,bogus=loud")
	assert.Error(t, err)
	assert.Equal(t, Warn, DefaultLogger.Level)
	assert.Equal(t, Debug, existing.Level)
	assert.Equal(t, Debug, DefaultLogger.WithTag("mp4").Level)
	assert.Equal(t, Warn, DefaultLogger.WithTag("multisource").Level)
	assert.Equal(t, Error, quiet.Level)
}

func TestNewLoggerKeepsLevelAcrossConfigure(t *testing.T) {
	var out bytes.Buffer
	log := NewLogger(&out, Debug).WithTag("standalone")

	assert.NoError(t, Configure(""))
	assert.Equal(t, Debug, log.Level)
	assert.True(t, log.Enabled(Debug))
}

func TestConfigureWhileLogging(t *testing.T) {
	saved := defaultLevel
	defer func() {
		assert.NoError(t, Configure(saved.String()))
	}()

	log := DefaultLogger.WithTag("busy")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			log.Enabled(Debug)
		}
	}()
	for i := 0; i < 100; i++ {
		assert.NoError(t, Configure("warn"))
	}
	<-done
	assert.Equal(t, Warn, log.Level)
}
