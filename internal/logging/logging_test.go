package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		want    logrus.Level
		wantErr bool
	}{
		{"info text", "info", "text", logrus.InfoLevel, false},
		{"debug json", "debug", "json", logrus.DebugLevel, false},
		{"default format", "warn", "", logrus.WarnLevel, false},
		{"bad level", "loud", "text", 0, true},
		{"bad format", "info", "xml", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logrus.New()
			err := configure(logger, tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestConfigure_JSONOutputCarriesFields(t *testing.T) {
	logger := logrus.New()
	require.NoError(t, configure(logger, "info", FormatJSON))

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.WithFields(logrus.Fields{"service": "contentupgrade", "version": "1.0.0"}).Info("started")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "contentupgrade", line["service"])
	assert.Equal(t, "started", line["msg"])
}

func TestServiceLogger(t *testing.T) {
	entry := ServiceLogger("contentupgrade", "1.2.3")
	assert.Equal(t, "contentupgrade", entry.Data["service"])
	assert.Equal(t, "1.2.3", entry.Data["version"])
}
