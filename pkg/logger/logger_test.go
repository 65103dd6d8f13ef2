package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default", config: DefaultConfig()},
		{name: "debug", config: DebugConfig()},
		{name: "bad level", config: &Config{Level: "loud", Format: TextFormat, Output: StderrOutput}, wantErr: true},
		{name: "bad format", config: &Config{Level: InfoLevel, Format: "xml", Output: StderrOutput}, wantErr: true},
		{name: "bad output", config: &Config{Level: InfoLevel, Format: TextFormat, Output: "syslog"}, wantErr: true},
		{name: "file without path", config: &Config{Level: InfoLevel, Format: JSONFormat, Output: FileOutput}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLoggerRejectsInvalidConfig(t *testing.T) {
	_, err := NewLogger(&Config{Level: "nope"})
	assert.Error(t, err)

	log, err := NewLogger(nil)
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestFieldsAccumulate(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, DebugLevel).
		WithComponent("builder").
		WithField("sheet", "Source").
		WithError(errors.New("bad cell"))

	log.Info("Loaded")

	out := buf.String()
	assert.Contains(t, out, "component=builder")
	assert.Contains(t, out, "sheet=Source")
	assert.Contains(t, out, "bad cell")
	assert.Contains(t, out, "msg=Loaded")
}

func TestStage(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, DebugLevel)

	stage := StartStage(log, "aggregate")
	elapsed := stage.Done(Fields{"rows": 3})

	assert.GreaterOrEqual(t, int64(elapsed), int64(0))
	assert.Contains(t, buf.String(), "stage=aggregate")
	assert.Contains(t, buf.String(), "rows=3")

	buf.Reset()
	StartStage(log, "load").Fail(errors.New("missing"))
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "missing")
}

func TestFileOutput(t *testing.T) {
	path := t.TempDir() + "/logs/dashboard.log"
	log, err := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: FileOutput, File: path})
	require.NoError(t, err)
	log.Info("hello")
	assert.FileExists(t, path)
}
