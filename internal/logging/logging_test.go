package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup("warn", "json", &buf))
	t.Cleanup(func() { _ = Setup("info", "text", nil) })

	log.Info("dropped")
	log.WithField("route", "/predict").Warn("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "/predict", entry["route"])
	assert.Equal(t, "warning", entry["level"])
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Setup("loud", "text", nil))
}
