package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/mri-tumor-api/internal/model"
	"github.com/Brownie44l1/mri-tumor-api/internal/predictor"
	"github.com/Brownie44l1/mri-tumor-api/internal/stats"
)

func TestClassifyFiles(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 32, 32))))
	good := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(good, buf.Bytes(), 0o600))

	corrupt := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte("nope"), 0o600))

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o600))

	tracker := stats.NewTracker()
	pred := predictor.New(model.Unavailable(nil), tracker)

	results, failed := classifyFiles(pred, []string{good, corrupt, text, filepath.Join(dir, "missing.png")})
	require.Len(t, results, 4)
	assert.Equal(t, 3, failed)
	assert.Equal(t, uint64(1), tracker.Total())

	require.NotNil(t, results[0].Prediction)
	assert.True(t, results[0].Prediction.DemoMode)
	assert.Contains(t, results[1].Error, "Invalid image file")
	assert.Contains(t, results[2].Error, "file type not allowed")
	assert.NotEmpty(t, results[3].Error)

	var out bytes.Buffer
	require.NoError(t, newJSONEncoder(&out).Encode(results[0]))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, good, decoded["file"])
	assert.NotContains(t, decoded, "error")
}
