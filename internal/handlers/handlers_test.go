package handlers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAllowedFile(t *testing.T) {
	allowed := []string{"scan.png", "SCAN.PNG", "a.b.JpEg", "x.jpg", "x.gif", "x.bmp", "x.tiff", ".png"}
	for _, name := range allowed {
		assert.True(t, AllowedFile(name), name)
	}
	rejected := []string{"notes.txt", "png", "scan.png.exe", "scan.tif", "scan.webp", "scan.", ""}
	for _, name := range rejected {
		assert.False(t, AllowedFile(name), name)
	}
}

func TestDecodeImage(t *testing.T) {
	img, format, err := DecodeImage(bytes.NewReader(pngBytes(t, 30, 20)))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, _, err := DecodeImage(strings.NewReader("definitely not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.True(t, strings.HasPrefix(err.Error(), "Invalid image file: "))
	assert.Equal(t, http.StatusBadRequest, statusFor(err))
}

func TestDecodeImageRejectsTruncatedData(t *testing.T) {
	full := pngBytes(t, 64, 64)
	_, _, err := DecodeImage(bytes.NewReader(full[:len(full)/2]))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEncodePreviewFitsBox(t *testing.T) {
	cases := []struct {
		w, h, wantW, wantH int
	}{
		{800, 400, 400, 200},
		{300, 1200, 100, 400},
		{120, 80, 120, 80},
	}
	for _, tc := range cases {
		src := image.NewRGBA(image.Rect(0, 0, tc.w, tc.h))
		uri, err := EncodePreview(src)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
		require.NoError(t, err)
		cfg, err := png.DecodeConfig(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, tc.wantW, cfg.Width)
		assert.Equal(t, tc.wantH, cfg.Height)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(validationError("No file uploaded")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(ErrPayloadTooLarge))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
