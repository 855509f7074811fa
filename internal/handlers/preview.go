package handlers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

const previewMaxSide = 400

// EncodePreview shrinks img to fit inside a 400x400 box, keeping its aspect
// ratio, and returns it as a PNG data URI. Smaller images are not enlarged.
func EncodePreview(img image.Image) (string, error) {
	thumb := imaging.Fit(img, previewMaxSide, previewMaxSide, imaging.Lanczos)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, thumb); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
