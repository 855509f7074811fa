package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const uploadField = "file"

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
	"tiff": true,
}

// Upload is a validated, decoded image file.
type Upload struct {
	Filename string
	Format   string
	Image    image.Image
}

// AllowedFile reports whether filename carries one of the accepted image
// extensions, compared case-insensitively.
func AllowedFile(filename string) bool {
	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 {
		return false
	}
	return allowedExtensions[strings.ToLower(filename[dot+1:])]
}

// readUpload validates the multipart request and decodes its image.
func readUpload(r *http.Request, maxBytes int64) (*Upload, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, ErrPayloadTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			return nil, validationError("No file uploaded")
		default:
			return nil, validationError("Failed to parse form: " + err.Error())
		}
	}

	file, header, err := r.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) {
		// A part sent with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value[uploadField]; ok {
			return nil, validationError("No file selected")
		}
		return nil, validationError("No file uploaded")
	}
	if err != nil {
		return nil, validationError("No file uploaded")
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, validationError("No file selected")
	}
	if !AllowedFile(header.Filename) {
		return nil, validationError("File type not allowed. Please use PNG, JPG, JPEG, GIF, BMP, or TIFF")
	}

	img, format, err := DecodeImage(file)
	if err != nil {
		return nil, err
	}
	return &Upload{Filename: header.Filename, Format: format, Image: img}, nil
}

// DecodeImage reads the header first, then decodes the full pixel data
// from a fresh reader and checks both agree.
func DecodeImage(src io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", decodeError(err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", decodeError(err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", decodeError(err)
	}
	if b := img.Bounds(); b.Dx() != cfg.Width || b.Dy() != cfg.Height {
		return nil, "", decodeError(fmt.Errorf("decoded %dx%d image, header says %dx%d",
			b.Dx(), b.Dy(), cfg.Width, cfg.Height))
	}
	return img, format, nil
}

func removeForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
