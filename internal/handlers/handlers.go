package handlers

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/mri-tumor-api/internal/model"
	"github.com/Brownie44l1/mri-tumor-api/internal/preprocess"
	"github.com/Brownie44l1/mri-tumor-api/internal/stats"
)

// Classifier produces predictions for decoded images.
type Classifier interface {
	Predict(img image.Image) (*model.Prediction, error)
	ModelLoaded() bool
	Mode() string
}

// StatsSource exposes the current prediction counters.
type StatsSource interface {
	Snapshot() stats.Snapshot
}

const defaultMaxUploadBytes int64 = 16 << 20

type Options struct {
	MaxUploadBytes int64
	StaticDir      string
	ImageSize      int
}

type Handler struct {
	classifier Classifier
	stats      StatsSource
	opts       Options
}

func NewHandler(classifier Classifier, src StatsSource, opts Options) *Handler {
	if opts.ImageSize <= 0 {
		opts.ImageSize = preprocess.DefaultImageSize
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		classifier: classifier,
		stats:      src,
		opts:       opts,
	}
}

// PredictResponse is the body of a successful POST /predict.
type PredictResponse struct {
	model.Prediction
	ImagePreview string         `json:"image_preview"`
	OriginalSize [2]int         `json:"original_size"`
	Filename     string         `json:"filename"`
	Timestamp    string         `json:"timestamp"`
	Stats        stats.Snapshot `json:"stats"`
}

// Predict handles POST /predict with a multipart "file" field.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("Route error")
			writeError(w, http.StatusInternalServerError, fmt.Sprint(rec))
		}
	}()
	defer removeForm(r)

	upload, err := readUpload(r, h.opts.MaxUploadBytes)
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			h.PayloadTooLarge(w, r)
			return
		}
		writeError(w, statusFor(err), err.Error())
		return
	}

	bounds := upload.Image.Bounds()
	log.WithFields(log.Fields{
		"filename": upload.Filename,
		"format":   upload.Format,
		"width":    bounds.Dx(),
		"height":   bounds.Dy(),
	}).Debug("Received image")

	prediction, err := h.classifier.Predict(upload.Image)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preview, err := EncodePreview(upload.Image)
	if err != nil {
		log.WithError(err).Error("Preview encoding failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.WithFields(log.Fields{
		"filename":   upload.Filename,
		"class":      prediction.PredictedClass,
		"confidence": prediction.Confidence,
		"demo_mode":  prediction.DemoMode,
	}).Info("Prediction served")

	writeJSON(w, http.StatusOK, PredictResponse{
		Prediction:   *prediction,
		ImagePreview: preview,
		OriginalSize: [2]int{bounds.Dx(), bounds.Dy()},
		Filename:     upload.Filename,
		Timestamp:    stats.FormatTime(time.Now()),
		Stats:        h.stats.Snapshot(),
	})
}

// Statistics handles GET /api/statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}

// Classes handles GET /api/classes.
func (h *Handler) Classes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Catalog())
}

// TestImage handles GET /test-image: a blank white image is classified to
// check the inference path end to end.
func (h *Handler) TestImage(w http.ResponseWriter, r *http.Request) {
	size := h.opts.ImageSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	prediction, err := h.classifier.Predict(img)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"message":         "Model is working correctly",
		"test_prediction": prediction,
	})
}

// Health handles GET /health. The service is healthy with or without a model.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": h.classifier.ModelLoaded(),
		"mode":         h.classifier.Mode(),
		"timestamp":    stats.FormatTime(time.Now()),
	})
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	view := newIndexView(h.opts.ImageSize, h.classifier.ModelLoaded(), h.stats.Snapshot())
	renderHTML(w, http.StatusOK, indexTemplate, view)
}

// Favicon serves favicon.ico from the static directory, or the built-in
// icon when the directory has none.
func (h *Handler) Favicon(w http.ResponseWriter, r *http.Request) {
	if h.opts.StaticDir != "" {
		path := filepath.Join(h.opts.StaticDir, "favicon.ico")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
	}
	w.Header().Set("Content-Type", "image/x-icon")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(embeddedFavicon)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusNotFound, notFoundTemplate, map[string]string{"Path": r.URL.Path})
}

func (h *Handler) PayloadTooLarge(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("File is too large. Maximum size is %dMB", h.opts.MaxUploadBytes>>20))
}

// InternalError is the response for failures outside any handler's own
// error path.
func InternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
