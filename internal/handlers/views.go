package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/mri-tumor-api/internal/model"
	"github.com/Brownie44l1/mri-tumor-api/internal/stats"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/favicon.ico
var embeddedFavicon []byte

var (
	indexTemplate    = template.Must(template.ParseFS(templateFS, "templates/index.html"))
	notFoundTemplate = template.Must(template.ParseFS(templateFS, "templates/404.html"))
)

type classView struct {
	Key  model.Class
	Info model.ClassInfo
}

type indexView struct {
	Classes        []classView
	ImageSize      int
	ModelLoaded    bool
	Stats          stats.Snapshot
	LastPrediction string
}

func newIndexView(imageSize int, loaded bool, snap stats.Snapshot) indexView {
	view := indexView{
		ImageSize:   imageSize,
		ModelLoaded: loaded,
		Stats:       snap,
	}
	for _, c := range model.Classes {
		view.Classes = append(view.Classes, classView{Key: c, Info: c.Info()})
	}
	if snap.LastPredictionTime != nil {
		view.LastPrediction = snap.LastPredictionTime.Format("2006-01-02 15:04:05")
	}
	return view
}

// renderHTML executes tmpl into a buffer first so a template error never
// leaves a half-written page.
func renderHTML(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.WithError(err).Error("Template render failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
