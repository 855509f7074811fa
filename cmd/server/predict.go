package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/mri-tumor-api/internal/handlers"
	"github.com/Brownie44l1/mri-tumor-api/internal/model"
)

// classifyFiles runs every path through the same checks as an upload.
func classifyFiles(c handlers.Classifier, paths []string) ([]fileResult, int) {
	results := make([]fileResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		pred, err := classifyFile(c, path)
		if err != nil {
			failed++
			log.WithError(err).WithField("file", path).Error("Prediction failed")
			results = append(results, fileResult{File: path, Error: err.Error()})
			continue
		}
		results = append(results, fileResult{File: path, Prediction: pred})
	}
	return results, failed
}

func classifyFile(c handlers.Classifier, path string) (*model.Prediction, error) {
	if !handlers.AllowedFile(filepath.Base(path)) {
		return nil, fmt.Errorf("file type not allowed: %s", filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := handlers.DecodeImage(f)
	if err != nil {
		return nil, err
	}
	return c.Predict(img)
}

func newJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}
