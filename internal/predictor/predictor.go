// Package predictor runs images through the classifier, or through a random
// placeholder when no model could be loaded, and records the outcome.
package predictor

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/mri-tumor-api/internal/model"
	"github.com/Brownie44l1/mri-tumor-api/internal/preprocess"
	"github.com/Brownie44l1/mri-tumor-api/internal/stats"
)

var ErrInference = errors.New("inference error")

const (
	ModeModel       = "model"
	ModePlaceholder = "placeholder"
)

// Observer receives prediction outcomes, typically for metrics.
type Observer interface {
	ObservePrediction(class, mode string, d time.Duration)
	ObservePredictionError()
}

type nopObserver struct{}

func (nopObserver) ObservePrediction(string, string, time.Duration) {}
func (nopObserver) ObservePredictionError()                         {}

// Predictor is safe for concurrent use.
type Predictor struct {
	handle   model.Handle
	tracker  *stats.Tracker
	observer Observer

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Predictor)

// WithObserver reports every prediction to o.
func WithObserver(o Observer) Option {
	return func(p *Predictor) { p.observer = o }
}

// WithRandSource seeds the placeholder distribution.
func WithRandSource(src rand.Source) Option {
	return func(p *Predictor) { p.rng = rand.New(src) }
}

func New(handle model.Handle, tracker *stats.Tracker, opts ...Option) *Predictor {
	p := &Predictor{
		handle:   handle,
		tracker:  tracker,
		observer: nopObserver{},
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode reports whether predictions come from the model or the placeholder.
func (p *Predictor) Mode() string {
	if p.handle.IsLoaded() {
		return ModeModel
	}
	return ModePlaceholder
}

func (p *Predictor) ModelLoaded() bool { return p.handle.IsLoaded() }

// Predict classifies img. On success the statistics tracker has already
// been updated; on failure nothing is recorded and the error wraps
// ErrInference.
func (p *Predictor) Predict(img image.Image) (*model.Prediction, error) {
	start := time.Now()

	probs, demo, err := p.distribution(img)
	if err != nil {
		p.observer.ObservePredictionError()
		log.WithError(err).Error("Prediction error")
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	idx := model.Argmax(probs)
	predicted := model.Classes[idx]

	p.tracker.Update(predicted)
	p.observer.ObservePrediction(string(predicted), p.Mode(), time.Since(start))

	all := make(map[model.Class]model.ClassProbability, len(model.Classes))
	for i, c := range model.Classes {
		all[c] = model.ClassProbability{
			Probability: probs[i],
			Percentage:  probs[i] * 100,
			Info:        c.Info(),
		}
	}

	return &model.Prediction{
		PredictedClass:   predicted,
		Confidence:       probs[idx],
		AllProbabilities: all,
		ClassInfo:        predicted.Info(),
		DemoMode:         demo,
	}, nil
}

func (p *Predictor) distribution(img image.Image) (probs []float64, demo bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			probs, err = nil, fmt.Errorf("panic during inference: %v", r)
		}
	}()

	inferer, ok := p.handle.Model()
	if !ok {
		log.Debug("Using placeholder distribution")
		return p.placeholder(), true, nil
	}

	tensor := preprocess.Tensorize(img, preprocess.Options{
		ImageSize: inferer.ImageSize(),
		Layout:    inferer.Layout(),
	})
	out, err := inferer.Infer(tensor.Data)
	if err != nil {
		return nil, false, err
	}
	probs, err = out.Distribution()
	if err != nil {
		return nil, false, err
	}
	return probs, false, nil
}

func (p *Predictor) placeholder() []float64 {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return flatDirichlet(p.rng, len(model.Classes))
}

// flatDirichlet draws from Dirichlet(1, ..., 1): k unit exponentials
// normalized by their sum.
func flatDirichlet(r *rand.Rand, k int) []float64 {
	out := make([]float64, k)
	var sum float64
	for i := range out {
		out[i] = r.ExpFloat64()
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
