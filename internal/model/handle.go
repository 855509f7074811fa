package model

import "errors"

var ErrModelUnavailable = errors.New("model not loaded")

// Inferer is the capability a loaded classifier exposes.
type Inferer interface {
	Infer(input []float32) (Output, error)
	Layout() string
	ImageSize() int
	Close()
}

// Handle is either a loaded model or the reason none could be loaded. It is
// built once at startup and never replaced.
type Handle struct {
	inferer Inferer
	loadErr error
}

// Loaded wraps a working model.
func Loaded(inferer Inferer) Handle {
	return Handle{inferer: inferer}
}

// Unavailable records why no model is present.
func Unavailable(err error) Handle {
	if err == nil {
		err = ErrModelUnavailable
	}
	return Handle{loadErr: err}
}

// Load tries to open the model at opts and never fails: a load error yields
// an Unavailable handle.
func Load(opts LoadOptions) Handle {
	srv, err := NewServer(opts)
	if err != nil {
		return Unavailable(err)
	}
	return Loaded(srv)
}

// Model returns the inferer and whether one is loaded.
func (h Handle) Model() (Inferer, bool) {
	return h.inferer, h.inferer != nil
}

func (h Handle) IsLoaded() bool { return h.inferer != nil }

// Err is the load failure for an Unavailable handle, nil otherwise.
func (h Handle) Err() error { return h.loadErr }

func (h Handle) Close() {
	if h.inferer != nil {
		h.inferer.Close()
	}
}
