package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

// Server runs an ONNX classifier through a single bound session. Inputs and
// outputs live in preallocated tensors, so runs are serialized.
type Server struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// LoadOptions locates the model artifact and the onnxruntime library.
type LoadOptions struct {
	ModelPath         string
	MetadataPath      string
	SharedLibraryPath string
}

// NewServer loads the model described by opts. A missing metadata file is
// not an error; DefaultMetadata is used instead.
func NewServer(opts LoadOptions) (*Server, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("model artifact: %w", err)
	}

	metadata, err := readMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	if !ort.IsInitialized() {
		if opts.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(opts.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	log.WithFields(log.Fields{
		"input_shape":  metadata.InputShape,
		"output_shape": metadata.OutputShape,
		"layout":       metadata.Layout,
	}).Debug("ONNX session created")

	return &Server{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func readMetadata(path string) (Metadata, error) {
	if path == "" {
		return DefaultMetadata(), nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", path).Info("No model metadata file, using defaults")
		return DefaultMetadata(), nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	metadata = metadata.withDefaults()
	if err := metadata.validate(); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata %s: %w", path, err)
	}
	return metadata, nil
}

// Layout reports the tensor layout the session expects.
func (s *Server) Layout() string { return s.Metadata.Layout }

// ImageSize reports the square input resolution.
func (s *Server) ImageSize() int { return s.Metadata.ImageSize }

// Infer runs one batch. A rank-2 output is reported as Logits, a rank-1
// output as Probabilities.
func (s *Server) Infer(input []float32) (Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.inputTensor.GetData()
	if len(input) != len(dst) {
		return Output{}, fmt.Errorf("expected %d input values, got %d", len(dst), len(input))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return Output{}, fmt.Errorf("inference failed: %w", err)
	}

	raw := s.outputTensor.GetData()
	values := make([]float32, len(raw))
	copy(values, raw)

	kind := Logits
	if len(s.Metadata.OutputShape) == 1 {
		kind = Probabilities
	}
	return Output{Kind: kind, Shape: s.Metadata.OutputShape, Values: values}, nil
}

func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
