package model

import "fmt"

// Metadata describes the tensors of an exported classifier. It is read from
// a JSON file stored next to the model.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	Layout      string   `json:"layout"`
}

// Tensor layouts understood by the preprocessor.
const (
	LayoutNHWC = "NHWC"
	LayoutNCHW = "NCHW"
)

// DefaultMetadata matches the Keras DenseNet121 export: one 224x224 RGB image
// in, a batch of four scores out.
func DefaultMetadata() Metadata {
	return Metadata{
		InputShape:  []int64{1, 224, 224, 3},
		OutputShape: []int64{1, int64(len(Classes))},
		InputName:   "input",
		OutputName:  "output",
		Classes:     ClassNames(),
		ImageSize:   224,
		Layout:      LayoutNHWC,
	}
}

// withDefaults fills every unset field from DefaultMetadata.
func (m Metadata) withDefaults() Metadata {
	def := DefaultMetadata()
	if m.ImageSize <= 0 {
		m.ImageSize = def.ImageSize
	}
	if m.Layout == "" {
		m.Layout = layoutOf(m.InputShape, def.Layout)
	}
	if len(m.InputShape) == 0 {
		if m.Layout == LayoutNCHW {
			m.InputShape = []int64{1, 3, int64(m.ImageSize), int64(m.ImageSize)}
		} else {
			m.InputShape = []int64{1, int64(m.ImageSize), int64(m.ImageSize), 3}
		}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = def.OutputShape
	}
	if m.InputName == "" {
		m.InputName = def.InputName
	}
	if m.OutputName == "" {
		m.OutputName = def.OutputName
	}
	if len(m.Classes) == 0 {
		m.Classes = def.Classes
	}
	return m
}

// layoutOf reads the layout off a rank-4 shape by where its 3 channels sit.
func layoutOf(shape []int64, fallback string) string {
	if len(shape) != 4 {
		return fallback
	}
	switch {
	case shape[1] == 3 && shape[3] != 3:
		return LayoutNCHW
	case shape[3] == 3 && shape[1] != 3:
		return LayoutNHWC
	}
	return fallback
}

func channelAxis(layout string) int {
	if layout == LayoutNCHW {
		return 1
	}
	return 3
}

func (m Metadata) validate() error {
	if m.Layout != LayoutNHWC && m.Layout != LayoutNCHW {
		return fmt.Errorf("unsupported layout %q", m.Layout)
	}
	if len(m.Classes) != len(Classes) {
		return fmt.Errorf("metadata lists %d classes, expected %d", len(m.Classes), len(Classes))
	}
	for i, name := range m.Classes {
		if name != string(Classes[i]) {
			return fmt.Errorf("metadata class %d is %q, expected %q", i, name, Classes[i])
		}
	}
	if len(m.InputShape) != 4 {
		return fmt.Errorf("input shape %v: rank must be 4", m.InputShape)
	}
	if channels := m.InputShape[channelAxis(m.Layout)]; channels != 3 {
		return fmt.Errorf("input shape %v has %d channels on the %s channel axis, expected 3", m.InputShape, channels, m.Layout)
	}
	want := int64(1) * 3 * int64(m.ImageSize) * int64(m.ImageSize)
	got := int64(1)
	for _, dim := range m.InputShape {
		got *= dim
	}
	if got != want {
		return fmt.Errorf("input shape %v holds %d values, image size %d needs %d", m.InputShape, got, m.ImageSize, want)
	}
	if rank := len(m.OutputShape); rank != 1 && rank != 2 {
		return fmt.Errorf("output shape %v: rank must be 1 or 2", m.OutputShape)
	}
	return nil
}

// ClassInfo is the display metadata attached to every class.
type ClassInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// ClassProbability is one entry of a prediction's full distribution.
type ClassProbability struct {
	Probability float64   `json:"probability"`
	Percentage  float64   `json:"percentage"`
	Info        ClassInfo `json:"info"`
}

// Prediction is the model-facing part of a prediction response.
type Prediction struct {
	PredictedClass   Class                      `json:"predicted_class"`
	Confidence       float64                    `json:"confidence"`
	AllProbabilities map[Class]ClassProbability `json:"all_probabilities"`
	ClassInfo        ClassInfo                  `json:"class_info"`
	DemoMode         bool                       `json:"demo_mode"`
}
