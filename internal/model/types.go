package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Brownie44l1/flower-api/internal/flower"
	"github.com/Brownie44l1/flower-api/internal/imaging"
)

// Output activations a model may end with.
const (
	ActivationSoftmax = "softmax"
	ActivationLogits  = "logits"
)

const defaultImageSize = 128

// Metadata describes the tensors of an exported model. It is read from a
// JSON file stored next to the .onnx file.
type Metadata struct {
	InputShape       []int64  `json:"input_shape"`
	OutputShape      []int64  `json:"output_shape"`
	Classes          []string `json:"classes"`
	ImageSize        int      `json:"image_size"`
	Layout           string   `json:"layout"`
	InputName        string   `json:"input_name"`
	OutputName       string   `json:"output_name"`
	OutputActivation string   `json:"output_activation"`
}

// DefaultMetadata matches the flower classifier exported from Keras:
// a 128x128 RGB NHWC input and a softmax over the five flower classes.
func DefaultMetadata() Metadata {
	m := Metadata{}
	m.applyDefaults()
	return m
}

// LoadMetadata reads and validates a metadata file. An empty path yields
// DefaultMetadata.
func LoadMetadata(path string) (Metadata, error) {
	if path == "" {
		return DefaultMetadata(), nil
	}

	metaFile, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	metadata.applyDefaults()
	if err := metadata.Validate(); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata %s: %w", path, err)
	}

	return metadata, nil
}

func (m *Metadata) applyDefaults() {
	if m.ImageSize == 0 {
		m.ImageSize = defaultImageSize
	}
	if m.Layout == "" {
		m.Layout = string(imaging.NHWC)
	}
	if len(m.Classes) == 0 {
		m.Classes = flower.Labels()
	}
	if len(m.InputShape) == 0 {
		size := int64(m.ImageSize)
		if m.Layout == string(imaging.NCHW) {
			m.InputShape = []int64{1, 3, size, size}
		} else {
			m.InputShape = []int64{1, size, size, 3}
		}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, int64(len(m.Classes))}
	}
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if m.OutputActivation == "" {
		m.OutputActivation = ActivationSoftmax
	}
}

// Validate checks that the shapes, classes and image size agree.
func (m Metadata) Validate() error {
	layout, err := imaging.ParseLayout(m.Layout)
	if err != nil {
		return err
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("image_size must be positive, got %d", m.ImageSize)
	}
	if got, want := m.InputSize(), imaging.TensorSize(m.ImageSize); got != want {
		return fmt.Errorf("input_shape %v holds %d values, %s %dx%d image needs %d",
			m.InputShape, got, layout, m.ImageSize, m.ImageSize, want)
	}
	if got := m.OutputSize(); got != len(m.Classes) {
		return fmt.Errorf("output_shape %v holds %d values but %d classes are listed",
			m.OutputShape, got, len(m.Classes))
	}
	switch m.OutputActivation {
	case ActivationSoftmax, ActivationLogits:
	default:
		return fmt.Errorf("unsupported output_activation %q", m.OutputActivation)
	}
	return nil
}

// TensorLayout returns the parsed input layout.
func (m Metadata) TensorLayout() imaging.Layout {
	layout, err := imaging.ParseLayout(m.Layout)
	if err != nil {
		return imaging.NHWC
	}
	return layout
}

// InputSize is the number of float32 values in one input tensor.
func (m Metadata) InputSize() int {
	return shapeSize(m.InputShape)
}

// OutputSize is the number of float32 values in one output tensor.
func (m Metadata) OutputSize() int {
	return shapeSize(m.OutputShape)
}

func shapeSize(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	size := 1
	for _, dim := range shape {
		size *= int(dim)
	}
	return size
}

// PredictionRequest carries an already preprocessed input tensor.
type PredictionRequest struct {
	Image []float32 `json:"image"`
}

// Prediction is the response body of a successful classification.
type Prediction struct {
	PredictedClass string             `json:"predicted_class"`
	Probabilities  map[string]float64 `json:"probabilities"`
}
