package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata is the JSON sidecar exported next to the ONNX graph.
type Metadata struct {
	InputShape  []int64   `json:"input_shape"`
	OutputShape []int64   `json:"output_shape"`
	InputName   string    `json:"input_name"`
	OutputName  string    `json:"output_name"`
	Classes     []string  `json:"classes"`
	ImageSize   int       `json:"image_size"`
	Mean        []float32 `json:"mean"`
	Std         []float32 `json:"std"`
}

const (
	defaultImageSize  = 224
	defaultInputName  = "pixel_values"
	defaultOutputName = "logits"
	channels          = 3
)

func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	metadata.applyDefaults()
	if err := metadata.validate(); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata %s: %w", path, err)
	}

	return metadata, nil
}

func (m *Metadata) applyDefaults() {
	if m.ImageSize == 0 {
		m.ImageSize = defaultImageSize
	}
	if m.InputName == "" {
		m.InputName = defaultInputName
	}
	if m.OutputName == "" {
		m.OutputName = defaultOutputName
	}
	if len(m.Mean) == 0 {
		m.Mean = []float32{0.5, 0.5, 0.5}
	}
	if len(m.Std) == 0 {
		m.Std = []float32{0.5, 0.5, 0.5}
	}
	if len(m.InputShape) == 0 {
		m.InputShape = []int64{1, channels, int64(m.ImageSize), int64(m.ImageSize)}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, int64(len(m.Classes))}
	}
}

func (m *Metadata) validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("no classes listed")
	}
	if m.ImageSize < 0 {
		return fmt.Errorf("image_size must be positive, got %d", m.ImageSize)
	}
	if len(m.Mean) != channels || len(m.Std) != channels {
		return fmt.Errorf("mean and std need %d values, got %d and %d", channels, len(m.Mean), len(m.Std))
	}
	for i, s := range m.Std {
		if s == 0 {
			return fmt.Errorf("std[%d] is zero", i)
		}
	}

	want := []int64{1, channels, int64(m.ImageSize), int64(m.ImageSize)}
	if len(m.InputShape) != len(want) {
		return fmt.Errorf("input_shape %v does not match %v", m.InputShape, want)
	}
	for i := range want {
		if m.InputShape[i] != want[i] {
			return fmt.Errorf("input_shape %v does not match %v", m.InputShape, want)
		}
	}

	if n := len(m.OutputShape); n == 0 || m.OutputShape[n-1] != int64(len(m.Classes)) {
		return fmt.Errorf("output_shape %v does not end in class count %d", m.OutputShape, len(m.Classes))
	}

	return nil
}
