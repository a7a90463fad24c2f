package model

import (
	"fmt"
	"image"
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"
)

// Server owns the ONNX Runtime session for the leaf classifier. The session is
// shared; every Classify call allocates its own tensors, so calls may overlap.
type Server struct {
	session  *ort.DynamicAdvancedSession
	Metadata Metadata
}

func NewServer(modelPath, metadataPath, runtimeLib string) (*Server, error) {
	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	if runtimeLib != "" {
		ort.SetSharedLibraryPath(runtimeLib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName}, nil)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	slog.Info("loaded classifier", "model", modelPath, "classes", len(metadata.Classes), "image_size", metadata.ImageSize)

	return &Server{
		session:  session,
		Metadata: metadata,
	}, nil
}

func (s *Server) Labels() []string {
	return append([]string(nil), s.Metadata.Classes...)
}

func (s *Server) Classify(img image.Image) (string, error) {
	scores, err := s.infer(Preprocess(img, s.Metadata))
	if err != nil {
		return "", err
	}

	idx := Argmax(scores[:len(s.Metadata.Classes)])
	return s.Metadata.Classes[idx], nil
}

func (s *Server) infer(inputData []float32) ([]float32, error) {
	inputTensor, err := ort.NewTensor(ort.NewShape(s.Metadata.InputShape...), inputData)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.OutputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := s.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := outputTensor.GetData()
	if len(outputData) < len(s.Metadata.Classes) {
		return nil, fmt.Errorf("model returned %d scores for %d classes", len(outputData), len(s.Metadata.Classes))
	}

	scores := make([]float32, len(outputData))
	copy(scores, outputData)
	return scores, nil
}

func (s *Server) Close() {
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
