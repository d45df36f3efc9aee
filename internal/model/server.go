package model

import (
	"errors"
	"fmt"
	"log"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrClosed is returned by Predict after Close.
var ErrClosed = errors.New("model server is closed")

// Config locates the model artifacts and sizes the session pool.
type Config struct {
	ModelPath    string
	MetadataPath string
	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// platform default lookup.
	LibraryPath string
	Sessions    int
}

// Server runs the exported classifier. It is safe for concurrent use.
type Server struct {
	metadata Metadata
	sessions *pool[*session]

	closeOnce sync.Once
}

type session struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewServer loads the model once and opens cfg.Sessions inference sessions.
func NewServer(cfg Config) (*Server, error) {
	metadata, err := LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	sessions, err := newPool(cfg.Sessions, func(i int) (*session, error) {
		return openSession(cfg.ModelPath, metadata)
	}, (*session).destroy)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, err
	}

	log.Printf("Opened %d inference session(s) for %s", sessions.Size(), cfg.ModelPath)

	return &Server{
		metadata: metadata,
		sessions: sessions,
	}, nil
}

func openSession(modelPath string, metadata Metadata) (*session, error) {
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

	s, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &session{
		session:      s,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (s *session) destroy() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}

// run copies input into the session, runs it and returns a copy of the
// output so the session can be reused immediately.
func (s *session) run(input []float32) ([]float64, error) {
	copy(s.inputTensor.GetData(), input)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return toFloat64(s.outputTensor.GetData()), nil
}

// Metadata describes the loaded model.
func (s *Server) Metadata() Metadata {
	return s.metadata
}

// Predict runs one forward pass over a preprocessed input tensor.
func (s *Server) Predict(inputData []float32) (*Prediction, error) {
	if want := s.metadata.InputSize(); len(inputData) != want {
		return nil, fmt.Errorf("expected %d input values, got %d", want, len(inputData))
	}

	sess, ok := s.sessions.Get()
	if !ok {
		return nil, ErrClosed
	}
	scores, err := sess.run(inputData)
	s.sessions.Put(sess)
	if err != nil {
		return nil, err
	}

	if s.metadata.OutputActivation == ActivationLogits {
		scores = Softmax(scores)
	}

	return NewPrediction(s.metadata.Classes, scores)
}

// Close releases every session and the ONNX environment.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if s.sessions != nil {
			s.sessions.Close()
		}
		ort.DestroyEnvironment()
	})
}
