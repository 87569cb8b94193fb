package model

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/Brownie44l1/oral-api/internal/imaging"
	"github.com/Brownie44l1/oral-api/internal/inference"
	"github.com/cyclopcam/logs"
	ort "github.com/yalue/onnxruntime_go"
)

// Server owns the ONNX classifier session.
// It is loaded exactly once, by NewServer. If loading fails the Server stays
// unavailable for the life of the process; nothing ever tries to reload it.
type Server struct {
	Input  IOInfo
	Output IOInfo

	log     logs.Log
	path    string
	session *ort.DynamicAdvancedSession
	loadErr error
	ownsEnv bool
}

// NewServer loads the model at modelPath. It never fails: a load error is
// recorded and reported through Loaded and LoadError.
func NewServer(log logs.Log, modelPath string) *Server {
	s := &Server{
		log:  log,
		path: modelPath,
	}
	if err := s.load(); err != nil {
		s.loadErr = err
		s.log.Errorf("Error loading model: %v", err)
		s.Close()
	} else {
		s.log.Infof("Model loaded successfully from %v (input %v %v, output %v %v)", modelPath, s.Input.Name, s.Input.Shape, s.Output.Name, s.Output.Shape)
	}
	return s
}

func (s *Server) load() error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("model file '%v' not found: %w", s.path, err)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	s.ownsEnv = true

	inputs, outputs, err := ort.GetInputOutputInfo(s.path)
	if err != nil {
		return fmt.Errorf("failed to read model inputs and outputs: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("expected a model with 1 input and 1 output, but it has %v inputs and %v outputs", len(inputs), len(outputs))
	}
	if s.Input, err = singleBatch(inputs[0]); err != nil {
		return err
	}
	if s.Output, err = singleBatch(outputs[0]); err != nil {
		return err
	}

	session, err := ort.NewDynamicAdvancedSession(s.path,
		[]string{s.Input.Name}, []string{s.Output.Name}, nil)
	if err != nil {
		return fmt.Errorf("failed to create ONNX session: %w", err)
	}
	s.session = session
	return nil
}

// singleBatch fixes a dynamic batch dimension to 1, since we only ever run one image at a time.
func singleBatch(info ort.InputOutputInfo) (IOInfo, error) {
	shape := slices.Clone([]int64(info.Dimensions))
	if len(shape) == 0 {
		return IOInfo{}, fmt.Errorf("model tensor '%v' has no dimensions", info.Name)
	}
	if shape[0] <= 0 {
		shape[0] = 1
	}
	for i, d := range shape[1:] {
		if d <= 0 {
			return IOInfo{}, fmt.Errorf("model tensor '%v' has dynamic dimension %v, only the batch dimension may be dynamic", info.Name, i+1)
		}
	}
	return IOInfo{Name: info.Name, Shape: shape}, nil
}

// Loaded is true if the model was loaded successfully at startup.
func (s *Server) Loaded() bool {
	return s.session != nil
}

// LoadError returns the reason the model is unavailable, or nil.
func (s *Server) LoadError() error {
	return s.loadErr
}

// NumOutputs is the width of the prediction vector produced by the model.
func (s *Server) NumOutputs() int {
	n := int64(1)
	for _, d := range s.Output.Shape {
		n *= d
	}
	return int(n)
}

// Predict runs a single inference. Every call gets its own tensors, so
// Predict is safe for concurrent use.
func (s *Server) Predict(ctx context.Context, t imaging.Tensor) ([]float32, error) {
	if !s.Loaded() {
		return nil, ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !slices.Equal(t.Shape, s.Input.Shape) {
		return nil, fmt.Errorf("input shape %v does not match model input shape %v", t.Shape, s.Input.Shape)
	}

	input, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(s.Output.Shape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := s.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return slices.Clone(output.GetData()), nil
}

func (s *Server) Close() {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	if s.ownsEnv {
		ort.DestroyEnvironment()
		s.ownsEnv = false
	}
}

var _ inference.Classifier = (*Server)(nil)
