package model

import "errors"

// DefaultModelPath is where the trained oral disease classifier is expected, relative to the working directory.
const DefaultModelPath = "oral_disease_model.onnx"

// Labels are the classes the model was trained on, in training order.
// Predictions are index aligned with this slice, so the order must never change
// independently of the model file.
var Labels = []string{
	"Calculus",
	"Gingivitis",
	"Mouth Ulcer",
	"Tooth Discoloration",
	"hypodontia",
}

// ErrUnavailable is returned by Predict when the model failed to load at startup.
var ErrUnavailable = errors.New("model not loaded")

// IOInfo describes the single input or output of the loaded model.
type IOInfo struct {
	Name  string
	Shape []int64
}
