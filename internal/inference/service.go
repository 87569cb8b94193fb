package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/Brownie44l1/oral-api/internal/imaging"
	"github.com/cyclopcam/logs"
)

// Classifier is a model that maps a preprocessed image to one probability per label.
type Classifier interface {
	// Loaded is false if the model could not be loaded at startup
	Loaded() bool

	// Predict returns a probability vector aligned to the service's label set
	Predict(ctx context.Context, t imaging.Tensor) ([]float32, error)
}

// Upload is a single uploaded file. A nil *Upload means the request had no file part.
type Upload struct {
	Filename string
	Data     []byte
}

// Service runs the classification pipeline for one upload at a time.
// It holds only read-only state, so one Service can serve concurrent requests.
type Service struct {
	log        logs.Log
	classifier Classifier
	labels     []string
}

func NewService(log logs.Log, classifier Classifier, labels []string) *Service {
	return &Service{
		log:        log,
		classifier: classifier,
		labels:     labels,
	}
}

// ModelLoaded reports whether the classifier is usable.
func (s *Service) ModelLoaded() bool {
	return s.classifier != nil && s.classifier.Loaded()
}

// Labels returns the label set, in prediction order.
func (s *Service) Labels() []string {
	return s.labels
}

// Classify validates, decodes, preprocesses and classifies an upload.
// Any failure is returned as an *Error, and stops the pipeline.
func (s *Service) Classify(ctx context.Context, upload *Upload) (*Result, error) {
	if !s.ModelLoaded() {
		return nil, newError(KindModelUnavailable, MsgModelUnavailable, nil)
	}

	if upload == nil {
		return nil, newError(KindMissingFile, MsgNoFilePart, nil)
	}
	if upload.Filename == "" {
		return nil, newError(KindMissingFile, MsgNoFileSelected, nil)
	}
	if !imaging.AllowedFile(upload.Filename) {
		return nil, newError(KindUnsupportedType, MsgUnsupportedType, nil)
	}

	s.log.Infof("Processing file: %v (%v bytes)", upload.Filename, len(upload.Data))

	grid, err := imaging.Decode(upload.Data, upload.Filename)
	if err != nil {
		return nil, decodeFailure(err)
	}

	tensor := imaging.Preprocess(grid)

	// Client may have gone away while we were decoding
	if err := ctx.Err(); err != nil {
		return nil, newError(KindInferenceFailure, "Error during prediction: "+err.Error(), err)
	}

	scores, err := s.classifier.Predict(ctx, tensor)
	if err != nil {
		return nil, newError(KindInferenceFailure, "Error during prediction: "+err.Error(), err)
	}

	result, err := Format(scores, s.labels)
	if err != nil {
		return nil, err
	}

	s.log.Infof("Prediction: %v (confidence: %.2f%%)", result.PredictedClass, result.Confidence)
	return result, nil
}

func decodeFailure(err error) *Error {
	switch {
	case errors.Is(err, imaging.ErrMissingFile):
		return newError(KindMissingFile, MsgNoFileSelected, err)
	case errors.Is(err, imaging.ErrUnsupportedType):
		return newError(KindUnsupportedType, MsgUnsupportedType, err)
	}
	return newError(KindDecode, fmt.Sprintf("Error processing image: %v", err), err)
}
