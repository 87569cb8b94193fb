package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Result is the public response for a successful classification.
type Result struct {
	PredictedClass string       `json:"predicted_class"`
	Confidence     float64      `json:"confidence"`
	AllPredictions Distribution `json:"all_predictions"`
}

// LabelScore is one label and its probability, as a percentage.
type LabelScore struct {
	Label   string
	Percent float64
}

// Distribution holds a percentage for every label, in label order.
// It marshals to a JSON object whose keys keep that order.
type Distribution []LabelScore

func (d Distribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range d {
		if i != 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.Percent)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Format turns a probability vector into a Result. The top label is the first
// index holding the maximum score. Percentages are rounded to 2 decimal places.
// NaN or infinite scores are an inference failure.
func Format(scores []float32, labels []string) (*Result, error) {
	if len(scores) != len(labels) || len(labels) == 0 {
		return nil, newError(KindShapeMismatch,
			fmt.Sprintf("Error during prediction: model returned %v scores for %v labels", len(scores), len(labels)), nil)
	}

	for i, v := range scores {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, newError(KindInferenceFailure,
				fmt.Sprintf("Error during prediction: model returned non-finite score %v for %v", v, labels[i]), nil)
		}
	}

	best := 0
	for i, v := range scores {
		if v > scores[best] {
			best = i
		}
	}

	all := make(Distribution, len(labels))
	for i, label := range labels {
		all[i] = LabelScore{Label: label, Percent: percent(scores[i])}
	}

	return &Result{
		PredictedClass: labels[best],
		Confidence:     percent(scores[best]),
		AllPredictions: all,
	}, nil
}

func percent(p float32) float64 {
	return math.Round(float64(p)*100*100) / 100
}
