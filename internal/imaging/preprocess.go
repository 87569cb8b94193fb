package imaging

// Tensor is the model input: a single NHWC image with a leading batch axis of 1.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Preprocess scales every channel value into [-1, 1] with v/127.5 - 1, which is the
// normalization the classifier was trained with (MobileNetV2 style).
func Preprocess(grid PixelGrid) Tensor {
	data := make([]float32, len(grid.Pix))
	for i, v := range grid.Pix {
		data[i] = float32(v)/127.5 - 1.0
	}
	return Tensor{
		Shape: []int64{1, int64(grid.Height), int64(grid.Width), Channels},
		Data:  data,
	}
}
