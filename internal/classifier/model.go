package classifier

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Supported layer activations.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationSoftmax = "softmax"
)

// layer is one dense layer: output = activation(W*x + b).
type layer struct {
	weights    *mat.Dense
	bias       *mat.VecDense
	activation string
}

// Model is a pre-trained dense feed-forward network producing a probability
// distribution over gesture labels. Immutable after parsing.
type Model struct {
	inputWidth int
	layers     []layer
}

// modelFile is the on-disk JSON shape of a model artifact.
type modelFile struct {
	InputSize int `json:"input_size"`
	Layers    []struct {
		Weights    [][]float64 `json:"weights"`
		Bias       []float64   `json:"bias"`
		Activation string      `json:"activation"`
	} `json:"layers"`
}

// ParseModel parses and validates a model artifact. Layer shapes are checked
// once here so that inference can assume consistent dimensions.
func ParseModel(data []byte) (*Model, error) {
	var file modelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}

	if file.InputSize <= 0 {
		return nil, fmt.Errorf("model input_size must be positive, got %d", file.InputSize)
	}
	if len(file.Layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}

	m := &Model{inputWidth: file.InputSize}

	width := file.InputSize
	for i, l := range file.Layers {
		rows := len(l.Weights)
		if rows == 0 {
			return nil, fmt.Errorf("layer %d has no weights", i)
		}
		for r, row := range l.Weights {
			if len(row) != width {
				return nil, fmt.Errorf("layer %d row %d has %d weights, expected %d", i, r, len(row), width)
			}
		}
		if len(l.Bias) != rows {
			return nil, fmt.Errorf("layer %d has %d biases, expected %d", i, len(l.Bias), rows)
		}

		activation := l.Activation
		switch activation {
		case ActivationReLU, ActivationSoftmax:
		case "", ActivationLinear:
			activation = ActivationLinear
		default:
			return nil, fmt.Errorf("layer %d has unknown activation %q", i, l.Activation)
		}

		flat := make([]float64, 0, rows*width)
		for _, row := range l.Weights {
			flat = append(flat, row...)
		}

		bias := make([]float64, rows)
		copy(bias, l.Bias)

		m.layers = append(m.layers, layer{
			weights:    mat.NewDense(rows, width, flat),
			bias:       mat.NewVecDense(rows, bias),
			activation: activation,
		})

		width = rows
	}

	return m, nil
}

// InputWidth returns the feature vector length the model expects.
func (m *Model) InputWidth() int {
	return m.inputWidth
}

// OutputWidth returns the size of the model's output distribution.
func (m *Model) OutputWidth() int {
	last := m.layers[len(m.layers)-1]
	rows, _ := last.weights.Dims()
	return rows
}

// Infer runs the network on the given input and returns the output vector.
// The input length must exactly equal InputWidth. Runtime faults inside the
// matrix math are recovered and surfaced as errors.
func (m *Model) Infer(input []float64) (probs []float64, err error) {
	if len(input) != m.inputWidth {
		return nil, fmt.Errorf("input width %d, model expects %d", len(input), m.inputWidth)
	}

	defer func() {
		if r := recover(); r != nil {
			probs = nil
			err = fmt.Errorf("inference fault: %v", r)
		}
	}()

	x := mat.NewVecDense(len(input), append([]float64(nil), input...))

	for i := range m.layers {
		l := &m.layers[i]
		rows, _ := l.weights.Dims()

		out := mat.NewVecDense(rows, nil)
		out.MulVec(l.weights, x)
		out.AddVec(out, l.bias)

		switch l.activation {
		case ActivationReLU:
			for j := 0; j < rows; j++ {
				if out.AtVec(j) < 0 {
					out.SetVec(j, 0)
				}
			}
		case ActivationSoftmax:
			softmaxInPlace(out)
		}

		x = out
	}

	result := make([]float64, x.Len())
	for i := range result {
		result[i] = x.AtVec(i)
	}
	return result, nil
}

// softmaxInPlace applies a numerically stable softmax to the vector.
func softmaxInPlace(v *mat.VecDense) {
	max := math.Inf(-1)
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) > max {
			max = v.AtVec(i)
		}
	}

	var sum float64
	for i := 0; i < v.Len(); i++ {
		e := math.Exp(v.AtVec(i) - max)
		v.SetVec(i, e)
		sum += e
	}

	if sum == 0 {
		return
	}
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, v.AtVec(i)/sum)
	}
}
