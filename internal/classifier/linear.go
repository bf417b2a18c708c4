package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LinearModel — линейная модель, экспортированная из пайплайна обучения
// в JSON: по вектору весов на каждый класс. Для двух классов это
// логистическая регрессия, для большего числа — softmax. Инференс
// детерминированный и не требует ML-рантайма в процессе.
type LinearModel struct {
	Classes []string    `json:"classes"`
	Weights [][]float64 `json:"weights"` // [класс][фича]
	Biases  []float64   `json:"biases"`

	// Стандартизация фич, снятая с обучающей выборки
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// LoadLinearModel читает веса модели с диска.
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: read model %s: %w", path, err)
	}

	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("classifier: parse model %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("classifier: model %s: %w", path, err)
	}
	return &m, nil
}

func (m *LinearModel) validate() error {
	if len(m.Classes) < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", len(m.Classes))
	}
	if len(m.Weights) != len(m.Classes) || len(m.Biases) != len(m.Classes) {
		return fmt.Errorf("weights/biases shape does not match %d classes", len(m.Classes))
	}
	return nil
}

func (m *LinearModel) Predict(features []float64) (string, error) {
	probs, err := m.PredictProba(features)
	if err != nil {
		return "", err
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return m.Classes[best], nil
}

func (m *LinearModel) PredictProba(features []float64) ([]float64, error) {
	x := m.standardize(features)

	scores := make([]float64, len(m.Classes))
	for i, w := range m.Weights {
		if len(w) != len(x) {
			return nil, fmt.Errorf("classifier: model expects %d features, got %d", len(w), len(x))
		}
		s := m.Biases[i]
		for j, f := range x {
			s += w[j] * f
		}
		scores[i] = s
	}

	return softmax(scores), nil
}

func (m *LinearModel) standardize(features []float64) []float64 {
	if len(m.Means) != len(features) || len(m.Scales) != len(features) {
		return features
	}
	out := make([]float64, len(features))
	for i, f := range features {
		scale := m.Scales[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (f - m.Means[i]) / scale
	}
	return out
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}

	var sum float64
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
