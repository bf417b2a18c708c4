package classifier

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, m LinearModel) string {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// Игрушечная модель: Attack решается одним весом на login_attempts.
func loginModel() LinearModel {
	return LinearModel{
		Classes: []string{"Normal", "Attack"},
		Weights: [][]float64{
			{0, 0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0, 1},
		},
		Biases: []float64{0, -5},
	}
}

func TestLinearModel_PredictByDominantFeature(t *testing.T) {
	path := writeModel(t, loginModel())
	m, err := LoadLinearModel(path)
	require.NoError(t, err)

	label, err := m.Predict([]float64{443, 1, 1, 500, 1.0, 12})
	require.NoError(t, err)
	assert.Equal(t, "Attack", label)

	label, err = m.Predict([]float64{443, 1, 1, 500, 1.0, 1})
	require.NoError(t, err)
	assert.Equal(t, "Normal", label)
}

func TestLinearModel_ProbaSumsToOne(t *testing.T) {
	m := loginModel()

	probs, err := m.PredictProba([]float64{443, 1, 1, 500, 1.0, 3})
	require.NoError(t, err)
	require.Len(t, probs, 2)

	var sum float64
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestLinearModel_FeatureShapeMismatch(t *testing.T) {
	m := loginModel()

	_, err := m.PredictProba([]float64{1, 2, 3})
	require.Error(t, err)
}

func TestLinearModel_Standardization(t *testing.T) {
	m := loginModel()
	m.Means = []float64{0, 0, 0, 0, 0, 6}
	m.Scales = []float64{1, 1, 1, 1, 1, 2}

	// После стандартизации login_attempts=12 дает (12-6)/2 = 3; 3-5 < 0 => Normal
	label, err := m.Predict([]float64{443, 1, 1, 500, 1.0, 12})
	require.NoError(t, err)
	assert.Equal(t, "Normal", label)
}

func TestLoadLinearModel_RejectsMalformed(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLinearModel(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		bad := loginModel()
		bad.Biases = bad.Biases[:1]
		_, err := LoadLinearModel(writeModel(t, bad))
		require.Error(t, err)
	})

	t.Run("single class", func(t *testing.T) {
		bad := LinearModel{Classes: []string{"Normal"}, Weights: [][]float64{{1}}, Biases: []float64{0}}
		_, err := LoadLinearModel(writeModel(t, bad))
		require.Error(t, err)
	})
}
