package classifier

import (
	"strings"

	"github.com/xela07ax/sentinel-secops/internal/domain"
	"go.uber.org/zap"
)

// Model — узкий контракт инференса уже обученной модели.
// Обучение, формат сериализации и фичеринжиниринг — не наша забота.
type Model interface {
	// Predict возвращает сырую метку класса ("0"/"1", "Normal"/"Attack",
	// либо имя подтипа для subtype-модели).
	Predict(features []float64) (string, error)
}

// ProbabilityModel — опциональное расширение: модель умеет отдавать
// распределение вероятностей по классам.
type ProbabilityModel interface {
	PredictProba(features []float64) ([]float64, error)
}

// Result — результат классификации плюс явный флаг «сработал fallback».
// Флаг нужен, чтобы вызывающие и тесты могли отличить честный вердикт
// модели от консервативной заглушки.
type Result struct {
	domain.ClassificationResult
	FallbackUsed bool
}

// Classifier — двухступенчатый классификатор телеметрии.
// Обе модели опциональны: nil — валидное, обрабатываемое состояние.
type Classifier struct {
	binary  Model // Normal vs Attack
	subtype Model // тип атаки (может отсутствовать)
	logger  *zap.Logger
}

func New(binary, subtype Model, logger *zap.Logger) *Classifier {
	return &Classifier{
		binary:  binary,
		subtype: subtype,
		logger:  logger.Named("classifier"),
	}
}

// Classify прогоняет запись через две ступени.
// Политика отказов: классификация НИКОГДА не возвращает ошибку наверх.
// Модель недоступна или упала — отдаем Normal/Normal/1.0 с поднятым
// FallbackUsed; пайплайн жив, каузу фиксирует лог.
func (c *Classifier) Classify(rec domain.TelemetryRecord) Result {
	rec = Sanitize(rec)
	res := Result{
		ClassificationResult: domain.ClassificationResult{
			Label:      domain.LabelNormal,
			Subtype:    SubtypeNormal,
			Confidence: 1.0,
		},
	}

	if c.binary == nil {
		c.logger.Warn("binary model not loaded, conservative fallback",
			zap.String("source", rec.SourceIdentity))
		res.FallbackUsed = true
		return res
	}

	features := FeatureVector(rec)

	// Ступень 1: Normal vs Attack
	raw, err := c.binary.Predict(features)
	if err != nil {
		c.logger.Error("binary inference failed, conservative fallback",
			zap.Error(err), zap.String("source", rec.SourceIdentity))
		res.FallbackUsed = true
		return res
	}
	res.Label = mapBinaryPrediction(raw)

	// Если модель умеет вероятности — confidence = максимум по классам,
	// иначе остается дефолтная 1.0
	if pm, ok := c.binary.(ProbabilityModel); ok {
		if proba, err := pm.PredictProba(features); err == nil && len(proba) > 0 {
			res.Confidence = maxOf(proba)
		}
	}

	if res.Label != domain.LabelAttack {
		res.Subtype = SubtypeNormal
		return res
	}

	// Ступень 2: подтип атаки
	if c.subtype != nil {
		sub, err := c.subtype.Predict(features)
		if err == nil && sub != "" {
			res.Subtype = sub
			return res
		}
		c.logger.Warn("subtype inference failed, using rule fallback", zap.Error(err))
		res.FallbackUsed = true
	}
	res.Subtype = fallbackSubtype(rec)
	return res
}

// mapBinaryPrediction нормализует выход модели к стандартной метке.
func mapBinaryPrediction(raw string) domain.Label {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "attack":
		return domain.LabelAttack
	default:
		return domain.LabelNormal
	}
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
