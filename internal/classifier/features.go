package classifier

import (
	"strconv"
	"strings"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

// Документированные дефолты для кривых/отсутствующих полей.
// Граница санитизации одна — здесь; дальше по пайплайну запись уже валидна.
const (
	DefaultPort          = 80
	DefaultPacketSize    = 500.0
	DefaultDuration      = 1.0
	DefaultLoginAttempts = 1
)

// CoerceSubmission превращает сырую форму от веб-слоя в валидный
// TelemetryRecord. Нечисловые и выпавшие из домена значения не роняют
// запрос, а приводятся к дефолтам (MalformedInput — не ошибка).
func CoerceSubmission(raw map[string]string, sourceIdentity, sourceIP string) domain.TelemetryRecord {
	rec := domain.TelemetryRecord{
		SourceIdentity: sourceIdentity,
		SourceIP:       sourceIP,
	}

	rec.Port = parseIntField(raw["port"], DefaultPort)
	if rec.Port < 0 || rec.Port > 65535 {
		rec.Port = DefaultPort
	}

	rec.Protocol = domain.ProtocolTCP
	if strings.EqualFold(raw["protocol"], string(domain.ProtocolUDP)) {
		rec.Protocol = domain.ProtocolUDP
	}

	rec.Action = domain.ActionAccept
	if strings.EqualFold(raw["action"], string(domain.ActionDrop)) {
		rec.Action = domain.ActionDrop
	}

	rec.PacketSize = parseFloatField(raw["packet_size"], DefaultPacketSize)
	if rec.PacketSize < 0 {
		rec.PacketSize = DefaultPacketSize
	}

	rec.Duration = parseFloatField(raw["duration"], DefaultDuration)
	if rec.Duration < 0 {
		rec.Duration = DefaultDuration
	}

	rec.LoginAttempts = parseIntField(raw["login_attempts"], DefaultLoginAttempts)
	if rec.LoginAttempts < 0 {
		rec.LoginAttempts = DefaultLoginAttempts
	}

	return rec
}

// Sanitize приводит уже структурированную запись (например, из JSON API)
// к тем же документированным дефолтам, что и CoerceSubmission.
func Sanitize(rec domain.TelemetryRecord) domain.TelemetryRecord {
	if rec.Port < 0 || rec.Port > 65535 {
		rec.Port = DefaultPort
	}
	if rec.Protocol != domain.ProtocolTCP && rec.Protocol != domain.ProtocolUDP {
		rec.Protocol = domain.ProtocolTCP
	}
	if rec.Action != domain.ActionAccept && rec.Action != domain.ActionDrop {
		rec.Action = domain.ActionAccept
	}
	if rec.PacketSize < 0 {
		rec.PacketSize = DefaultPacketSize
	}
	if rec.Duration < 0 {
		rec.Duration = DefaultDuration
	}
	if rec.LoginAttempts < 0 {
		rec.LoginAttempts = DefaultLoginAttempts
	}
	return rec
}

// FeatureVector раскладывает запись в числовой вектор фиксированного
// порядка: [port, protocol(TCP=1), action(ACCEPT=1), packet_size,
// duration, login_attempts]. Порядок — часть контракта модели.
func FeatureVector(rec domain.TelemetryRecord) []float64 {
	protocol := 0.0
	if rec.Protocol == domain.ProtocolTCP {
		protocol = 1.0
	}
	action := 0.0
	if rec.Action == domain.ActionAccept {
		action = 1.0
	}
	return []float64{
		float64(rec.Port),
		protocol,
		action,
		rec.PacketSize,
		rec.Duration,
		float64(rec.LoginAttempts),
	}
}

func parseIntField(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

func parseFloatField(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return v
}
