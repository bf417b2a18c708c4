package domain

import "time"

// Event — персистентная запись о проверенной телеметрии.
// Поля TelemetryRecord + ClassificationResult + метка времени.
// Append-only: хранится бессрочно, никогда не обновляется.
type Event struct {
	ID        string    `json:"id"` // UUID
	Timestamp time.Time `json:"timestamp"`

	SourceIdentity string    `json:"source_identity"`
	SourceIP       string    `json:"source_ip"`
	Port           int       `json:"port"`
	Protocol       Protocol  `json:"protocol"`
	Action         NetAction `json:"action"`
	PacketSize     float64   `json:"packet_size"`
	Duration       float64   `json:"duration"`
	LoginAttempts  int       `json:"login_attempts"`

	Label      Label   `json:"label"`
	Subtype    string  `json:"subtype"`
	Confidence float64 `json:"confidence"`

	// FallbackUsed — классификатор отработал через консервативный
	// fallback (модель недоступна/упала). Нужен тестам и дашборду,
	// чтобы отличать честный Normal от «Normal по умолчанию».
	FallbackUsed bool `json:"fallback_used,omitempty"`
}

// NewEvent собирает Event из записи и результата классификации.
// ID и Timestamp проставляет оркестратор (монотонная метка времени).
func NewEvent(id string, ts time.Time, rec TelemetryRecord, res ClassificationResult, fallback bool) Event {
	return Event{
		ID:             id,
		Timestamp:      ts,
		SourceIdentity: rec.SourceIdentity,
		SourceIP:       rec.SourceIP,
		Port:           rec.Port,
		Protocol:       rec.Protocol,
		Action:         rec.Action,
		PacketSize:     rec.PacketSize,
		Duration:       rec.Duration,
		LoginAttempts:  rec.LoginAttempts,
		Label:          res.Label,
		Subtype:        res.Subtype,
		Confidence:     res.Confidence,
		FallbackUsed:   fallback,
	}
}
