package domain

import "time"

// AlertKind — источник тревоги: атака из телеметрии или нарушение доступа.
type AlertKind string

const (
	AlertIntrusion       AlertKind = "INTRUSION"
	AlertAccessViolation AlertKind = "ACCESS_VIOLATION"
)

// AlertPayload — структурированная тревога для внешнего sink'а.
// Эфемерная: ядро ее не персистит, доставкой занимается внешний мир.
type AlertPayload struct {
	Kind      AlertKind `json:"kind"`
	TraceID   string    `json:"trace_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	SourceIdentity string `json:"source_identity,omitempty"`
	SourceIP       string `json:"source_ip"`

	// Для Kind = INTRUSION
	EventID    string  `json:"event_id,omitempty"`
	Subtype    string  `json:"subtype,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`

	// Для Kind = ACCESS_VIOLATION
	AssetID string        `json:"asset_id,omitempty"`
	Outcome AccessOutcome `json:"outcome,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// IntrusionAlert собирает тревогу из атакующего Event.
func IntrusionAlert(traceID string, e Event) AlertPayload {
	return AlertPayload{
		Kind:           AlertIntrusion,
		TraceID:        traceID,
		Timestamp:      e.Timestamp,
		SourceIdentity: e.SourceIdentity,
		SourceIP:       e.SourceIP,
		EventID:        e.ID,
		Subtype:        e.Subtype,
		Confidence:     e.Confidence,
	}
}

// AccessAlert собирает тревогу из неуспешной попытки доступа
// (Unauthorized или InternalError).
func AccessAlert(traceID string, a AccessAttempt) AlertPayload {
	return AlertPayload{
		Kind:           AlertAccessViolation,
		TraceID:        traceID,
		Timestamp:      a.Timestamp,
		SourceIdentity: a.RequesterIdentity,
		SourceIP:       a.SourceIP,
		AssetID:        a.TargetAssetID,
		Outcome:        a.Outcome,
		Reason:         a.Reason,
	}
}
