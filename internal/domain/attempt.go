package domain

import "time"

// AccessOutcome — терминальный исход попытки доступа к файлу.
type AccessOutcome string

const (
	OutcomeSuccess       AccessOutcome = "SUCCESS"
	OutcomeUnauthorized  AccessOutcome = "UNAUTHORIZED"
	OutcomeNotFound      AccessOutcome = "NOT_FOUND"
	OutcomeInternalError AccessOutcome = "INTERNAL_ERROR"
)

// AccessAttempt — append-only запись о каждой попытке доступа,
// независимо от исхода. Одна попытка = одна запись.
// Запросы по умолчанию возвращаются от новых к старым.
type AccessAttempt struct {
	ID string `json:"id"` // UUID

	// Пустая строка = неаутентифицированный запрос.
	// В базе хранится как NULL.
	RequesterIdentity string `json:"requester_identity,omitempty"`

	TargetAssetID string        `json:"target_asset_id"`
	SourceIP      string        `json:"source_ip"`
	Outcome       AccessOutcome `json:"outcome"`
	Reason        string        `json:"reason"`
	Timestamp     time.Time     `json:"timestamp"`
}
