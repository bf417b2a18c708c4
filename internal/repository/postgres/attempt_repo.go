package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

// AttemptRepo — append-only хранилище попыток доступа.
// requester_identity хранится как NULL для анонимных запросов.
type AttemptRepo struct {
	db *sql.DB
}

func NewAttemptRepo(db *sql.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

func (r *AttemptRepo) InsertAttempt(ctx context.Context, a domain.AccessAttempt) error {
	query := `INSERT INTO access_attempts
		(id, requester_identity, target_asset_id, source_ip, outcome, reason, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	requester := sql.NullString{String: a.RequesterIdentity, Valid: a.RequesterIdentity != ""}
	_, err := r.db.ExecContext(ctx, query,
		a.ID, requester, a.TargetAssetID, a.SourceIP,
		string(a.Outcome), a.Reason, a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert attempt: %w", err)
	}
	return nil
}

// ListAttempts возвращает попытки от новых к старым.
// Пустые фильтры = без ограничения.
func (r *AttemptRepo) ListAttempts(ctx context.Context, outcome domain.AccessOutcome, assetID string, limit int) ([]domain.AccessAttempt, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, requester_identity, target_asset_id, source_ip, outcome, reason, timestamp
		FROM access_attempts
		WHERE ($1 = '' OR outcome = $1)
		  AND ($2 = '' OR target_asset_id = $2)
		ORDER BY timestamp DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, string(outcome), assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.AccessAttempt
	for rows.Next() {
		var a domain.AccessAttempt
		var requester sql.NullString
		var outcome string
		if err := rows.Scan(&a.ID, &requester, &a.TargetAssetID, &a.SourceIP,
			&outcome, &a.Reason, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan attempt: %w", err)
		}
		a.RequesterIdentity = requester.String
		a.Outcome = domain.AccessOutcome(outcome)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CountByOutcome — агрегат для дашборда за последнее окно.
func (r *AttemptRepo) CountByOutcome(ctx context.Context, window time.Duration) (map[string]int64, error) {
	query := `SELECT outcome, COUNT(*) FROM access_attempts
		WHERE timestamp > $1
		GROUP BY outcome`

	rows, err := r.db.QueryContext(ctx, query, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("postgres: count by outcome: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan outcome count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}
