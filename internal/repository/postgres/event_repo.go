package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

// EventRepo — append-only хранилище Event'ов. Только INSERT и SELECT,
// никакого UPDATE/DELETE у таблицы events нет.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) InsertEvent(ctx context.Context, e domain.Event) error {
	query := `INSERT INTO events
		(id, timestamp, source_identity, source_ip, port, protocol, action,
		 packet_size, duration, login_attempts, label, subtype, confidence, fallback_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Timestamp, e.SourceIdentity, e.SourceIP, e.Port,
		string(e.Protocol), string(e.Action), e.PacketSize, e.Duration,
		e.LoginAttempts, string(e.Label), e.Subtype, e.Confidence, e.FallbackUsed,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert event: %w", err)
	}
	return nil
}

func (r *EventRepo) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT id, timestamp, source_identity, source_ip, port, protocol, action,
		packet_size, duration, login_attempts, label, subtype, confidence, fallback_used
		FROM events WHERE id = $1`

	var e domain.Event
	var protocol, action, label string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Timestamp, &e.SourceIdentity, &e.SourceIP, &e.Port,
		&protocol, &action, &e.PacketSize, &e.Duration, &e.LoginAttempts,
		&label, &e.Subtype, &e.Confidence, &e.FallbackUsed,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("postgres: event %s: not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get event: %w", err)
	}
	e.Protocol = domain.Protocol(protocol)
	e.Action = domain.NetAction(action)
	e.Label = domain.Label(label)
	return &e, nil
}

// ListEvents возвращает события от новых к старым.
// Пустой subtype = без фильтра.
func (r *EventRepo) ListEvents(ctx context.Context, subtype string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, timestamp, source_identity, source_ip, port, protocol, action,
		packet_size, duration, login_attempts, label, subtype, confidence, fallback_used
		FROM events
		WHERE ($1 = '' OR subtype = $1)
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, subtype, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var protocol, action, label string
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.SourceIdentity, &e.SourceIP, &e.Port,
			&protocol, &action, &e.PacketSize, &e.Duration, &e.LoginAttempts,
			&label, &e.Subtype, &e.Confidence, &e.FallbackUsed,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		e.Protocol = domain.Protocol(protocol)
		e.Action = domain.NetAction(action)
		e.Label = domain.Label(label)
		events = append(events, e)
	}
	return events, rows.Err()
}

// DistinctAttackSources — уникальные источники, от которых были события
// с вердиктом Attack. Используется для прогрева watchlist'а после старта.
func (r *EventRepo) DistinctAttackSources(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT source_identity FROM events
		WHERE label = $1 AND source_identity <> ''`

	rows, err := r.db.QueryContext(ctx, query, string(domain.LabelAttack))
	if err != nil {
		return nil, fmt.Errorf("postgres: attack sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("postgres: scan attack source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// CountBySubtype — агрегат для дашборда: сколько событий каждого подтипа
// за последнее окно.
func (r *EventRepo) CountBySubtype(ctx context.Context, window time.Duration) (map[string]int64, error) {
	query := `SELECT subtype, COUNT(*) FROM events
		WHERE timestamp > $1
		GROUP BY subtype
		ORDER BY COUNT(*) DESC`

	rows, err := r.db.QueryContext(ctx, query, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("postgres: count by subtype: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var subtype string
		var n int64
		if err := rows.Scan(&subtype, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan subtype count: %w", err)
		}
		counts[subtype] = n
	}
	return counts, rows.Err()
}
