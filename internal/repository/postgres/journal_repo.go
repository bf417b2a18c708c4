package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xela07ax/sentinel-secops/internal/audit"
)

type JournalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// WriteBatch сохраняет пачку журнальных записей одним INSERT.
func (r *JournalRepo) WriteBatch(ctx context.Context, entries []audit.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	// Количество колонок в таблице activity_journal
	numFields := 6
	placeholderStr := ""
	vals := make([]interface{}, 0, len(entries)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range entries {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6)

		detail, _ := json.Marshal(e.Detail)
		vals = append(vals,
			e.ID, e.TraceID, e.Kind, e.SourceIdentity, detail, e.Timestamp,
		)
	}

	// Убираем лишнюю запятую в конце
	query := fmt.Sprintf(
		"INSERT INTO activity_journal (id, trace_id, kind, source_identity, detail, timestamp) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := r.db.ExecContext(ctx, query, vals...)
	return err
}

// FetchRecent — последние записи журнала для дашборда, новые сверху.
func (r *JournalRepo) FetchRecent(ctx context.Context, kind string, limit int) ([]audit.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, trace_id, kind, source_identity, detail, timestamp
		FROM activity_journal
		WHERE ($1 = '' OR kind = $1)
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch journal: %w", err)
	}
	defer rows.Close()

	var entries []audit.JournalEntry
	for rows.Next() {
		var e audit.JournalEntry
		var detailRaw []byte
		if err := rows.Scan(&e.ID, &e.TraceID, &e.Kind, &e.SourceIdentity,
			&detailRaw, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan journal entry: %w", err)
		}
		if len(detailRaw) > 0 {
			_ = json.Unmarshal(detailRaw, &e.Detail)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ audit.JournalStorage = (*JournalRepo)(nil)
