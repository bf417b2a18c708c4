package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

type AssetRepo struct {
	db *sql.DB
}

func NewAssetRepo(db *sql.DB) *AssetRepo {
	return &AssetRepo{db: db}
}

// InsertAsset регистрирует ассет в состоянии is_encrypted = false.
// Владелец фиксируется здесь и больше никогда не меняется.
func (r *AssetRepo) InsertAsset(ctx context.Context, a domain.EncryptedAsset) error {
	query := `INSERT INTO secure_assets
		(id, owner_identity, file_name, ciphertext_path, is_encrypted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OwnerIdentity, a.FileName, a.CiphertextPath, a.IsEncrypted, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert asset: %w", err)
	}
	return nil
}

// MarkEncrypted переводит флаг false -> true ровно один раз, вместе с
// путем шифротекста. Условие is_encrypted = false в WHERE гарантирует,
// что повторный переход невозможен.
func (r *AssetRepo) MarkEncrypted(ctx context.Context, id, ciphertextPath string) error {
	query := `UPDATE secure_assets
		SET is_encrypted = TRUE, ciphertext_path = $1
		WHERE id = $2 AND is_encrypted = FALSE`

	result, err := r.db.ExecContext(ctx, query, ciphertextPath, id)
	if err != nil {
		return fmt.Errorf("postgres: mark encrypted: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("postgres: asset %s missing or already encrypted", id)
	}
	return nil
}

func (r *AssetRepo) GetAsset(ctx context.Context, id string) (*domain.EncryptedAsset, error) {
	query := `SELECT id, owner_identity, file_name, ciphertext_path, is_encrypted, created_at
		FROM secure_assets WHERE id = $1`

	var a domain.EncryptedAsset
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.OwnerIdentity, &a.FileName, &a.CiphertextPath, &a.IsEncrypted, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get asset: %w", err)
	}
	return &a, nil
}

// ListByOwner — файлы владельца, новые сверху.
func (r *AssetRepo) ListByOwner(ctx context.Context, owner string) ([]domain.EncryptedAsset, error) {
	query := `SELECT id, owner_identity, file_name, ciphertext_path, is_encrypted, created_at
		FROM secure_assets WHERE owner_identity = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("postgres: list assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.EncryptedAsset
	for rows.Next() {
		var a domain.EncryptedAsset
		if err := rows.Scan(&a.ID, &a.OwnerIdentity, &a.FileName,
			&a.CiphertextPath, &a.IsEncrypted, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
