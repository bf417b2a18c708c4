package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ErrBlobMissing — шифротекст ассета отсутствует в хранилище.
var ErrBlobMissing = errors.New("vault: ciphertext blob missing")

// BlobStore — файловое хранилище шифротекстов. Plaintext сюда не
// попадает ни при каких исходах. Отдельный backup-каталог имитирует
// «публичную» половину гибридного облака: копия best-effort, ее провал
// логируется и не влияет на ingest.
type BlobStore struct {
	dir       string
	backupDir string
	logger    *zap.Logger
}

func NewBlobStore(dir, backupDir string, logger *zap.Logger) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("vault: create blob dir: %w", err)
	}
	if backupDir != "" {
		if err := os.MkdirAll(backupDir, 0o700); err != nil {
			return nil, fmt.Errorf("vault: create backup dir: %w", err)
		}
	}
	return &BlobStore{dir: dir, backupDir: backupDir, logger: logger.Named("blobstore")}, nil
}

// Save кладет шифротекст ассета и возвращает его путь.
func (s *BlobStore) Save(assetID string, ciphertext []byte) (string, error) {
	path := filepath.Join(s.dir, assetID+".enc")
	if err := os.WriteFile(path, ciphertext, 0o600); err != nil {
		return "", fmt.Errorf("vault: write blob: %w", err)
	}

	s.backup(path, ciphertext)
	return path, nil
}

// Load читает шифротекст по пути из метаданных ассета.
func (s *BlobStore) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobMissing
		}
		return nil, fmt.Errorf("vault: read blob: %w", err)
	}
	return data, nil
}

func (s *BlobStore) backup(path string, ciphertext []byte) {
	if s.backupDir == "" {
		return
	}
	copyPath := filepath.Join(s.backupDir, filepath.Base(path))
	if err := os.WriteFile(copyPath, ciphertext, 0o600); err != nil {
		s.logger.Warn("hybrid cloud backup failed", zap.String("path", copyPath), zap.Error(err))
		return
	}
	s.logger.Debug("ciphertext backed up", zap.String("path", copyPath))
}
