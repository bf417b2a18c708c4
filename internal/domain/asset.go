package domain

import (
	"errors"
	"time"
)

// ErrAssetNotFound — ассет с таким identity не существует.
// Наверх уходит как исход NotFound (fail-closed, не Allow).
var ErrAssetNotFound = errors.New("asset not found")

// EncryptedAsset — файл, принятый на зашифрованное хранение.
// Принадлежит ровно одному владельцу; OwnerIdentity после создания
// не меняется. Флаг IsEncrypted переходит false -> true ровно один раз,
// вместе с записью шифротекста, и обратно не откатывается.
type EncryptedAsset struct {
	ID             string    `json:"id"` // UUID
	OwnerIdentity  string    `json:"owner_identity"`
	FileName       string    `json:"file_name"`       // человекочитаемое имя при загрузке
	CiphertextPath string    `json:"ciphertext_path"` // путь к blob в хранилище
	IsEncrypted    bool      `json:"is_encrypted"`
	CreatedAt      time.Time `json:"created_at"`
}
