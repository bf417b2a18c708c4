package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrCryptoFailure — битый шифротекст или чужой ключ. Наверх это всегда
// уходит как InternalError: молча вернуть «похожий на plaintext» мусор
// AEAD не даст по построению.
var ErrCryptoFailure = errors.New("vault: crypto failure")

// Vault — симметричное шифрование файловых payload'ов одним ключом
// на весь процесс (XChaCha20-Poly1305). Ротация ключа вне скоупа.
//
// Жизненный цикл ключа: при первом обращении читаем файл ключа; если его
// нет — генерируем и durably сохраняем ДО первого шифрования. Инициализация
// идемпотентная: внутри процесса барьером служит мьютекс (транзиентный
// провал НЕ кэшируется, следующий вызов пробует снова), между процессами —
// O_CREATE|O_EXCL (проигравший гонку перечитывает ключ победителя,
// расходящихся ключей не бывает).
type Vault struct {
	keyPath string
	logger  *zap.Logger

	mu   sync.Mutex
	aead cipher.AEAD
}

func New(keyPath string, logger *zap.Logger) *Vault {
	return &Vault{
		keyPath: keyPath,
		logger:  logger.Named("vault"),
	}
}

// Encrypt шифрует plaintext. Возвращаемый буфер самодостаточен:
// nonce уходит префиксом шифротекста.
func (v *Vault) Encrypt(plaintext []byte) ([]byte, error) {
	if err := v.ensureKey(); err != nil {
		return nil, err
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: nonce generation: %v", ErrCryptoFailure, err)
	}

	return v.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt расшифровывает буфер, созданный Encrypt. Любая порча
// (усечение, бит-флип, чужой ключ) дает ErrCryptoFailure.
func (v *Vault) Decrypt(ciphertext []byte) ([]byte, error) {
	if err := v.ensureKey(); err != nil {
		return nil, err
	}

	ns := v.aead.NonceSize()
	if len(ciphertext) < ns {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrCryptoFailure)
	}

	nonce, sealed := ciphertext[:ns], ciphertext[ns:]
	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return plaintext, nil
}

func (v *Vault) ensureKey() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.aead != nil {
		return nil
	}

	key, err := v.loadOrGenerateKey()
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return err
	}
	v.aead = aead
	return nil
}

func (v *Vault) loadOrGenerateKey() ([]byte, error) {
	if key, err := os.ReadFile(v.keyPath); err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("vault: key file %s has invalid size %d", v.keyPath, len(key))
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("vault: read key file: %w", err)
	}

	// Первый запуск: генерим ключ и сохраняем ДО каких-либо шифрований
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("vault: key generation: %w", err)
	}

	f, err := os.OpenFile(v.keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			// Параллельный процесс успел первым — берем его ключ.
			// Победитель мог еще не дописать файл, поэтому размер
			// проверяем; недописанный ключ = транзиентная ошибка,
			// следующий вызов перечитает.
			winner, rerr := os.ReadFile(v.keyPath)
			if rerr != nil {
				return nil, fmt.Errorf("vault: read winner key: %w", rerr)
			}
			if len(winner) != chacha20poly1305.KeySize {
				return nil, fmt.Errorf("vault: key file %s not fully written yet (size %d)", v.keyPath, len(winner))
			}
			return winner, nil
		}
		return nil, fmt.Errorf("vault: create key file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(key); err != nil {
		return nil, fmt.Errorf("vault: persist key: %w", err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("vault: fsync key file: %w", err)
	}

	v.logger.Info("generated new process-wide vault key", zap.String("path", v.keyPath))
	return key, nil
}

// Zero затирает транзиентный plaintext-буфер после отдачи ответа.
// Долговременным представлением ассета plaintext не бывает никогда.
func Zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
