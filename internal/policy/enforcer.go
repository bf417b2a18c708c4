package policy

import "github.com/xela07ax/sentinel-secops/internal/domain"

// Decision — результат точки принятия решения о доступе.
type Decision struct {
	Allowed bool
	Reason  string // заполняется на Deny-пути, уходит в аудит
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Enforcer — контракт Access Decision Point. Проверка выполняется ДО
// любого обращения к шифротексту: на Deny-пути не читается ни байта.
type Enforcer interface {
	Authorize(requesterIdentity string, asset *domain.EncryptedAsset) Decision
}

// OwnerEnforcer — единственное правило системы: доступ имеет только
// владелец ассета. Zero Trust: любая неоднозначность (аноним, nil-ассет,
// пустой владелец) — это Deny, никогда не Allow.
type OwnerEnforcer struct{}

func NewOwnerEnforcer() *OwnerEnforcer { return &OwnerEnforcer{} }

func (e *OwnerEnforcer) Authorize(requesterIdentity string, asset *domain.EncryptedAsset) Decision {
	if asset == nil {
		return deny("asset not resolved")
	}
	if asset.OwnerIdentity == "" {
		// Ассет без владельца — дефект данных, fail-closed
		return deny("asset has no owner")
	}
	if requesterIdentity == "" {
		return deny("missing requester identity")
	}
	if requesterIdentity != asset.OwnerIdentity {
		return deny("not owner")
	}
	return allow()
}
