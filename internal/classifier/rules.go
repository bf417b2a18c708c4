package classifier

import "github.com/xela07ax/sentinel-secops/internal/domain"

// SubtypeUnknown — подтип атаки, не попавшей ни под одно правило.
const SubtypeUnknown = "Unknown"

// SubtypeNormal — подтип для label = Normal (безусловно).
const SubtypeNormal = "Normal"

// subtypeRule — (предикат, метка). Правила лежат в упорядоченном срезе:
// выигрывает первое совпадение. Предикаты пересекаются (запись может
// подходить и под DDoS, и под Flood) — приоритет задается порядком,
// а не условиями.
type subtypeRule struct {
	name  string
	match func(r domain.TelemetryRecord) bool
}

var subtypeRules = []subtypeRule{
	{"Brute Force", func(r domain.TelemetryRecord) bool {
		return r.LoginAttempts >= 8
	}},
	{"DDoS", func(r domain.TelemetryRecord) bool {
		return r.PacketSize >= 1200 && r.Duration < 0.6
	}},
	{"Flood", func(r domain.TelemetryRecord) bool {
		return r.PacketSize >= 1000 && r.Duration < 0.2
	}},
	{"Port Scan", func(r domain.TelemetryRecord) bool {
		return r.Port < 1024 && r.PacketSize < 300
	}},
}

// fallbackSubtype — детерминированная эвристика подтипа, когда
// subtype-модель недоступна.
func fallbackSubtype(r domain.TelemetryRecord) string {
	for _, rule := range subtypeRules {
		if rule.match(r) {
			return rule.name
		}
	}
	return SubtypeUnknown
}
