package domain

// Protocol — транспортный протокол наблюдаемого трафика.
type Protocol string

const (
	ProtocolTCP Protocol = "TCP"
	ProtocolUDP Protocol = "UDP"
)

// NetAction — что сделал периметр с пакетом (по данным телеметрии).
type NetAction string

const (
	ActionAccept NetAction = "ACCEPT"
	ActionDrop   NetAction = "DROP"
)

// TelemetryRecord — одно структурированное наблюдение сетевой активности.
// Транзиентный вход детектора: сам по себе не персистится, в базу уходит
// уже Event (запись + результат классификации).
type TelemetryRecord struct {
	Port           int       `json:"port"`
	Protocol       Protocol  `json:"protocol"`
	Action         NetAction `json:"action"`
	PacketSize     float64   `json:"packet_size"`
	Duration       float64   `json:"duration"`
	LoginAttempts  int       `json:"login_attempts"`
	SourceIdentity string    `json:"source_identity"`
	SourceIP       string    `json:"source_ip"`
}

// Label — бинарный вердикт классификатора.
type Label string

const (
	LabelNormal Label = "Normal"
	LabelAttack Label = "Attack"
)

// ClassificationResult — результат двухступенчатой классификации.
// Создается ровно один раз на TelemetryRecord и больше не мутируется.
type ClassificationResult struct {
	Label      Label   `json:"label"`
	Subtype    string  `json:"subtype"`    // "Brute Force", "DDoS", ... или "Unknown"/"Normal"
	Confidence float64 `json:"confidence"` // [0, 1]
}
