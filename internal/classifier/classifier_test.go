package classifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/sentinel-secops/internal/domain"
	"go.uber.org/zap"
)

// stubModel — детерминированная «модель» для тестов
type stubModel struct {
	label string
	err   error
	proba []float64
}

func (m *stubModel) Predict(features []float64) (string, error) {
	return m.label, m.err
}

func (m *stubModel) PredictProba(features []float64) ([]float64, error) {
	if m.proba == nil {
		return nil, errors.New("no proba")
	}
	return m.proba, nil
}

func record(port int, proto domain.Protocol, act domain.NetAction, pkt, dur float64, attempts int) domain.TelemetryRecord {
	return domain.TelemetryRecord{
		Port: port, Protocol: proto, Action: act,
		PacketSize: pkt, Duration: dur, LoginAttempts: attempts,
		SourceIdentity: "tester", SourceIP: "10.0.0.1",
	}
}

func TestClassify_NormalTraffic(t *testing.T) {
	// Сценарий: обычный HTTPS-трафик, модель говорит Normal
	c := New(&stubModel{label: "Normal", proba: []float64{0.92, 0.08}}, nil, zap.NewNop())

	res := c.Classify(record(443, domain.ProtocolTCP, domain.ActionAccept, 480, 1.1, 1))

	assert.Equal(t, domain.LabelNormal, res.Label)
	assert.Equal(t, SubtypeNormal, res.Subtype)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.False(t, res.FallbackUsed)
}

func TestClassify_AttackSubtypeRulePriority(t *testing.T) {
	attack := &stubModel{label: "Attack"}

	tests := []struct {
		name string
		rec  domain.TelemetryRecord
		want string
	}{
		{
			// Брутфорс перекрывает все остальные правила, даже если
			// запись подходит и под DDoS
			name: "brute force wins over ddos",
			rec:  record(22, domain.ProtocolTCP, domain.ActionAccept, 1500, 0.1, 9),
			want: "Brute Force",
		},
		{
			// DNS-флуд: packet_size 1350 >= 1200 и duration 0.1 < 0.6,
			// значит DDoS срабатывает раньше, чем Flood
			name: "ddos checked before flood",
			rec:  record(53, domain.ProtocolUDP, domain.ActionAccept, 1350, 0.1, 1),
			want: "DDoS",
		},
		{
			name: "flood when below ddos size threshold",
			rec:  record(53, domain.ProtocolUDP, domain.ActionAccept, 1100, 0.1, 1),
			want: "Flood",
		},
		{
			name: "port scan on privileged port with small packets",
			rec:  record(21, domain.ProtocolTCP, domain.ActionDrop, 120, 2.0, 1),
			want: "Port Scan",
		},
		{
			name: "unknown when nothing matches",
			rec:  record(8080, domain.ProtocolTCP, domain.ActionAccept, 700, 3.0, 2),
			want: SubtypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(attack, nil, zap.NewNop())
			res := c.Classify(tt.rec)
			require.Equal(t, domain.LabelAttack, res.Label)
			assert.Equal(t, tt.want, res.Subtype)
		})
	}
}

func TestClassify_BruteForceProperty(t *testing.T) {
	// login_attempts >= 8 дает Brute Force независимо от остальных полей
	c := New(&stubModel{label: "Attack"}, nil, zap.NewNop())

	recs := []domain.TelemetryRecord{
		record(443, domain.ProtocolTCP, domain.ActionAccept, 5000, 0.01, 8),
		record(53, domain.ProtocolUDP, domain.ActionDrop, 50, 10.0, 15),
		record(22, domain.ProtocolTCP, domain.ActionAccept, 290, 0.05, 100),
	}
	for _, rec := range recs {
		assert.Equal(t, "Brute Force", c.Classify(rec).Subtype)
	}
}

func TestClassify_SubtypeModelPreferred(t *testing.T) {
	// Если subtype-модель есть, эвристика не вызывается
	c := New(&stubModel{label: "Attack"}, &stubModel{label: "SQL Injection"}, zap.NewNop())

	res := c.Classify(record(443, domain.ProtocolTCP, domain.ActionAccept, 1500, 0.1, 9))
	assert.Equal(t, "SQL Injection", res.Subtype)
	assert.False(t, res.FallbackUsed)
}

func TestClassify_SubtypeModelFailureFallsBackToRules(t *testing.T) {
	c := New(&stubModel{label: "Attack"}, &stubModel{err: errors.New("model corrupted")}, zap.NewNop())

	res := c.Classify(record(22, domain.ProtocolTCP, domain.ActionAccept, 100, 1.0, 12))
	assert.Equal(t, "Brute Force", res.Subtype)
	assert.True(t, res.FallbackUsed)
}

func TestClassify_MissingBinaryModel(t *testing.T) {
	c := New(nil, nil, zap.NewNop())

	res := c.Classify(record(22, domain.ProtocolTCP, domain.ActionAccept, 100, 1.0, 50))

	// Консервативный вердикт, но с явным маркером fallback
	assert.Equal(t, domain.LabelNormal, res.Label)
	assert.Equal(t, SubtypeNormal, res.Subtype)
	assert.Equal(t, 1.0, res.Confidence)
	assert.True(t, res.FallbackUsed)
}

func TestClassify_BinaryInferenceError(t *testing.T) {
	c := New(&stubModel{err: errors.New("inference timeout")}, nil, zap.NewNop())

	res := c.Classify(record(443, domain.ProtocolTCP, domain.ActionAccept, 480, 1.1, 1))
	assert.Equal(t, domain.LabelNormal, res.Label)
	assert.True(t, res.FallbackUsed)
}

func TestClassify_ConfidenceDefaultsWithoutProba(t *testing.T) {
	// PredictProba недоступен (ошибка) -> confidence остается 1.0
	m := &stubModel{label: "Attack"} // proba == nil, PredictProba вернет ошибку
	c := New(m, nil, zap.NewNop())

	res := c.Classify(record(8080, domain.ProtocolTCP, domain.ActionAccept, 700, 3.0, 2))
	assert.Equal(t, 1.0, res.Confidence)
}

func TestCoerceSubmission_Defaults(t *testing.T) {
	rec := CoerceSubmission(map[string]string{
		"port":           "not-a-number",
		"protocol":       "ICMP",
		"action":         "REJECT",
		"packet_size":    "-5",
		"duration":       "abc",
		"login_attempts": "",
	}, "alice", "192.168.0.7")

	assert.Equal(t, DefaultPort, rec.Port)
	assert.Equal(t, domain.ProtocolTCP, rec.Protocol)
	assert.Equal(t, domain.ActionAccept, rec.Action)
	assert.Equal(t, DefaultPacketSize, rec.PacketSize)
	assert.Equal(t, DefaultDuration, rec.Duration)
	assert.Equal(t, DefaultLoginAttempts, rec.LoginAttempts)
	assert.Equal(t, "alice", rec.SourceIdentity)
	assert.Equal(t, "192.168.0.7", rec.SourceIP)
}

func TestCoerceSubmission_ValidValues(t *testing.T) {
	rec := CoerceSubmission(map[string]string{
		"port":           "53",
		"protocol":       "udp",
		"action":         "drop",
		"packet_size":    "1350.5",
		"duration":       "0.1",
		"login_attempts": "3",
	}, "bob", "10.1.1.1")

	assert.Equal(t, 53, rec.Port)
	assert.Equal(t, domain.ProtocolUDP, rec.Protocol)
	assert.Equal(t, domain.ActionDrop, rec.Action)
	assert.Equal(t, 1350.5, rec.PacketSize)
	assert.Equal(t, 0.1, rec.Duration)
	assert.Equal(t, 3, rec.LoginAttempts)
}

func TestFeatureVector_FixedOrder(t *testing.T) {
	rec := record(443, domain.ProtocolUDP, domain.ActionDrop, 480, 1.1, 2)
	assert.Equal(t, []float64{443, 0, 0, 480, 1.1, 2}, FeatureVector(rec))

	rec = record(80, domain.ProtocolTCP, domain.ActionAccept, 100, 0.5, 1)
	assert.Equal(t, []float64{80, 1, 1, 100, 0.5, 1}, FeatureVector(rec))
}
