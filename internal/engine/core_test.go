package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/sentinel-secops/internal/audit"
	"github.com/xela07ax/sentinel-secops/internal/classifier"
	"github.com/xela07ax/sentinel-secops/internal/domain"
	"github.com/xela07ax/sentinel-secops/internal/policy"
	"github.com/xela07ax/sentinel-secops/internal/vault"
)

// --- Фейки хранилищ и каналов ---

type memAssetStore struct {
	mu     sync.Mutex
	assets map[string]domain.EncryptedAsset
	gets   int
}

func newMemAssetStore() *memAssetStore {
	return &memAssetStore{assets: make(map[string]domain.EncryptedAsset)}
}

func (s *memAssetStore) InsertAsset(_ context.Context, a domain.EncryptedAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = a
	return nil
}

func (s *memAssetStore) MarkEncrypted(_ context.Context, id, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok || a.IsEncrypted {
		return errors.New("asset missing or already encrypted")
	}
	a.CiphertextPath = path
	a.IsEncrypted = true
	s.assets[id] = a
	return nil
}

func (s *memAssetStore) GetAsset(_ context.Context, id string) (*domain.EncryptedAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	a, ok := s.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return &a, nil
}

func (s *memAssetStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *memAssetStore) ListByOwner(_ context.Context, owner string) ([]domain.EncryptedAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.EncryptedAsset
	for _, a := range s.assets {
		if a.OwnerIdentity == owner {
			out = append(out, a)
		}
	}
	return out, nil
}

type memSink struct {
	mu       sync.Mutex
	events   []domain.Event
	attempts []domain.AccessAttempt
	failing  bool
}

func (s *memSink) InsertEvent(_ context.Context, e domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("storage down")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *memSink) InsertAttempt(_ context.Context, a domain.AccessAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("storage down")
	}
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *memSink) attemptsFor(assetID string) []domain.AccessAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AccessAttempt
	for _, a := range s.attempts {
		if a.TargetAssetID == assetID {
			out = append(out, a)
		}
	}
	return out
}

type alertRecorder struct {
	mu       sync.Mutex
	payloads []domain.AlertPayload
	failing  bool
}

func (r *alertRecorder) Notify(_ context.Context, p domain.AlertPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("broker unreachable")
	}
	r.payloads = append(r.payloads, p)
	return nil
}

func (r *alertRecorder) all() []domain.AlertPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AlertPayload(nil), r.payloads...)
}

type watchlistRecorder struct {
	mu     sync.Mutex
	marked []string
}

func (r *watchlistRecorder) Mark(_ context.Context, sourceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marked = append(r.marked, sourceID)
}

type noopJournalStorage struct{}

func (noopJournalStorage) WriteBatch(context.Context, []audit.JournalEntry) error { return nil }

// trackingBlobs оборачивает настоящий BlobStore, чтобы проверять,
// что до Allow никто не читает шифротекст.
type trackingBlobs struct {
	inner *vault.BlobStore
	mu    sync.Mutex
	loads int
}

func (b *trackingBlobs) Save(assetID string, ciphertext []byte) (string, error) {
	return b.inner.Save(assetID, ciphertext)
}

func (b *trackingBlobs) Load(path string) ([]byte, error) {
	b.mu.Lock()
	b.loads++
	b.mu.Unlock()
	return b.inner.Load(path)
}

func (b *trackingBlobs) loadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads
}

type stubModel struct {
	label string
	err   error
}

func (m stubModel) Predict([]float64) (string, error) { return m.label, m.err }

// --- Сборка тестового ядра ---

type coreFixture struct {
	core    *Core
	sink    *memSink
	alerts  *alertRecorder
	watch   *watchlistRecorder
	assets  *memAssetStore
	blobs   *trackingBlobs
	journal *audit.Journal
}

func newCoreFixture(t *testing.T, binary, subtype classifier.Model) *coreFixture {
	t.Helper()
	logger := zap.NewNop()
	dir := t.TempDir()

	v := vault.New(filepath.Join(dir, "master.key"), logger)
	store, err := vault.NewBlobStore(filepath.Join(dir, "blobs"), "", logger)
	require.NoError(t, err)

	sink := &memSink{}
	alerts := &alertRecorder{}
	watch := &watchlistRecorder{}
	assets := newMemAssetStore()
	blobs := &trackingBlobs{inner: store}

	journal := audit.NewJournal(noopJournalStorage{}, 16, 4, 50*time.Millisecond, logger)
	journal.Start()
	t.Cleanup(journal.Stop)

	core := NewCore(
		classifier.New(binary, subtype, logger),
		policy.NewOwnerEnforcer(),
		v, blobs, assets,
		audit.NewTrail(sink, sink, logger),
		journal, alerts, watch,
		NewMetrics(nil), logger,
	)

	return &coreFixture{
		core: core, sink: sink, alerts: alerts, watch: watch,
		assets: assets, blobs: blobs, journal: journal,
	}
}

func attackTelemetry() domain.TelemetryRecord {
	return domain.TelemetryRecord{
		SourceIdentity: "sensor-7",
		SourceIP:       "203.0.113.9",
		Port:           22,
		Protocol:       domain.ProtocolTCP,
		Action:         domain.ActionAccept,
		PacketSize:     400,
		Duration:       2.0,
		LoginAttempts:  12,
	}
}

// --- Телеметрия ---

func TestSubmitTelemetry_AttackAlertsAndMarksWatchlist(t *testing.T) {
	fx := newCoreFixture(t, stubModel{label: "Attack"}, stubModel{label: "Brute Force"})

	e, err := fx.core.SubmitTelemetry(context.Background(), attackTelemetry())
	require.NoError(t, err)

	assert.Equal(t, domain.LabelAttack, e.Label)
	assert.Equal(t, "Brute Force", e.Subtype)
	require.Len(t, fx.sink.events, 1, "event must be persisted")

	alerts := fx.alerts.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertIntrusion, alerts[0].Kind)
	assert.Equal(t, e.ID, alerts[0].EventID)
	assert.Equal(t, "203.0.113.9", alerts[0].SourceIP)

	assert.Equal(t, []string{"sensor-7"}, fx.watch.marked)
}

func TestSubmitTelemetry_NormalTrafficIsSilent(t *testing.T) {
	fx := newCoreFixture(t, stubModel{label: "Normal"}, nil)

	rec := attackTelemetry()
	rec.LoginAttempts = 1
	e, err := fx.core.SubmitTelemetry(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, domain.LabelNormal, e.Label)
	assert.Empty(t, fx.alerts.all(), "normal traffic must not alert")
	assert.Empty(t, fx.watch.marked)
	require.Len(t, fx.sink.events, 1, "normal events are still audited")
}

func TestSubmitTelemetry_AuditFailureIsFatal(t *testing.T) {
	fx := newCoreFixture(t, stubModel{label: "Attack"}, stubModel{label: "DDoS"})
	fx.sink.failing = true

	_, err := fx.core.SubmitTelemetry(context.Background(), attackTelemetry())
	require.Error(t, err, "event not durably recorded means submission failed")
	assert.Empty(t, fx.alerts.all(), "no alert without an audited event")
	assert.Empty(t, fx.watch.marked)
}

func TestSubmitTelemetry_AlertFailureDoesNotFailRequest(t *testing.T) {
	fx := newCoreFixture(t, stubModel{label: "Attack"}, stubModel{label: "Flood"})
	fx.alerts.failing = true

	e, err := fx.core.SubmitTelemetry(context.Background(), attackTelemetry())
	require.NoError(t, err, "alert channel is best-effort")
	assert.Equal(t, domain.LabelAttack, e.Label)
	require.Len(t, fx.sink.events, 1)
	assert.Equal(t, []string{"sensor-7"}, fx.watch.marked, "watchlist mark survives alert failure")
}

func TestSubmitTelemetry_TimestampsMonotonic(t *testing.T) {
	fx := newCoreFixture(t, stubModel{label: "Normal"}, nil)

	var prev time.Time
	for i := 0; i < 50; i++ {
		e, err := fx.core.SubmitTelemetry(context.Background(), attackTelemetry())
		require.NoError(t, err)
		assert.True(t, e.Timestamp.After(prev), "timestamps must strictly grow")
		prev = e.Timestamp
	}
}

// --- Доступ к файлам: четыре терминальных исхода ---

func ingest(t *testing.T, fx *coreFixture, owner string, content []byte) domain.EncryptedAsset {
	t.Helper()
	asset, err := fx.core.IngestFile(context.Background(), owner, "report.pdf", content)
	require.NoError(t, err)
	require.True(t, asset.IsEncrypted)
	return asset
}

func TestRequestFile_OwnerRoundTrip(t *testing.T) {
	fx := newCoreFixture(t, nil, nil)
	content := []byte("quarterly incident report")
	asset := ingest(t, fx, "alice", append([]byte(nil), content...))

	plaintext, name, err := fx.core.RequestFile(context.Background(), asset.ID, "alice", "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, content, plaintext)
	assert.Equal(t, "report.pdf", name)

	attempts := fx.sink.attemptsFor(asset.ID)
	require.Len(t, attempts, 1, "exactly one attempt per terminal outcome")
	assert.Equal(t, domain.OutcomeSuccess, attempts[0].Outcome)
	assert.Empty(t, fx.alerts.all(), "success never alerts")
}

func TestRequestFile_NonOwnerDeniedWithAlert(t *testing.T) {
	fx := newCoreFixture(t, nil, nil)
	asset := ingest(t, fx, "alice", []byte("secret"))

	_, _, err := fx.core.RequestFile(context.Background(), asset.ID, "mallory", "198.51.100.3")
	require.ErrorIs(t, err, ErrAccessDenied)

	attempts := fx.sink.attemptsFor(asset.ID)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.OutcomeUnauthorized, attempts[0].Outcome)
	assert.Equal(t, "mallory", attempts[0].RequesterIdentity)

	assert.Equal(t, 0, fx.blobs.loadCount(), "ciphertext untouched before Allow")

	alerts := fx.alerts.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertAccessViolation, alerts[0].Kind)
	assert.Equal(t, domain.OutcomeUnauthorized, alerts[0].Outcome)
}

func TestRequestFile_AnonymousDenied(t *testing.T) {
	fx := newCoreFixture(t, nil, nil)
	asset := ingest(t, fx, "alice", []byte("secret"))

	_, _, err := fx.core.RequestFile(context.Background(), asset.ID, "", "198.51.100.3")
	require.ErrorIs(t, err, ErrAccessDenied)

	attempts := fx.sink.attemptsFor(asset.ID)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.OutcomeUnauthorized, attempts[0].Outcome)
	assert.Empty(t, attempts[0].RequesterIdentity, "anonymous requester stays empty")

	alerts := fx.alerts.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, "198.51.100.3", alerts[0].SourceIP)
}

func TestRequestFile_MissingAssetNoAlert(t *testing.T) {
	fx := newCoreFixture(t, nil, nil)
	absent := uuid.NewString()

	_, _, err := fx.core.RequestFile(context.Background(), absent, "alice", "10.0.0.5")
	require.ErrorIs(t, err, domain.ErrAssetNotFound)

	attempts := fx.sink.attemptsFor(absent)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.OutcomeNotFound, attempts[0].Outcome)

	assert.Empty(t, fx.alerts.all(), "missing asset is not a violation")
	assert.Equal(t, 0, fx.blobs.loadCount(), "no decryption path for missing asset")
}

func TestRequestFile_MalformedAssetIDIsNotFound(t *testing.T) {
	fx := newCoreFixture(t, nil, nil)

	_, _, err := fx.core.RequestFile(context.Background(), "garbage", "alice", "10.0.0.5")
	require.ErrorIs(t, err, domain.ErrAssetNotFound)

	// Мусорный идентификатор отсекается до хранилища и все равно
	// оставляет ровно одну запись о попытке.
	attempts := fx.sink.attemptsFor("garbage")
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.OutcomeNotFound, attempts[0].Outcome)

	assert.Equal(t, 0, fx.assets.getCount(), "store must not see malformed ids")
	assert.Empty(t, fx.alerts.all())
}

func TestRequestFile_CorruptCiphertextIsInternalError(t *testing.T) {
	fx := newCoreFixture(t, nil, nil)
	asset := ingest(t, fx, "alice", []byte("secret"))

	// Портим blob на диске
	raw, err := fx.blobs.inner.Load(asset.CiphertextPath)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	_, err = fx.blobs.inner.Save(asset.ID, raw)
	require.NoError(t, err)

	_, _, err = fx.core.RequestFile(context.Background(), asset.ID, "alice", "10.0.0.5")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAccessDenied)
	require.NotErrorIs(t, err, domain.ErrAssetNotFound)

	attempts := fx.sink.attemptsFor(asset.ID)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.OutcomeInternalError, attempts[0].Outcome)

	alerts := fx.alerts.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.OutcomeInternalError, alerts[0].Outcome)
}

func TestRequestFile_AuditFailureBlocksPlaintext(t *testing.T) {
	fx := newCoreFixture(t, nil, nil)
	asset := ingest(t, fx, "alice", []byte("secret"))
	fx.sink.failing = true

	plaintext, _, err := fx.core.RequestFile(context.Background(), asset.ID, "alice", "10.0.0.5")
	require.Error(t, err, "no audit record, no plaintext")
	assert.Nil(t, plaintext)
}

func TestIngestFile_RequiresOwner(t *testing.T) {
	fx := newCoreFixture(t, nil, nil)

	_, err := fx.core.IngestFile(context.Background(), "", "x.txt", []byte("data"))
	require.Error(t, err)
}

func TestIngestFile_ZeroesPlaintextBuffer(t *testing.T) {
	fx := newCoreFixture(t, nil, nil)

	buf := []byte("sensitive payload")
	_, err := fx.core.IngestFile(context.Background(), "alice", "x.txt", buf)
	require.NoError(t, err)

	for _, b := range buf {
		assert.Zero(t, b, "caller buffer must be wiped after encryption")
	}
}
