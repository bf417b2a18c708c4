package engine

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xela07ax/sentinel-secops/internal/classifier"
	"github.com/xela07ax/sentinel-secops/internal/domain"
	"github.com/xela07ax/sentinel-secops/internal/infra/auth"
	"github.com/xela07ax/sentinel-secops/internal/vault"
)

// Лимит на размер принимаемого файла (сырой плейнтекст в памяти)
const maxUploadBytes = 32 << 20

// Gateway — HTTP-фасад над Core: парсинг запросов, коды ответов,
// метрики латентности. Бизнес-логики здесь нет.
type Gateway struct {
	core    *Core
	metrics *Metrics
	logger  *zap.Logger
}

func NewGateway(core *Core, metrics *Metrics, logger *zap.Logger) *Gateway {
	return &Gateway{core: core, metrics: metrics, logger: logger.Named("gateway")}
}

// HandleTelemetry — POST /v1/telemetry. Принимает сырые строковые поля,
// мусор в числах заменяется дефолтами (источники бывают кривыми,
// ронять прием телеметрии из-за этого нельзя).
func (g *Gateway) HandleTelemetry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "ok"
	defer func() {
		g.metrics.RequestDuration.WithLabelValues("telemetry", status).Observe(time.Since(start).Seconds())
	}()

	var raw map[string]string
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		status = "bad_request"
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	sourceIdentity := auth.Identity(r.Context())
	if sourceIdentity == "" {
		sourceIdentity = r.Header.Get("X-Source-ID")
	}

	rec := classifier.CoerceSubmission(raw, sourceIdentity, remoteIP(r))

	event, err := g.core.SubmitTelemetry(r.Context(), rec)
	if err != nil {
		status = "error"
		g.logger.Error("telemetry submission failed", zap.Error(err))
		http.Error(w, "failed to record event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(event)
}

// HandleUpload — POST /v1/files (multipart, поле "file").
// Анонимная загрузка запрещена: у ассета должен быть владелец.
func (g *Gateway) HandleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "ok"
	defer func() {
		g.metrics.RequestDuration.WithLabelValues("ingest", status).Observe(time.Since(start).Seconds())
	}()

	owner := auth.Identity(r.Context())
	if owner == "" {
		status = "unauthorized"
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		status = "bad_request"
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		status = "bad_request"
		http.Error(w, "form field 'file' is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	plaintext, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		status = "error"
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	asset, err := g.core.IngestFile(r.Context(), owner, header.Filename, plaintext)
	if err != nil {
		status = "error"
		g.logger.Error("file ingest failed", zap.String("owner", owner), zap.Error(err))
		http.Error(w, "failed to store file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(asset)
}

// HandleList — GET /v1/files. Только свои файлы, от новых к старым.
func (g *Gateway) HandleList(w http.ResponseWriter, r *http.Request) {
	owner := auth.Identity(r.Context())
	if owner == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	assets, err := g.core.ListFiles(r.Context(), owner)
	if err != nil {
		g.logger.Error("file listing failed", zap.String("owner", owner), zap.Error(err))
		http.Error(w, "failed to list files", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"files": assets, "count": len(assets)})
}

// HandleDownload — GET /v1/files/{assetID}. Решение принимает Core;
// плейнтекст затирается сразу после отправки.
func (g *Gateway) HandleDownload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "ok"
	defer func() {
		g.metrics.RequestDuration.WithLabelValues("access", status).Observe(time.Since(start).Seconds())
	}()

	assetID := chi.URLParam(r, "assetID")
	requester := auth.Identity(r.Context())

	plaintext, fileName, err := g.core.RequestFile(r.Context(), assetID, requester, remoteIP(r))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAssetNotFound):
			status = "not_found"
			http.Error(w, "file not found", http.StatusNotFound)
		case errors.Is(err, ErrAccessDenied):
			status = "forbidden"
			// tip: Не отдаем причину отказа наружу, она в журнале попыток
			http.Error(w, "access denied", http.StatusForbidden)
		default:
			status = "error"
			g.logger.Error("file access failed",
				zap.String("asset_id", assetID), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Write(plaintext)
	vault.Zero(plaintext)
}

// remoteIP отрезает порт от RemoteAddr.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
