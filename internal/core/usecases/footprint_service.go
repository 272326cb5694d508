package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
	"github.com/samirrijal/tripfootprint/internal/core/footprint"
	"github.com/samirrijal/tripfootprint/internal/core/ports"
	"github.com/samirrijal/tripfootprint/internal/pkg/metrics"
	"github.com/samirrijal/tripfootprint/internal/pkg/telemetry"
)

const (
	defaultCacheTTL  = 300
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxSourceLen     = 32
	defaultSource    = "api"
)

// FootprintService estimates, stores and publishes itinerary footprints.
type FootprintService struct {
	estimator  *footprint.Estimator
	footprints ports.FootprintRepository
	cache      ports.CacheService
	publisher  ports.EventPublisher
	cacheTTL   int
	tableKey   string
	group      singleflight.Group
	now        func() time.Time
}

// NewFootprintService creates a new FootprintService. Any port may be nil; the
// operations that need a missing port fail with a sentinel error.
func NewFootprintService(estimator *footprint.Estimator, footprints ports.FootprintRepository, cache ports.CacheService, publisher ports.EventPublisher) *FootprintService {
	return &FootprintService{
		estimator:  estimator,
		footprints: footprints,
		cache:      cache,
		publisher:  publisher,
		cacheTTL:   defaultCacheTTL,
		tableKey:   estimator.Table().Fingerprint(),
		now:        time.Now,
	}
}

// WithCacheTTL sets how long estimates stay cached. A non-positive ttl turns
// the estimate cache off.
func (s *FootprintService) WithCacheTTL(ttl time.Duration) *FootprintService {
	if ttl <= 0 {
		s.cacheTTL = 0
		return s
	}
	s.cacheTTL = int((ttl + time.Second - 1) / time.Second)
	return s
}

// Estimate computes the emissions report for an itinerary. Identical requests
// in flight share one computation and results are cached.
func (s *FootprintService) Estimate(ctx context.Context, it domain.Itinerary, opts domain.EstimateOptions) (*domain.EmissionsReport, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "FootprintService.Estimate")
	defer span.End()

	if opts.SelectedMode == "" {
		opts.SelectedMode = s.estimator.Table().DefaultMode
	}
	span.SetAttributes(
		attribute.Int(telemetry.AttrItineraryDays, len(it.Days)),
		attribute.Int(telemetry.AttrItineraryStops, it.StopCount()),
		attribute.String(telemetry.AttrSelectedMode, opts.SelectedMode),
	)

	key, err := s.estimateCacheKey(it, opts)
	if err != nil {
		return nil, err
	}

	if report, ok := s.cachedReport(ctx, key); ok {
		span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
		metrics.EstimationsTotal.WithLabelValues(telemetry.OutcomeOK).Inc()
		return report, nil
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	v, err, shared := s.group.Do(key, func() (any, error) {
		report, err := s.estimator.Estimate(it, opts)
		if err != nil {
			return nil, err
		}
		s.storeReport(ctx, key, report)
		metrics.TripDistanceKm.Observe(report.TotalDistanceKm)
		metrics.SelectedModeEmissionsKg.WithLabelValues(report.SelectedMode).Observe(report.SelectedModeEmissionsKg)
		return report, nil
	})
	span.SetAttributes(attribute.Bool(telemetry.AttrShared, shared))
	metrics.EstimationsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Callers sharing a flight get their own copy of the top-level struct.
	report := *v.(*domain.EmissionsReport)
	span.SetAttributes(
		attribute.Float64(telemetry.AttrDistanceKm, report.TotalDistanceKm),
		attribute.Float64(telemetry.AttrEmissionsKg, report.SelectedModeEmissionsKg),
	)
	return &report, nil
}

// EstimateRequest resolves the itinerary carried by req and estimates it.
func (s *FootprintService) EstimateRequest(ctx context.Context, req *domain.FootprintRequest) (*domain.EmissionsReport, error) {
	it, ok := req.ResolveItinerary()
	if !ok {
		return nil, domain.ErrMissingItinerary
	}
	return s.Estimate(ctx, it, req.Options())
}

// Record estimates the request, stores the result and announces it.
func (s *FootprintService) Record(ctx context.Context, req *domain.FootprintRequest) (*domain.FootprintRecord, error) {
	if s.footprints == nil {
		return nil, domain.ErrStorageUnavailable
	}

	report, err := s.EstimateRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	rec := s.NewRecord(req, report)
	if err := s.Save(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.Publish(ctx, rec); err != nil && !errors.Is(err, domain.ErrMessagingUnavailable) {
		slog.Warn("footprint publish failed", "id", rec.ID, "error", err)
	}
	return rec, nil
}

// NewRecord wraps a report in a record. The request ID, when set, becomes the
// record ID so retried deliveries overwrite rather than duplicate.
func (s *FootprintService) NewRecord(req *domain.FootprintRequest, report *domain.EmissionsReport) *domain.FootprintRecord {
	id := req.RequestID
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	return &domain.FootprintRecord{
		ID:        id,
		Source:    NormalizeSource(req.Source),
		Report:    *report,
		CreatedAt: s.now().UTC(),
	}
}

// Save persists a record.
func (s *FootprintService) Save(ctx context.Context, rec *domain.FootprintRecord) error {
	if s.footprints == nil {
		return domain.ErrStorageUnavailable
	}
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "FootprintService.Save")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrFootprintID, rec.ID),
		attribute.String(telemetry.AttrSource, rec.Source),
	)

	if err := s.footprints.Save(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("save footprint %s: %w", rec.ID, err)
	}
	metrics.FootprintsRecorded.WithLabelValues(rec.Source).Inc()
	return nil
}

// Publish announces a stored record.
func (s *FootprintService) Publish(ctx context.Context, rec *domain.FootprintRecord) error {
	if s.publisher == nil {
		return domain.ErrMessagingUnavailable
	}
	return s.publisher.PublishFootprint(ctx, rec)
}

// Delete removes a record.
func (s *FootprintService) Delete(ctx context.Context, id string) error {
	if s.footprints == nil {
		return domain.ErrStorageUnavailable
	}
	return s.footprints.Delete(ctx, id)
}

// Get returns a stored record by ID.
func (s *FootprintService) Get(ctx context.Context, id string) (*domain.FootprintRecord, error) {
	if s.footprints == nil {
		return nil, domain.ErrStorageUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.footprints.GetByID(ctx, id)
}

// List returns stored records newest first along with the total count.
func (s *FootprintService) List(ctx context.Context, offset, limit int) ([]domain.FootprintRecord, int, error) {
	if s.footprints == nil {
		return nil, 0, domain.ErrStorageUnavailable
	}
	offset, limit = ClampPage(offset, limit)
	return s.footprints.List(ctx, offset, limit)
}

// Enqueue validates a request and hands it to the worker. It returns the
// request ID the stored record will carry.
func (s *FootprintService) Enqueue(ctx context.Context, req *domain.FootprintRequest) (string, error) {
	if s.publisher == nil {
		return "", domain.ErrMessagingUnavailable
	}
	if _, err := s.EstimateRequest(ctx, req); err != nil {
		return "", err
	}

	queued := *req
	queued.RequestID = uuid.NewString()
	queued.Source = NormalizeSource(req.Source)
	if err := s.publisher.PublishFootprintRequest(ctx, &queued); err != nil {
		return "", fmt.Errorf("enqueue footprint request: %w", err)
	}
	return queued.RequestID, nil
}

// TransportModes returns the active factor catalog.
func (s *FootprintService) TransportModes() domain.FactorCatalog {
	t := s.estimator.Table()
	return domain.FactorCatalog{
		Modes:            append([]domain.EmissionFactor(nil), t.Modes...),
		Accommodations:   append([]domain.AccommodationFactor(nil), t.Accommodations...),
		DefaultMode:      t.DefaultMode,
		TreeKgPerYear:    t.TreeKgPerYear,
		LEDBulbKgPerYear: t.LEDBulbKgPerYear,
	}
}

func (s *FootprintService) cachedReport(ctx context.Context, key string) (*domain.EmissionsReport, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var report domain.EmissionsReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}
	return &report, true
}

func (s *FootprintService) storeReport(ctx context.Context, key string, report *domain.EmissionsReport) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		slog.Debug("estimate cache set failed", "error", err)
	}
}

// estimateCacheKey covers the factor table too: services with different
// factors may share one cache.
func (s *FootprintService) estimateCacheKey(it domain.Itinerary, opts domain.EstimateOptions) (string, error) {
	data, err := json.Marshal(struct {
		Factors   string                 `json:"factors"`
		Itinerary domain.Itinerary       `json:"itinerary"`
		Options   domain.EstimateOptions `json:"options"`
	}{s.tableKey, it, opts})
	if err != nil {
		return "", fmt.Errorf("encode estimate key: %w", err)
	}
	sum := sha256.Sum256(data)
	return "footprint:estimate:" + hex.EncodeToString(sum[:]), nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeOK
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return telemetry.OutcomeInvalidCoordinate
	case errors.Is(err, domain.ErrUnknownTransportMode):
		return telemetry.OutcomeUnknownMode
	case errors.Is(err, domain.ErrUnknownAccommodation):
		return telemetry.OutcomeUnknownLodging
	default:
		return telemetry.OutcomeError
	}
}

// NormalizeSource lower-cases a source tag and keeps only characters safe for
// a NATS subject token. Empty results fall back to "api".
func NormalizeSource(source string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(source)) {
		if b.Len() >= maxSourceLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return defaultSource
	}
	return b.String()
}

// ClampPage bounds pagination parameters.
func ClampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit
}
