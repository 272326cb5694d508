package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
	"github.com/samirrijal/tripfootprint/internal/core/usecases"
)

// Activity names as registered on the worker.
const (
	ActivityEstimateFootprint = "EstimateFootprint"
	ActivitySaveFootprint     = "SaveFootprint"
	ActivityPublishFootprint  = "PublishFootprint"
	ActivityDeleteFootprint   = "DeleteFootprint"
)

// errTypeInvalidInput tags application errors that must not be retried.
const errTypeInvalidInput = "InvalidInput"

// FootprintActivities holds the activity implementations for the footprint workflow.
type FootprintActivities struct {
	Footprints *usecases.FootprintService
}

// EstimateFootprint computes the report and wraps it in a record. Requests
// that can never succeed fail without retries.
func (a *FootprintActivities) EstimateFootprint(ctx context.Context, req domain.FootprintRequest) (*domain.FootprintRecord, error) {
	report, err := a.Footprints.EstimateRequest(ctx, &req)
	if err != nil {
		if domain.IsInvalidInput(err) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidInput, err)
		}
		return nil, fmt.Errorf("estimate footprint: %w", err)
	}
	return a.Footprints.NewRecord(&req, report), nil
}

// SaveFootprint persists the record.
func (a *FootprintActivities) SaveFootprint(ctx context.Context, rec *domain.FootprintRecord) error {
	return a.Footprints.Save(ctx, rec)
}

// PublishFootprint announces the record. A service without a publisher
// skips the announcement.
func (a *FootprintActivities) PublishFootprint(ctx context.Context, rec *domain.FootprintRecord) error {
	err := a.Footprints.Publish(ctx, rec)
	if errors.Is(err, domain.ErrMessagingUnavailable) {
		slog.Debug("no publisher configured, skipping footprint event", "id", rec.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("publish footprint %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteFootprint removes a record (saga compensation / rollback).
func (a *FootprintActivities) DeleteFootprint(ctx context.Context, id string) error {
	if err := a.Footprints.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete footprint %s: %w", id, err)
	}
	slog.Info("footprint deleted (saga compensation)", "id", id)
	return nil
}
