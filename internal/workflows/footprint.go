package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

// TaskQueue is the Temporal task queue the footprint worker polls.
const TaskQueue = "footprint-queue"

// FootprintWorkflow estimates a queued request, stores the record and
// announces it. If the announcement fails, the stored record is deleted
// (saga compensation) so storage and the event stream stay in step.
// It returns the record ID.
func FootprintWorkflow(ctx workflow.Context, req domain.FootprintRequest) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting footprint workflow", "requestID", req.RequestID, "source", req.Source)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Estimate
	var rec domain.FootprintRecord
	if err := workflow.ExecuteActivity(ctx, ActivityEstimateFootprint, req).Get(ctx, &rec); err != nil {
		return "", err
	}

	// Step 2: Store
	if err := workflow.ExecuteActivity(ctx, ActivitySaveFootprint, &rec).Get(ctx, nil); err != nil {
		return "", err
	}

	// Step 3: Announce
	if err := workflow.ExecuteActivity(ctx, ActivityPublishFootprint, &rec).Get(ctx, nil); err != nil {
		logger.Warn("footprint publish failed, compensating", "id", rec.ID, "error", err)
		if derr := workflow.ExecuteActivity(ctx, ActivityDeleteFootprint, rec.ID).Get(ctx, nil); derr != nil {
			logger.Error("compensation failed", "id", rec.ID, "error", derr)
		}
		return "", err
	}

	logger.Info("Footprint recorded", "id", rec.ID, "selectedMode", rec.Report.SelectedMode)
	return rec.ID, nil
}
