package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/delivery/internal/activity"
)

// LicenseExpiryScanWorkflow runs daily and records an expiry notice for every
// license whose alert window has opened. Notices are keyed by
// (license_id, end_time_ms), so re-running the scan never notifies twice.
func LicenseExpiryScanWorkflow(ctx workflow.Context) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	nowMs := workflow.Now(ctx).UnixMilli()

	var due []activity.DueLicense
	err := workflow.ExecuteActivity(ctx, "ListDueLicenses", nowMs).Get(ctx, &due)
	if err != nil {
		return fmt.Errorf("list due licenses: %w", err)
	}

	logger := workflow.GetLogger(ctx)

	for _, license := range due {
		var recorded bool
		err := workflow.ExecuteActivity(ctx, "RecordExpiryNotice", activity.RecordExpiryNoticeParams{
			LicenseID: license.ID,
			EndTimeMs: license.EndTimeMs,
		}).Get(ctx, &recorded)
		if err != nil {
			logger.Warn("failed to record expiry notice",
				"licenseID", license.ID, "error", err)
			continue
		}
		if recorded {
			daysLeft := (license.EndTimeMs - nowMs) / (24 * int64(time.Hour/time.Millisecond))
			logger.Info("license expiring",
				"licenseID", license.ID,
				"processID", license.ProcessID,
				"daysLeft", daysLeft)
		}
	}

	return nil
}
