package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/gharseva/gharseva-backend/pkg/enums"
	"github.com/gharseva/gharseva-backend/pkg/logger"
)

const (
	notificationRetentionDays = 30

	// Unread rows are kept three times longer than handled ones so a
	// user coming back from a long absence still sees what they missed.
	unreadRetentionMultiplier = 3
)

// cleanupEngine is the slice of the automation engine this job needs.
type cleanupEngine interface {
	CleanupOld(ctx context.Context, daysOld int, status *enums.NotificationStatus) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger    *logger.Logger
	Engine    cleanupEngine
	Retention int
}

// NewNotificationCleanupJob builds the daily retention sweep. It backs
// up the probabilistic per-request cleanup so retention holds even on a
// quiet deployment with little traffic.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("automation engine required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = notificationRetentionDays
	}
	return &notificationCleanupJob{
		logg:      params.Logger,
		engine:    params.Engine,
		retention: retention,
	}, nil
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	engine    cleanupEngine
	retention int
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	read := enums.NotificationStatusRead
	dismissed := enums.NotificationStatusDismissed
	sweeps := []struct {
		label  string
		days   int
		status *enums.NotificationStatus
	}{
		{label: "read", days: j.retention, status: &read},
		{label: "dismissed", days: j.retention, status: &dismissed},
		{label: "any", days: j.retention * unreadRetentionMultiplier, status: nil},
	}

	var errs []error
	var total int64
	for _, sweep := range sweeps {
		deleted, err := j.engine.CleanupOld(ctx, sweep.days, sweep.status)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s sweep: %w", sweep.label, err))
			continue
		}
		total += deleted
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_days": j.retention,
		"rows_deleted":   total,
	})
	j.logg.Info(logCtx, "notification cleanup complete")
	return multierr.Combine(errs...)
}
