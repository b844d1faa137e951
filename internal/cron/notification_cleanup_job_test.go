package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/gharseva/gharseva-backend/pkg/enums"
	"github.com/gharseva/gharseva-backend/pkg/logger"
)

type cleanupCall struct {
	days   int
	status *enums.NotificationStatus
}

type fakeCleanupEngine struct {
	deleted int64
	err     error
	calls   []cleanupCall
}

func (f *fakeCleanupEngine) CleanupOld(ctx context.Context, daysOld int, status *enums.NotificationStatus) (int64, error) {
	f.calls = append(f.calls, cleanupCall{days: daysOld, status: status})
	return f.deleted, f.err
}

func cronTestLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func TestNotificationCleanupJob_DefaultsRetention(t *testing.T) {
	engine := &fakeCleanupEngine{deleted: 12}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger: cronTestLogger(),
		Engine: engine,
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if len(engine.calls) != 3 {
		t.Fatalf("expected 3 sweeps, got %d", len(engine.calls))
	}
	if engine.calls[0].days != notificationRetentionDays {
		t.Fatalf("expected default retention %d, got %d", notificationRetentionDays, engine.calls[0].days)
	}
	if engine.calls[0].status == nil || *engine.calls[0].status != enums.NotificationStatusRead {
		t.Fatalf("expected first sweep to target read rows, got %v", engine.calls[0].status)
	}
	if engine.calls[2].status != nil {
		t.Fatalf("expected final sweep to be status-agnostic, got %v", *engine.calls[2].status)
	}
	if engine.calls[2].days != notificationRetentionDays*unreadRetentionMultiplier {
		t.Fatalf("expected extended retention for unread rows, got %d", engine.calls[2].days)
	}
}

func TestNotificationCleanupJob_PropagatesFailure(t *testing.T) {
	engine := &fakeCleanupEngine{err: errors.New("db down")}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:    cronTestLogger(),
		Engine:    engine,
		Retention: 7,
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error from failed cleanup")
	}
	// All sweeps still run; a failing pass does not stop the rest.
	if len(engine.calls) != 3 {
		t.Fatalf("expected 3 sweeps despite failures, got %d", len(engine.calls))
	}
	if engine.calls[0].days != 7 {
		t.Fatalf("expected configured retention 7, got %d", engine.calls[0].days)
	}
}

func TestNotificationCleanupJob_RequiresDependencies(t *testing.T) {
	if _, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: cronTestLogger()}); err == nil {
		t.Fatal("expected error for missing engine")
	}
	if _, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Engine: &fakeCleanupEngine{}}); err == nil {
		t.Fatal("expected error for missing logger")
	}
}
