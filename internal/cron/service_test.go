package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeLock struct {
	acquired bool
	err      error
	releases int
}

func (f *fakeLock) Acquire(ctx context.Context) (bool, error) { return f.acquired, f.err }
func (f *fakeLock) Release(ctx context.Context) error {
	f.releases++
	return nil
}

type recordingJob struct {
	name string
	runs int
	err  error
}

func (j *recordingJob) Name() string { return j.name }
func (j *recordingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func newCronService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   cronTestLogger(),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("build cron service: %v", err)
	}
	return svc
}

func TestService_RunCycleRunsAllJobs(t *testing.T) {
	lock := &fakeLock{acquired: true}
	first := &recordingJob{name: "first"}
	second := &recordingJob{name: "second", err: errors.New("boom")}
	third := &recordingJob{name: "third"}
	svc := newCronService(t, lock, first, second, third)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	// A failing job does not stop the cycle.
	if first.runs != 1 || second.runs != 1 || third.runs != 1 {
		t.Fatalf("expected all jobs to run once, got %d/%d/%d", first.runs, second.runs, third.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
}

func TestService_RunCycleSkipsWhenLockHeld(t *testing.T) {
	lock := &fakeLock{acquired: false}
	job := &recordingJob{name: "cleanup"}
	svc := newCronService(t, lock, job)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped, ran %d times", job.runs)
	}
	if lock.releases != 0 {
		t.Fatalf("expected no release without acquire, got %d", lock.releases)
	}
}

func TestService_RunCycleLockError(t *testing.T) {
	lock := &fakeLock{err: errors.New("redis down")}
	svc := newCronService(t, lock, &recordingJob{name: "cleanup"})

	if err := svc.runCycle(context.Background()); err == nil {
		t.Fatal("expected lock error to surface")
	}
}

func TestService_RunStopsOnContextCancel(t *testing.T) {
	lock := &fakeLock{acquired: true}
	job := &recordingJob{name: "cleanup"}
	svc := newCronService(t, lock, job)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cron service did not stop after cancel")
	}
	if job.runs != 1 {
		t.Fatalf("expected exactly the immediate cycle, got %d runs", job.runs)
	}
}
