package cron

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/freshmart/storefront-backend/pkg/logger"
	"github.com/freshmart/storefront-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeLock struct {
	held       bool
	acquireErr error
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (c *countingJob) Name() string { return c.name }

func (c *countingJob) Run(context.Context) error {
	c.runs++
	return c.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "maintenance-test", Output: &buf}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, &buf
}

func TestRunOnceRunsEveryJobDespiteFailures(t *testing.T) {
	ok := &countingJob{name: "ok"}
	broken := &countingJob{name: "broken", err: errors.New("boom")}
	after := &countingJob{name: "after"}
	lock := &fakeLock{}
	svc, buf := newTestService(t, lock, ok, broken, after)

	if !svc.RunOnce(context.Background()) {
		t.Fatal("expected cycle to run")
	}
	for _, job := range []*countingJob{ok, broken, after} {
		if job.runs != 1 {
			t.Fatalf("%s ran %d times", job.name, job.runs)
		}
	}
	if lock.held || lock.releases != 1 {
		t.Fatalf("lock not released: held=%v releases=%d", lock.held, lock.releases)
	}
	if !strings.Contains(buf.String(), "maintenance.job_failed") {
		t.Fatalf("expected failure log, got %s", buf.String())
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &countingJob{name: "ok"}
	svc, _ := newTestService(t, &fakeLock{held: true}, job)

	if svc.RunOnce(context.Background()) {
		t.Fatal("expected cycle to be skipped")
	}
	if job.runs != 0 {
		t.Fatalf("job ran while locked")
	}
}

func TestRunOnceSkipsOnLockError(t *testing.T) {
	job := &countingJob{name: "ok"}
	svc, _ := newTestService(t, &fakeLock{acquireErr: errors.New("redis down")}, job)

	if svc.RunOnce(context.Background()) {
		t.Fatal("expected cycle to be skipped")
	}
	if job.runs != 0 {
		t.Fatalf("job ran without lock")
	}
}

func TestRunRecordsJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, _ := newTestService(t, &fakeLock{}, &countingJob{name: "ok"}, &countingJob{name: "broken", err: errors.New("boom")})
	svc.metrics = metrics.NewJobMetrics(reg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n, err := testutil.GatherAndCount(reg, "storefront_job_runs_total"); err != nil || n != 0 {
		t.Fatalf("jobs ran after cancellation: n=%d err=%v", n, err)
	}

	svc.RunOnce(context.Background())
	if n, err := testutil.GatherAndCount(reg, "storefront_job_runs_total"); err != nil || n != 2 {
		t.Fatalf("expected success and failure series, n=%d err=%v", n, err)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.New(logger.Options{})}); err == nil {
		t.Fatal("expected missing lock to fail")
	}
}
