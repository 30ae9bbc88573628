package cron

import (
	"context"
	"testing"
)

type namedJob struct {
	name string
}

func (j *namedJob) Name() string              { return j.name }
func (j *namedJob) Run(context.Context) error { return nil }

func TestRegistryPreservesRunOrder(t *testing.T) {
	t.Parallel()

	reclaim := &namedJob{name: "stale-processing-reclaim"}
	drain := &namedJob{name: "deletion-queue-drain"}
	sweep := &namedJob{name: "orphan-reconcile"}

	registry := NewRegistry(reclaim, nil, drain)
	registry.Register(sweep)
	registry.Register(nil)

	jobs := registry.Jobs()
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0] != reclaim || jobs[1] != drain || jobs[2] != sweep {
		t.Fatal("jobs returned out of order")
	}
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(&namedJob{name: "deletion-queue-drain"})
	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("internal slice leaked")
	}
}
