package trigger

import (
	"context"
	"fmt"
	"spidertrigger/internal/observability"
	"spidertrigger/internal/spider"
	"time"
)

// recorder owns the single container record of one invocation and moves it
// through the lifecycle. Every write is its own durable commit.
type recorder struct {
	repo    spider.Repository
	metrics *observability.Metrics
	now     func() time.Time
	rec     *spider.ContainerRecord
}

func newRecorder(repo spider.Repository, metrics *observability.Metrics, now func() time.Time) *recorder {
	return &recorder{repo: repo, metrics: metrics, now: now}
}

// created persists the record in status Created. It may be called once.
func (r *recorder) created(ctx context.Context, spiderID int64, batch, containerID string) (spider.RecordID, error) {
	if r.rec != nil {
		return 0, fmt.Errorf("container record for batch %s already created", r.rec.Batch)
	}

	rec := &spider.ContainerRecord{
		ContainerID:  containerID,
		Batch:        batch,
		SpiderID:     spiderID,
		Status:       spider.StatusCreated,
		CreationTime: r.now().UTC(),
	}
	id, err := r.repo.AppendContainer(ctx, rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	r.rec = rec
	r.record(ctx, spider.StatusCreated)
	return id, nil
}

// finish moves the record to its terminal status and persists it.
func (r *recorder) finish(ctx context.Context, started bool) (spider.Status, error) {
	if r.rec == nil {
		return "", fmt.Errorf("no container record to update")
	}

	next := spider.StartStatus(started)
	if !r.rec.Status.CanTransitionTo(next) {
		return r.rec.Status, &spider.TransitionError{From: r.rec.Status, To: next}
	}
	if err := r.repo.UpdateContainerStatus(ctx, r.rec.ID, next); err != nil {
		return r.rec.Status, err
	}
	if err := r.rec.Transition(next); err != nil {
		return r.rec.Status, err
	}
	r.record(ctx, next)
	return next, nil
}

func (r *recorder) record(ctx context.Context, status spider.Status) {
	if r.metrics != nil {
		r.metrics.RecordContainerStatus(ctx, string(status))
	}
}
