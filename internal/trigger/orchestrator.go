// Package trigger launches one batch of a spider: it checks the spider is
// eligible, builds its container specification, creates and starts the
// container, and records the outcome as container record transitions.
//
// Trigger never returns an error and never panics. Every failure is
// classified into a Report that is logged, counted, traced and optionally
// forwarded to a Reporter.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"spidertrigger/internal/apperrors"
	"spidertrigger/internal/observability"
	"spidertrigger/internal/spider"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "spidertrigger/internal/trigger"

// Config holds the collaborators of an Orchestrator.
type Config struct {
	Repositories spider.RepositoryOpener // Required
	Runtimes     spider.RuntimeDialer    // Required
	Volumes      []string                // Bind mounts applied to every container
	Metrics      *observability.Metrics  // Optional
	Reporter     Reporter                // Optional

	// Overridable for tests.
	NewBatchToken func() string
	Now           func() time.Time
}

// Orchestrator runs trigger invocations. It holds no per-invocation state
// and is safe for concurrent use.
type Orchestrator struct {
	repositories spider.RepositoryOpener
	runtimes     spider.RuntimeDialer
	volumes      []string
	metrics      *observability.Metrics
	reporter     Reporter
	newToken     func() string
	now          func() time.Time
	tracer       trace.Tracer
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Repositories == nil {
		return nil, errors.New("trigger: repository opener is required")
	}
	if cfg.Runtimes == nil {
		return nil, errors.New("trigger: runtime dialer is required")
	}

	o := &Orchestrator{
		repositories: cfg.Repositories,
		runtimes:     cfg.Runtimes,
		volumes:      append([]string(nil), cfg.Volumes...),
		metrics:      cfg.Metrics,
		reporter:     cfg.Reporter,
		newToken:     cfg.NewBatchToken,
		now:          cfg.Now,
		tracer:       otel.Tracer(tracerName),
	}
	if o.newToken == nil {
		o.newToken = spider.NewBatchToken
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Trigger launches one batch of the spider with the given id and reports
// the outcome. Steps run strictly in order; the first failure stops the
// invocation.
func (o *Orchestrator) Trigger(ctx context.Context, spiderID int64) (report *Report) {
	report = &Report{SpiderID: spiderID, StartedAt: o.now()}

	ctx, span := o.tracer.Start(ctx, "spider.trigger",
		trace.WithAttributes(attribute.Int64("spider.id", spiderID)))

	defer func() {
		if p := recover(); p != nil {
			slog.Error("Panic in trigger",
				"spiderId", spiderID,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			report.fail(UnclassifiedFailure, apperrors.Internal("trigger", fmt.Errorf("panic: %v", p)))
		}
		report.FinishedAt = o.now()
		o.complete(ctx, span, report)
	}()

	o.run(ctx, report)
	return report
}

func (o *Orchestrator) run(ctx context.Context, report *Report) {
	id := report.SpiderID
	logger := slog.With("spiderId", id)

	repo, err := o.repositories.OpenSession(ctx)
	if err != nil {
		report.fail(UnclassifiedFailure, apperrors.Internal("repository.open", err))
		return
	}
	defer closeSession(logger, "repository", repo)

	rt, err := o.runtimes.DialRuntime(ctx)
	if err != nil {
		report.fail(UnclassifiedFailure, apperrors.Upstream("runtime.dial", "cannot connect to container runtime", err))
		return
	}
	defer closeSession(logger, "runtime", rt)

	// The snapshot read here is the only one; a concurrent enable/disable
	// does not affect this invocation.
	sp, err := repo.FindSpider(ctx, id)
	switch {
	case errors.Is(err, apperrors.ErrNotFound) || (err == nil && sp == nil):
		report.fail(JobNotFound, apperrors.NotFound("spider", strconv.FormatInt(id, 10)))
		return
	case err != nil:
		report.fail(UnclassifiedFailure, apperrors.Internal("repository.findSpider", err))
		return
	}
	if !sp.Enabled {
		report.fail(JobDisabled, apperrors.Conflict("spider", strconv.FormatInt(id, 10),
			fmt.Sprintf("spider %d is disabled", id)))
		return
	}

	report.Batch = o.newToken()
	logger = logger.With("batch", report.Batch)

	spec := spider.NewLaunchSpec(sp, report.Batch, o.volumes)
	report.Image = spec.Image

	logger.Debug("Creating container", "image", spec.Image, "name", spec.Name)
	created, err := rt.CreateContainer(ctx, spec)
	report.Warnings = created.Warnings
	if err != nil || created.ID == "" {
		report.fail(ContainerCreateFailed, createError(created.Warnings, err))
		return
	}
	report.ContainerID = created.ID
	logger = logger.With("containerId", created.ID)

	// A container now exists. Bookkeeping must complete even if the caller
	// goes away, or a Created record would be left without its outcome.
	ctx = context.WithoutCancel(ctx)

	rec := newRecorder(repo, o.metrics, o.now)
	recordID, err := rec.created(ctx, id, report.Batch, created.ID)
	if err != nil {
		report.fail(RepositoryWriteFailed, apperrors.Internal("repository.appendContainer", err))
		return
	}
	report.RecordID = recordID
	report.Status = spider.StatusCreated

	started, startErr := rt.StartContainer(ctx, created.ID)
	if startErr != nil {
		logger.Warn("Container start returned an error", "error", startErr)
	}

	status, err := rec.finish(ctx, started && startErr == nil)
	if err != nil {
		report.fail(RepositoryWriteFailed, apperrors.Internal("repository.updateContainerStatus", err))
		return
	}
	report.Status = status

	if status == spider.StatusFailed {
		report.fail(ContainerStartFailed, apperrors.Upstream("runtime.startContainer", "container did not start", startErr))
	}
}

// complete emits the report to every observability sink.
func (o *Orchestrator) complete(ctx context.Context, span trace.Span, report *Report) {
	defer span.End()

	logger := slog.With("spiderId", report.SpiderID)
	if report.Batch != "" {
		logger = logger.With("batch", report.Batch)
		span.SetAttributes(attribute.String("spider.batch", report.Batch))
	}
	if report.ContainerID != "" {
		logger = logger.With("containerId", report.ContainerID)
		span.SetAttributes(attribute.String("container.id", report.ContainerID))
	}

	if report.OK() {
		span.SetStatus(codes.Ok, "")
		logger.Info("Spider triggered", "status", report.Status, "duration", report.Duration())
	} else {
		span.RecordError(report.Err)
		span.SetStatus(codes.Error, string(report.Failure))
		attrs := []any{"failure", report.Failure, "error", report.Error}
		if report.Status != "" {
			attrs = append(attrs, "status", report.Status)
		}
		if len(report.Warnings) > 0 {
			attrs = append(attrs, "warnings", report.Warnings)
		}
		logger.Error("Spider trigger failed", attrs...)
	}

	if o.metrics != nil {
		o.metrics.RecordTrigger(ctx, string(report.Failure), report.Duration().Seconds())
	}

	if o.reporter != nil {
		o.publish(logger, report)
	}
}

func (o *Orchestrator) publish(logger *slog.Logger, report *Report) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic in reporter", "panic", p)
		}
	}()
	o.reporter.Publish(report)
}

// createError describes a create call that produced no container.
// Runtime warnings are opaque text and are kept verbatim.
func createError(warnings []string, cause error) error {
	msg := "no container id returned"
	if len(warnings) > 0 {
		msg += "; warnings: " + strings.Join(warnings, ", ")
	}
	return apperrors.Upstream("runtime.createContainer", msg, cause)
}

func closeSession(logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn("Failed to close session", "session", name, "error", err)
	}
}
