// Package spider defines spider job definitions, container records, the launch
// specification derived from them, and the collaborator interfaces consumed by
// the trigger orchestrator.
package spider

import (
	"context"
	"io"
)

// Repository is the persistence contract used by one trigger invocation.
type Repository interface {
	// FindSpider returns the spider with the given id. A missing spider is
	// reported with an error matching apperrors.ErrNotFound.
	FindSpider(ctx context.Context, id int64) (*Spider, error)

	// AppendContainer durably inserts rec and returns its handle.
	AppendContainer(ctx context.Context, rec *ContainerRecord) (RecordID, error)

	// UpdateContainerStatus durably moves a Created record to a terminal status.
	UpdateContainerStatus(ctx context.Context, id RecordID, status Status) error
}

// RepositorySession is a Repository scoped to a single invocation.
type RepositorySession interface {
	Repository
	io.Closer
}

// RepositoryOpener opens a fresh repository session per invocation.
type RepositoryOpener interface {
	OpenSession(ctx context.Context) (RepositorySession, error)
}

// CreateResult is the runtime's answer to a create call.
// An empty ID means no container was created.
type CreateResult struct {
	ID       string
	Warnings []string
}

// Runtime is the container runtime contract used by one trigger invocation.
// Timeouts and backoff for these calls belong to the implementation.
type Runtime interface {
	CreateContainer(ctx context.Context, spec *LaunchSpec) (CreateResult, error)
	StartContainer(ctx context.Context, containerID string) (bool, error)
}

// RuntimeSession is a Runtime connection scoped to a single invocation.
type RuntimeSession interface {
	Runtime
	io.Closer
}

// RuntimeDialer opens a fresh runtime connection per invocation.
type RuntimeDialer interface {
	DialRuntime(ctx context.Context) (RuntimeSession, error)
}
