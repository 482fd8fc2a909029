package trigger

import (
	"spidertrigger/internal/spider"
	"time"
)

// Kind classifies why a trigger invocation failed.
type Kind string

// Failure kinds
const (
	JobNotFound           Kind = "JobNotFound"
	JobDisabled           Kind = "JobDisabled"
	ContainerCreateFailed Kind = "ContainerCreateFailed"
	ContainerStartFailed  Kind = "ContainerStartFailed"
	RepositoryWriteFailed Kind = "RepositoryWriteFailed"
	UnclassifiedFailure   Kind = "UnclassifiedFailure"
)

// Report describes the outcome of one trigger invocation.
//
// Status is the last status durably written for the container record; it is
// empty when no record exists. Err carries an apperrors classification for
// adapters that need to map the failure onto a transport.
type Report struct {
	SpiderID    int64           `json:"spiderId"`
	Batch       string          `json:"batch,omitempty"`
	Image       string          `json:"image,omitempty"`
	ContainerID string          `json:"containerId,omitempty"`
	RecordID    spider.RecordID `json:"recordId,omitempty"`
	Status      spider.Status   `json:"status,omitempty"`
	Failure     Kind            `json:"failure,omitempty"`
	Error       string          `json:"error,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	FinishedAt  time.Time       `json:"finishedAt"`

	Err error `json:"-"`
}

// OK reports whether the container was created, recorded and started.
func (r *Report) OK() bool {
	return r.Failure == ""
}

// Duration is the wall time the invocation took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) fail(kind Kind, err error) {
	r.Failure = kind
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
}

// Reporter receives every completed report. Implementations must not block.
type Reporter interface {
	Publish(r *Report)
}
