package spider

import (
	"time"
)

// Spider is a registered crawl job definition. The core only ever reads it.
type Spider struct {
	ID          int64
	Name        string
	Type        string
	Enabled     bool
	Registry    string   // Optional image registry host, e.g. hub.example.com
	Repository  string   // Image repository, e.g. news-crawler
	Tag         string   // Image tag, e.g. 1.2
	Environment []string // KEY=VALUE tokens, never empty strings
	Cron        string   // Schedule expression owned by the external scheduler

	CreationTime         time.Time
	LastModificationTime time.Time
}

// RecordID is the repository handle of a persisted container record.
type RecordID int64

// ContainerRecord correlates one launched container with its batch and spider.
type ContainerRecord struct {
	ID           RecordID  `json:"id"`
	ContainerID  string    `json:"containerId"`
	Batch        string    `json:"batch"`
	SpiderID     int64     `json:"spiderId"`
	Status       Status    `json:"status"`
	CreationTime time.Time `json:"creationTime"`
}

// Transition moves the record to next, enforcing the lifecycle state machine.
func (r *ContainerRecord) Transition(next Status) error {
	if !r.Status.CanTransitionTo(next) {
		return &TransitionError{From: r.Status, To: next}
	}
	r.Status = next
	return nil
}
