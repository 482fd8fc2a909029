package notify

import (
	"spidertrigger/internal/trigger"
	"spidertrigger/pkg/cloudevent"
	"strconv"
)

// Event types for trigger reports
const (
	EventTypeCompleted = "spider.trigger.completed"
	EventTypeFailed    = "spider.trigger.failed"
)

// BuildEvent converts a report into a CloudEvent whose subject is the spider id.
func BuildEvent(source string, r *trigger.Report) *cloudevent.CloudEvent {
	eventType := EventTypeCompleted
	if !r.OK() {
		eventType = EventTypeFailed
	}

	data := map[string]any{
		"spiderId":   r.SpiderID,
		"startedAt":  r.StartedAt,
		"finishedAt": r.FinishedAt,
	}
	if r.Batch != "" {
		data["batch"] = r.Batch
	}
	if r.Image != "" {
		data["image"] = r.Image
	}
	if r.ContainerID != "" {
		data["containerId"] = r.ContainerID
	}
	if r.Status != "" {
		data["status"] = string(r.Status)
	}
	if !r.OK() {
		data["failure"] = string(r.Failure)
		data["error"] = r.Error
	}
	if len(r.Warnings) > 0 {
		data["warnings"] = r.Warnings
	}

	return cloudevent.New(eventType, source, strconv.FormatInt(r.SpiderID, 10), data)
}
