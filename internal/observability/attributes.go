// Package observability provides metrics, tracing, and logging utilities.
package observability

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys
const (
	attrMethod          = "method"
	attrPath            = "path"
	attrStatus          = "status"
	attrOutcome         = "outcome"
	attrContainerStatus = "container_status"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String(attrMethod, method)
}

func pathAttr(path string) attribute.KeyValue {
	return attribute.String(attrPath, normalizePath(path))
}

func statusAttr(code int) attribute.KeyValue {
	// 200-299 -> 2xx, 400-499 -> 4xx, 500-599 -> 5xx
	group := fmt.Sprintf("%dxx", code/100)
	return attribute.String(attrStatus, group)
}

// outcomeAttr is "success" or a failure kind; both sets are small and fixed.
func outcomeAttr(outcome string) attribute.KeyValue {
	if outcome == "" {
		outcome = "success"
	}
	return attribute.String(attrOutcome, outcome)
}

func containerStatusAttr(status string) attribute.KeyValue {
	return attribute.String(attrContainerStatus, status)
}

// normalizePath replaces spider IDs with a placeholder to bound cardinality.
// /v1/spiders/42/trigger -> /v1/spiders/{spiderId}/trigger
func normalizePath(path string) string {
	const prefix = "/v1/spiders/"
	if !strings.HasPrefix(path, prefix) || len(path) == len(prefix) {
		return path
	}
	rest := path[len(prefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return prefix + "{spiderId}" + rest[i:]
	}
	return prefix + "{spiderId}"
}
