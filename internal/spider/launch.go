package spider

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variable names injected into every spider container.
const (
	EnvBatch = "DOTNET_SPIDER_ID"
	EnvType  = "DOTNET_SPIDER_TYPE"
	EnvName  = "DOTNET_SPIDER_NAME"
)

// Label keys attached to every spider container.
const (
	LabelID    = "dotnetspider.spider.id"
	LabelBatch = "dotnetspider.spider.batch"
	LabelType  = "dotnetspider.spider.type"
	LabelName  = "dotnetspider.spider.name"
)

const containerNamePrefix = "dotnetspider"

// Labels identify a launched container for external inspection.
type Labels struct {
	SpiderID int64
	Batch    string
	Type     string
	Name     string
}

// Map renders the labels in the runtime's key/value form.
func (l Labels) Map() map[string]string {
	return map[string]string{
		LabelID:    strconv.FormatInt(l.SpiderID, 10),
		LabelBatch: l.Batch,
		LabelType:  l.Type,
		LabelName:  l.Name,
	}
}

// LaunchSpec is everything the runtime needs to create one spider container.
type LaunchSpec struct {
	Image  string
	Name   string
	Env    []string
	Labels Labels
	Binds  []string
}

// NewLaunchSpec derives the container specification for one batch of sp.
// binds come from static configuration and are copied verbatim.
func NewLaunchSpec(sp *Spider, batch string, binds []string) *LaunchSpec {
	env := make([]string, 0, len(sp.Environment)+3)
	env = append(env, sp.Environment...)
	env = append(env,
		EnvBatch+"="+batch,
		EnvType+"="+sp.Type,
		EnvName+"="+sp.Name,
	)

	var b []string
	if len(binds) > 0 {
		b = append([]string(nil), binds...)
	}

	return &LaunchSpec{
		Image: ImageReference(sp.Registry, sp.Repository, sp.Tag),
		Name:  ContainerName(sp.ID, batch),
		Env:   env,
		Labels: Labels{
			SpiderID: sp.ID,
			Batch:    batch,
			Type:     sp.Type,
			Name:     sp.Name,
		},
		Binds: b,
	}
}

// ImageReference joins image coordinates: repository:tag, or
// registry/repository:tag when a non-blank registry is given.
func ImageReference(registry, repository, tag string) string {
	if strings.TrimSpace(registry) == "" {
		return fmt.Sprintf("%s:%s", repository, tag)
	}
	return fmt.Sprintf("%s/%s:%s", registry, repository, tag)
}

// ContainerName is unique per batch so concurrent launches never collide.
func ContainerName(spiderID int64, batch string) string {
	return fmt.Sprintf("%s-%d-%s", containerNamePrefix, spiderID, batch)
}

// ParseEnvironment splits the stored space-delimited form into tokens.
func ParseEnvironment(stored string) []string {
	fields := strings.Fields(stored)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// FormatEnvironment renders tokens in the stored space-delimited form.
func FormatEnvironment(env []string) string {
	return strings.Join(ParseEnvironment(strings.Join(env, " ")), " ")
}
