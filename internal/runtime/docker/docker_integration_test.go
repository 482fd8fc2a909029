//go:build integration

package docker

import (
	"context"
	"spidertrigger/internal/config"
	"spidertrigger/internal/spider"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

func TestClient_CreateAndStart(t *testing.T) {
	ctx := context.Background()

	d := NewDialer(config.RuntimeConfig{PullImages: true, Timeout: 2 * time.Minute})
	if err := d.Ready(ctx); err != nil {
		t.Fatalf("Docker daemon not reachable: %v", err)
	}

	sess, err := d.DialRuntime(ctx)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer sess.Close()

	batch := spider.NewBatchToken()
	spec := spider.NewLaunchSpec(&spider.Spider{
		ID:          1,
		Name:        "integration",
		Type:        "Test",
		Repository:  "alpine",
		Tag:         "latest",
		Environment: []string{"FOO=1"},
	}, batch, nil)

	result, err := sess.CreateContainer(ctx, spec)
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	if result.ID == "" {
		t.Fatalf("Expected container ID, warnings: %v", result.Warnings)
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Fatalf("Failed to create inspection client: %v", err)
	}
	defer cli.Close()
	defer func() {
		_ = cli.ContainerRemove(ctx, result.ID, container.RemoveOptions{Force: true})
	}()

	started, err := sess.StartContainer(ctx, result.ID)
	if err != nil || !started {
		t.Fatalf("Expected container to start, err=%v", err)
	}

	inspect, err := cli.ContainerInspect(ctx, result.ID)
	if err != nil {
		t.Fatalf("Failed to inspect: %v", err)
	}
	if inspect.Config.Labels[spider.LabelBatch] != batch {
		t.Errorf("Expected batch label %q, got %q", batch, inspect.Config.Labels[spider.LabelBatch])
	}
	if inspect.Name != "/"+spec.Name {
		t.Errorf("Expected name %q, got %q", spec.Name, inspect.Name)
	}
}

func TestClient_StartUnknownContainer(t *testing.T) {
	ctx := context.Background()

	sess, err := NewDialer(config.RuntimeConfig{}).DialRuntime(ctx)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer sess.Close()

	started, err := sess.StartContainer(ctx, "does-not-exist-"+spider.NewBatchToken())
	if started || err == nil {
		t.Errorf("Expected start failure, got started=%v err=%v", started, err)
	}
}
