// Package docker implements spider.Runtime using the Docker Engine API.
// Each trigger invocation dials its own client and closes it on exit.
package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"spidertrigger/internal/config"
	"spidertrigger/internal/spider"
	"spidertrigger/pkg/backoff"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Labels added to every container this service creates, on top of the spider labels.
const (
	labelManagedBy = "managed-by"
	managedBy      = "spider-trigger"
)

// Registry hiccups are common; a missing or forbidden image is not retried.
var pullRetry = backoff.Config{
	Initial:  time.Second,
	Max:      10 * time.Second,
	Attempts: 3,
}

// Dialer opens Docker connections against a fixed endpoint.
type Dialer struct {
	endpoint    string
	pullImages  bool
	timeout     time.Duration
	pullTimeout time.Duration
}

// NewDialer creates a Dialer from the static runtime configuration.
// An empty endpoint falls back to DOCKER_HOST and friends.
func NewDialer(cfg config.RuntimeConfig) *Dialer {
	return &Dialer{
		endpoint:    cfg.Endpoint,
		pullImages:  cfg.PullImages,
		timeout:     cfg.Timeout,
		pullTimeout: cfg.PullTimeout,
	}
}

// DialRuntime implements spider.RuntimeDialer.
func (d *Dialer) DialRuntime(ctx context.Context) (spider.RuntimeSession, error) {
	cli, err := d.newClient()
	if err != nil {
		return nil, err
	}
	return &Client{
		client:      cli,
		pullImages:  d.pullImages,
		timeout:     d.timeout,
		pullTimeout: d.pullTimeout,
		logger:      slog.With("component", "docker"),
	}, nil
}

// Ready checks if the Docker daemon is reachable and responsive.
func (d *Dialer) Ready(ctx context.Context) error {
	cli, err := d.newClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	_, err = cli.Ping(ctx)
	return err
}

func (d *Dialer) newClient() (*client.Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if d.endpoint != "" {
		opts = append(opts, client.WithHost(d.endpoint))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return cli, nil
}

// Client is a spider.RuntimeSession backed by one Docker API client.
// Create and start share one per-call deadline; a pull has its own.
type Client struct {
	client      *client.Client
	pullImages  bool
	timeout     time.Duration
	pullTimeout time.Duration
	logger      *slog.Logger
}

// CreateContainer creates, but does not start, the spider container.
func (c *Client) CreateContainer(ctx context.Context, spec *spider.LaunchSpec) (spider.CreateResult, error) {
	if c.pullImages {
		if err := c.pullImageIfNeeded(ctx, spec.Image); err != nil {
			return spider.CreateResult{}, fmt.Errorf("failed to pull image %s: %w", spec.Image, err)
		}
	}

	ctx, cancel := withDeadline(ctx, c.timeout)
	defer cancel()

	containerConfig, hostConfig := containerConfigs(spec)
	resp, err := c.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return spider.CreateResult{Warnings: resp.Warnings}, err
	}

	return spider.CreateResult{ID: resp.ID, Warnings: resp.Warnings}, nil
}

// StartContainer starts a created container. A daemon error is returned
// alongside started=false so callers can log the cause.
func (c *Client) StartContainer(ctx context.Context, containerID string) (bool, error) {
	ctx, cancel := withDeadline(ctx, c.timeout)
	defer cancel()

	if err := c.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the underlying HTTP transport.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) pullImageIfNeeded(ctx context.Context, imageName string) error {
	ctx, cancel := withDeadline(ctx, c.pullTimeout)
	defer cancel()

	_, err := c.client.ImageInspect(ctx, imageName)
	if err == nil {
		return nil
	}

	c.logger.Info("Pulling image", "image", imageName)
	return backoff.Retry(ctx, &pullRetry, func(ctx context.Context) error {
		reader, err := c.client.ImagePull(ctx, imageName, image.PullOptions{})
		if err != nil {
			if cerrdefs.IsNotFound(err) || cerrdefs.IsUnauthorized(err) || cerrdefs.IsPermissionDenied(err) {
				return backoff.Permanent(err)
			}
			c.logger.Warn("Image pull failed", "image", imageName, "error", err)
			return err
		}
		defer reader.Close()

		_, err = io.Copy(io.Discard, reader)
		return err
	})
}

// withDeadline bounds ctx by d; a non-positive d leaves it unbounded.
func withDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// containerConfigs converts the typed launch spec to Docker API structures.
func containerConfigs(spec *spider.LaunchSpec) (*container.Config, *container.HostConfig) {
	labels := spec.Labels.Map()
	labels[labelManagedBy] = managedBy

	containerConfig := &container.Config{
		Image:  spec.Image,
		Env:    spec.Env,
		Labels: labels,
	}

	hostConfig := &container.HostConfig{
		Binds: spec.Binds,
	}

	return containerConfig, hostConfig
}

var (
	_ spider.RuntimeDialer  = (*Dialer)(nil)
	_ spider.RuntimeSession = (*Client)(nil)
)
