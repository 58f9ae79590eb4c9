package influxdb

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/cloudcfg/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Client writes cloudcfg metrics to one InfluxDB v2 bucket.
//
// Every point carries the default tags given to Connect (service, version
// and any site tags from cloudcfg.yaml) on top of its own instance tags.
// Methods are safe for concurrent use; writes are batched and non-blocking.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	bucket   string

	connected atomic.Bool

	mu      sync.Mutex
	onError func(err error)
}

// Connect pings the server and prepares a batching write API.
//
// Parameters:
//   - ctx: Context bounding the initial ping
//   - cfg: influxdb section of cloudcfg.yaml
//   - defaultTags: Tags added to every point; cfg.Tags override them
//
// Returns:
//   - *Client: Connected client
//   - error: ErrDisabled, or ErrConnectionFailed wrapping the cause
func Connect(ctx context.Context, cfg config.InfluxDBConfig, defaultTags map[string]string) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, clientOptions(cfg, defaultTags))

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := ping(pingCtx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		bucket:   cfg.Bucket,
	}
	c.connected.Store(true)
	go c.forwardErrors(c.writeAPI.Errors())
	return c, nil
}

// clientOptions builds the batching options and default tags.
func clientOptions(cfg config.InfluxDBConfig, defaultTags map[string]string) *influxdb2.Options {
	batch := uint(defaultBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize)
	}
	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	opts := influxdb2.DefaultOptions().
		SetBatchSize(batch).
		SetFlushInterval(uint(flush.Milliseconds()))

	tags := maps.Clone(defaultTags)
	if tags == nil {
		tags = make(map[string]string, len(cfg.Tags))
	}
	maps.Copy(tags, cfg.Tags)
	for k, v := range tags {
		if k != "" && v != "" {
			opts.AddDefaultTag(k, v)
		}
	}
	return opts
}

func ping(ctx context.Context, client influxdb2.Client) error {
	healthy, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !healthy {
		return fmt.Errorf("server not healthy")
	}
	return nil
}

func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.mu.Lock()
		callback := c.onError
		c.mu.Unlock()
		if callback != nil {
			callback(fmt.Errorf("writing to bucket %s: %w", c.bucket, err))
		}
	}
}

// SetOnError sets the callback for asynchronous write failures.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = callback
}

// IsConnected reports whether Close has not yet been called.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(ctx, c.client); err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	return nil
}

// Flush sends buffered points. It does nothing after Close.
func (c *Client) Flush() {
	if c.IsConnected() {
		c.writeAPI.Flush()
	}
}

// Close flushes pending points and releases the client. Closing twice is
// harmless.
func (c *Client) Close() error {
	if c.client == nil || !c.connected.Swap(false) {
		return nil
	}
	c.writeAPI.Flush()
	c.client.Close()
	return nil
}
