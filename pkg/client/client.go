// Package client talks to the emulator audio API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emuka/emuka/pkg/api"
	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/logger"
	"github.com/emuka/emuka/pkg/network"
)

const (
	DefaultPeriod = 10 * time.Millisecond
	apiPath       = "/api/v1"
)

type Client struct {
	base   string
	http   *http.Client
	period time.Duration
	log    *logger.Logger
}

type Option func(*Client)

func WithPeriod(d time.Duration) Option    { return func(c *Client) { c.period = d } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// New makes a client of the server at base, i.e. http://localhost:8000.
func New(base string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimSuffix(base, "/") + apiPath,
		http:   &http.Client{Timeout: 5 * time.Second},
		period: DefaultPeriod,
		log:    log.Module("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%v: %v", path, resp.Status)
	}
	return resp, nil
}

// Register makes a new audio queue on the server.
func (c *Client) Register(ctx context.Context) (audio.ConsumerID, error) {
	resp, err := c.get(ctx, "/audio/register")
	if err != nil {
		return audio.ConsumerID{}, fmt.Errorf("register: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var reg api.AudioRegisterResponse
	if err = json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return audio.ConsumerID{}, fmt.Errorf("register: %w", err)
	}
	return reg.Id, nil
}

// Connect registers the consumer, it waits for the server
// with a growing delay until the context is done.
func (c *Client) Connect(ctx context.Context) (audio.ConsumerID, error) {
	retry := network.NewRetry(100*time.Millisecond, 5*time.Second)
	for {
		id, err := c.Register(ctx)
		if err == nil {
			return id, nil
		}
		c.log.Warn().Err(err).Msgf("server is not available, retry in %v", retry.Time())
		if err = retry.Wait(ctx); err != nil {
			return audio.ConsumerID{}, err
		}
	}
}

// Fetch takes all the queued samples of the consumer.
func (c *Client) Fetch(ctx context.Context, id audio.ConsumerID) (audio.Samples, error) {
	resp, err := c.get(ctx, "/audio/get/"+id.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	rec, err := api.DecodeAudio(resp.Body)
	if err != nil {
		return nil, err
	}
	return rec.Samples(), nil
}

// Poll fetches the samples every period until the context is done.
// Failed fetches are logged and skipped.
func (c *Client) Poll(ctx context.Context, id audio.ConsumerID, sink func(audio.Samples)) {
	t := time.NewTicker(c.period)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			samples, err := c.Fetch(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Warn().Err(err).Msg("audio fetch")
				continue
			}
			if len(samples) > 0 {
				sink(samples)
			}
		case <-ctx.Done():
			return
		}
	}
}
