package remote

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBurst is the burst size used when Limit is given a non-positive one.
const DefaultBurst = 1

// limitedClient throttles every call on a shared token bucket so that
// polling and pagination never hammer the service.
type limitedClient struct {
	next    Client
	limiter *rate.Limiter
}

// Limit wraps next so that at most perMinute calls are issued per minute,
// with the given burst. A non-positive perMinute disables limiting and
// returns next unchanged.
func Limit(next Client, perMinute, burst int) Client {
	if perMinute <= 0 {
		return next
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &limitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

func (c *limitedClient) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return nil
}

func (c *limitedClient) ListVoices(ctx context.Context, pageIndex, pageSize int) (Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.next.ListVoices(ctx, pageIndex, pageSize)
}

func (c *limitedClient) CreateVoice(ctx context.Context, req CreateVoiceRequest) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.next.CreateVoice(ctx, req)
}

func (c *limitedClient) QueryVoice(ctx context.Context, voiceID string) (Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.next.QueryVoice(ctx, voiceID)
}

func (c *limitedClient) DeleteVoice(ctx context.Context, voiceID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.next.DeleteVoice(ctx, voiceID)
}

func (c *limitedClient) Synthesize(ctx context.Context, params SynthesisParams) (Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.next.Synthesize(ctx, params)
}
