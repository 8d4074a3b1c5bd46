package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"photopass/internal/domain"
	"photopass/internal/locator"
	"photopass/internal/metrics"
	"photopass/internal/port"
)

// PollConfig holds the retry budget of the conversion poller.
type PollConfig struct {
	Interval     time.Duration
	MaxAttempts  int
	ProbeTimeout time.Duration
}

// ConversionService reports on converted counterparts of uploaded objects.
type ConversionService interface {
	Check(ctx context.Context, key string) (*domain.ConversionStatus, error)
	Poll(ctx context.Context, key string) (*domain.ConversionResult, error)
}

var errNotReady = errors.New("converted object not ready")

// ConversionPoller waits for the external converter's output to appear at
// the location derived from an upload key. Probes within one loop are
// strictly sequential, and concurrent Poll calls for the same key share a
// single loop. The shared loop outlives any single caller and is canceled
// only when every caller waiting on it has gone.
type ConversionPoller struct {
	prober  port.Prober
	locator *locator.Locator
	cfg     PollConfig
	metrics *metrics.Collector
	group   singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the shared polling loop of one key.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewConversionPoller creates a new ConversionPoller. collector may be nil.
func NewConversionPoller(prober port.Prober, loc *locator.Locator, cfg PollConfig, collector *metrics.Collector) *ConversionPoller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &ConversionPoller{
		prober:  prober,
		locator: loc,
		cfg:     cfg,
		metrics: collector,
		flights: make(map[string]*flight),
	}
}

// Check runs a single probe.
func (p *ConversionPoller) Check(ctx context.Context, key string) (*domain.ConversionStatus, error) {
	if key == "" {
		return nil, domain.ErrInvalidKey
	}
	found, err := p.probe(ctx, key)
	if err != nil {
		return nil, err
	}
	return &domain.ConversionStatus{
		Key:   key,
		URL:   p.locator.ConvertedURL(key),
		Ready: found,
	}, nil
}

// Poll probes until the converted object exists or the attempt budget is
// spent. Probe failures and absence are retried alike; only exhaustion
// (domain.ErrConversionTimeout) or ctx cancellation end the wait early.
// Canceling ctx releases this caller without disturbing others joined on
// the same key.
func (p *ConversionPoller) Poll(ctx context.Context, key string) (*domain.ConversionResult, error) {
	if key == "" {
		return nil, domain.ErrInvalidKey
	}

	f, ch, joined := p.join(ctx, key)
	defer p.leave(key, f)
	if joined {
		log.Printf("conversionPoller.Poll: joined in-flight poll for %s", key)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		out := *res.Val.(*domain.ConversionResult)
		return &out, nil
	}
}

// join registers the caller on the key's loop, starting one if needed.
func (p *ConversionPoller) join(ctx context.Context, key string) (*flight, <-chan singleflight.Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, joined := p.flights[key]
	if !joined {
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: loopCtx, cancel: cancel}
		p.flights[key] = f
	}
	f.waiters++
	ch := p.group.DoChan(key, func() (interface{}, error) {
		return p.poll(f.ctx, key)
	})
	return f, ch, joined
}

// leave deregisters a caller. The last caller out stops the loop and lets
// the next Poll for the key start afresh.
func (p *ConversionPoller) leave(key string, f *flight) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if p.flights[key] == f {
		delete(p.flights, key)
		p.group.Forget(key)
	}
}

func (p *ConversionPoller) poll(ctx context.Context, key string) (*domain.ConversionResult, error) {
	attempts := 0
	op := func() error {
		attempts++
		found, err := p.probe(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			return errNotReady
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("conversionPoller.Poll: %s attempt %d/%d: %v; retrying in %s",
			key, attempts, p.cfg.MaxAttempts, err, wait)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.cfg.Interval), uint64(p.cfg.MaxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(op, b, notify)

	switch {
	case err == nil:
		p.metrics.ObservePoll(domain.PollFound, attempts)
		log.Printf("conversionPoller.Poll: %s ready after %d attempt(s)", key, attempts)
		return &domain.ConversionResult{
			Key:      key,
			URL:      p.locator.ConvertedURL(key),
			Attempts: attempts,
		}, nil
	case ctx.Err() != nil:
		p.metrics.ObservePoll(domain.PollCanceled, attempts)
		return nil, ctx.Err()
	default:
		p.metrics.ObservePoll(domain.PollTimeout, attempts)
		log.Printf("conversionPoller.Poll: %s timed out after %d attempt(s): %v", key, attempts, err)
		return nil, fmt.Errorf("%w after %d attempts", domain.ErrConversionTimeout, attempts)
	}
}

// probe runs one existence check bounded by the per-probe timeout.
func (p *ConversionPoller) probe(ctx context.Context, key string) (bool, error) {
	probeCtx := ctx
	if p.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, p.cfg.ProbeTimeout)
		defer cancel()
	}

	found, err := p.prober.Exists(probeCtx, key)
	switch {
	case err != nil:
		p.metrics.ObserveProbe(domain.ProbeError)
		return false, domain.WithDetails(domain.ErrProbeFailed, err)
	case found:
		p.metrics.ObserveProbe(domain.ProbeFound)
	default:
		p.metrics.ObserveProbe(domain.ProbeNotFound)
	}
	return found, nil
}

var _ ConversionService = (*ConversionPoller)(nil)
