package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dm/motion-go/internal/model"
)

// DefaultSimRate is the simulator's posting rate in samples per second.
const DefaultSimRate = 30.0

// MaxSimRate bounds SimOptions.Rate. Faster rates round the tick interval
// below what a ticker can express and far exceed what a phone produces.
const MaxSimRate = 10_000.0

// ErrRateOutOfRange is returned by Simulate for a rate above MaxSimRate.
var ErrRateOutOfRange = errors.New("simulate: rate out of range")

// SimOptions configures Simulate.
type SimOptions struct {
	// Rate is samples per second. Defaults to DefaultSimRate.
	Rate float64
	// Duration stops the run after this long. Zero runs until ctx is done.
	Duration time.Duration
	Logger   *slog.Logger
}

// SimStats counts what a simulator run delivered.
type SimStats struct {
	Sent   int64
	Failed int64
}

// Wave returns the synthetic reading at elapsed time t: a phone lying flat
// and rocking slowly, so Y carries gravity and X/Z swing around zero.
func Wave(t time.Duration) model.Sample {
	s := t.Seconds()
	return model.Sample{
		X: 3 * math.Sin(2*math.Pi*0.5*s),
		Y: model.Gravity + 1.5*math.Sin(2*math.Pi*0.25*s),
		Z: 4 * math.Cos(2*math.Pi*0.5*s),
	}
}

// Simulate posts Wave readings to c at opts.Rate until ctx is done or
// opts.Duration has elapsed. A generator and a single poster run in an
// errgroup joined by a small buffer, so readings arrive in the order they
// were generated; when the poster falls behind, the generator skips ticks.
//
// Failed posts are counted and logged, not returned. Errors are limited to
// a rate above MaxSimRate and an unreachable endpoint at start-up.
func Simulate(ctx context.Context, c MotionClient, opts SimOptions) (SimStats, error) {
	if opts.Rate <= 0 {
		opts.Rate = DefaultSimRate
	}
	if opts.Rate > MaxSimRate {
		return SimStats{}, fmt.Errorf("%w: %g/s exceeds %g/s", ErrRateOutOfRange, opts.Rate, MaxSimRate)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger.With("endpoint", c.BaseURL())

	if err := c.Ping(ctx); err != nil {
		return SimStats{}, fmt.Errorf("endpoint not reachable: %w", err)
	}

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	interval := time.Duration(float64(time.Second) / opts.Rate)
	samples := make(chan model.Sample, 16)
	var stats SimStats

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(samples)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		start := time.Now()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				select {
				case samples <- Wave(now.Sub(start)):
				default:
					log.Debug("poster behind, skipping tick")
				}
			}
		}
	})

	g.Go(func() error {
		for s := range samples {
			err := c.PostSample(gctx, s)
			switch {
			case err == nil:
				stats.Sent++
			case gctx.Err() != nil:
				// Cancelled mid-request; not a delivery failure.
			default:
				stats.Failed++
				if stats.Failed == 1 {
					log.Warn("post failed", "err", err)
				} else {
					log.Debug("post failed", "err", err, "failed", stats.Failed)
				}
			}
		}
		return nil
	})

	err := g.Wait()
	log.Info("simulation finished", "sent", stats.Sent, "failed", stats.Failed)
	return stats, err
}
