package inbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/vedran77/fixly/pkg/api"
)

// featuredRetries is the number of retries after the first attempt.
const featuredRetries = 3

type FeaturedAPI interface {
	FeaturedProviders(ctx context.Context) ([]api.Provider, error)
}

// FeaturedLoader loads the featured providers shown on the home screen.
// It is the one read that retries on its own: after a failure it waits
// 1s, 2s and 4s before trying again.
type FeaturedLoader struct {
	api     FeaturedAPI
	backOff func() backoff.BackOff
	log     *slog.Logger
}

func NewFeaturedLoader(a FeaturedAPI, log *slog.Logger) *FeaturedLoader {
	if log == nil {
		log = slog.Default()
	}
	return &FeaturedLoader{api: a, backOff: featuredBackOff, log: log}
}

func featuredBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 4 * time.Second
	return b
}

func (f *FeaturedLoader) Load(ctx context.Context) ([]api.Provider, error) {
	providers, err := backoff.Retry(ctx,
		func() ([]api.Provider, error) {
			return f.api.FeaturedProviders(ctx)
		},
		backoff.WithBackOff(f.backOff()),
		backoff.WithMaxTries(featuredRetries+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			f.log.Info("retrying featured providers", "wait", wait, "error", err)
		}),
	)
	if err != nil {
		return nil, failed("featured", err, "Could not load featured providers.")
	}
	return providers, nil
}
