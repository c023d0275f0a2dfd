// Package archive wires the full pipeline together: scan a saved
// conversation page, resolve pins concurrently, then download sequentially
// and emit the monthly galleries.
package archive

import (
	"context"
	"io"
	"time"

	"pindm/internal/resolver"
	"pindm/pkg/config"
	"pindm/pkg/logger"
	"pindm/pkg/messages"
	"pindm/pkg/pinterest"
	"pindm/pkg/progress"
	"pindm/pkg/ratelimit"
	"pindm/pkg/scheduler"
	"pindm/pkg/storage"
)

// Options adjusts a single run.
type Options struct {
	DryRun bool
	// ProgressPath overrides the default progress file location.
	ProgressPath string
}

// Archiver owns all pipeline state for a run.
type Archiver struct {
	config    *config.Config
	client    *pinterest.Client
	scanner   *messages.Scanner
	pool      *resolver.Pool
	store     *progress.Store
	scheduler *scheduler.Scheduler
	logger    logger.Logger
}

// New builds an archiver from configuration.
func New(cfg *config.Config, opts Options) (*Archiver, error) {
	log := logger.GetLogger()

	client := pinterest.NewClient(cfg.Resolve.FetchTimeout, cfg.Resolve.MaxRetries, log)
	if cfg.Pinterest.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Pinterest.UserAgent)
	}

	requestsPerMinute := cfg.Resolve.RequestsPerMinute
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	limiter := ratelimit.NewTokenBucket(requestsPerMinute, time.Minute)

	pinResolver := pinterest.NewResolver(client, log)
	pool := resolver.NewPool(cfg.Resolve.Workers, pinResolver, limiter, log)

	var store *progress.Store
	var err error
	if opts.ProgressPath != "" {
		store, err = progress.NewStore(opts.ProgressPath, log)
	} else {
		store, err = progress.NewDefaultStore(log)
	}
	if err != nil {
		return nil, err
	}

	sink, err := storage.NewManager(cfg.Output.BaseDirectory, storage.Uniquify, cfg.Output.OverwriteGalleries)
	if err != nil {
		return nil, err
	}

	pacer := ratelimit.NewAdaptivePacer(
		cfg.Pacing.InitialDelay,
		cfg.Pacing.MaxDelay,
		cfg.Pacing.GrowthFactor,
		cfg.Pacing.DecayFactor,
	)

	sched := scheduler.New(client, sink, store, pacer, log)
	sched.DryRun = opts.DryRun
	sched.FetchAssets = cfg.Output.FetchViewerAssets

	return &Archiver{
		config:    cfg,
		client:    client,
		scanner:   messages.NewScanner(log),
		pool:      pool,
		store:     store,
		scheduler: sched,
		logger:    log,
	}, nil
}

// Run processes one saved conversation document.
func (a *Archiver) Run(ctx context.Context, conversation io.Reader) (*scheduler.Summary, error) {
	records, err := a.scanner.Scan(conversation)
	if err != nil {
		return nil, err
	}
	a.logger.InfoWithFields("Scan complete", map[string]interface{}{
		"attachments": len(records),
	})

	if len(records) == 0 {
		return &scheduler.Summary{}, nil
	}

	resolved, failures := a.pool.ResolveAll(ctx, records)
	if failures > 0 {
		a.logger.WarnWithFields("Some pins could not be resolved", map[string]interface{}{
			"failed": failures,
			"total":  len(records),
		})
	}

	return a.scheduler.Run(ctx, resolved)
}

// Progress exposes the dedup store for status reporting.
func (a *Archiver) Progress() *progress.Store {
	return a.store
}
