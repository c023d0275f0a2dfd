// Package resolver runs the concurrent pin-page resolution phase: every
// record still missing a media URL is resolved in parallel, and the batch
// comes back in its original order.
package resolver

import (
	"context"
	"sync"
	"time"

	"pindm/pkg/logger"
	"pindm/pkg/pinterest"
	"pindm/pkg/ratelimit"
)

// PinResolver resolves one pin page to its media.
type PinResolver interface {
	Resolve(ctx context.Context, pinURL string) (pinterest.Media, error)
}

type job struct {
	index  int
	pinURL string
}

type result struct {
	index    int
	media    pinterest.Media
	err      error
	duration time.Duration
}

// Pool fans pin-page fetches out over a fixed number of workers.
type Pool struct {
	numWorkers  int
	resolver    PinResolver
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

func NewPool(numWorkers int, r PinResolver, limiter ratelimit.Limiter, log logger.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{
		numWorkers:  numWorkers,
		resolver:    r,
		rateLimiter: limiter,
		logger:      log,
	}
}

// ResolveAll fills in the media of every record that needs a remote fetch
// and returns the batch in input order. A failed resolution leaves its
// record without an image URL; it never affects the other records.
// The second return value counts the failures.
func (p *Pool) ResolveAll(ctx context.Context, records []pinterest.AttachmentRecord) ([]pinterest.AttachmentRecord, int) {
	resolved := make([]pinterest.AttachmentRecord, len(records))
	copy(resolved, records)

	jobs := make(chan job)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i := range resolved {
			if !resolved[i].NeedsImageFetch || !resolved[i].Resolvable() {
				continue
			}
			select {
			case jobs <- job{index: i, pinURL: resolved[i].PinURL}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	failures := 0
	for res := range results {
		if res.err != nil {
			failures++
			p.logger.WarnWithFields("Pin resolution failed", map[string]interface{}{
				"pin_url":  resolved[res.index].PinURL,
				"pin":      resolved[res.index].PinNumber,
				"error":    res.err.Error(),
				"duration": res.duration.String(),
			})
			continue
		}
		resolved[res.index].ImageURL = res.media.ImageURL
		resolved[res.index].IsVideo = res.media.IsVideo
		resolved[res.index].NeedsImageFetch = false
	}

	return resolved, failures
}

func (p *Pool) worker(ctx context.Context, id int, jobs <-chan job, results chan<- result, wg *sync.WaitGroup) {
	defer wg.Done()

	for j := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if p.rateLimiter != nil && !p.rateLimiter.Allow() {
			p.rateLimiter.Wait()
		}

		start := time.Now()
		media, err := p.resolver.Resolve(ctx, j.pinURL)

		p.logger.DebugWithFields("Worker resolved pin", map[string]interface{}{
			"worker_id": id,
			"pin_url":   j.pinURL,
			"success":   err == nil,
		})

		select {
		case results <- result{index: j.index, media: media, err: err, duration: time.Since(start)}:
		case <-ctx.Done():
			return
		}
	}
}
