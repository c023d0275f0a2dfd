// Package scheduler runs the sequential download loop with adaptive pacing
// and emits the monthly galleries for a completed batch.
package scheduler

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"time"

	"pindm/pkg/errors"
	"pindm/pkg/gallery"
	"pindm/pkg/logger"
	"pindm/pkg/pinterest"
	"pindm/pkg/retry"
	"pindm/pkg/storage"
)

// Downloader fetches media bytes from the CDN.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Sink persists downloaded media and gallery artifacts.
type Sink interface {
	BaseDir() string
	SaveMedia(r io.Reader, senderID, filename string) (*storage.SavedFile, error)
	SaveRedirect(mediaPath, pinURL string) (string, error)
	WriteGalleryFile(name string, data []byte) (string, error)
	HasAsset(name string) bool
	SaveAsset(name string, r io.Reader) (string, error)
}

// Progress is the durable dedup store the loop consults and updates.
type Progress interface {
	Has(key string) bool
	Record(key, messageID string) error
}

// Pacer controls the inter-request delay of the loop.
type Pacer interface {
	Delay() time.Duration
	AboveFloor() bool
	RateLimited()
	Success()
}

// Summary counts the outcome of one batch.
type Summary struct {
	Found      int
	Downloaded int
	Skipped    int
	Errors     int
}

// Scheduler processes resolved records strictly in input order.
type Scheduler struct {
	client   Downloader
	sink     Sink
	progress Progress
	pacer    Pacer
	builder  *gallery.Builder
	logger   logger.Logger

	// DryRun reports what the batch would do without downloading,
	// recording progress, or writing galleries.
	DryRun bool
	// FetchAssets controls whether the lightbox viewer files are fetched
	// and cached next to the galleries.
	FetchAssets bool
	// Now is the clock used for month bucketing. Overridable in tests.
	Now func() time.Time
}

func New(client Downloader, sink Sink, progress Progress, pacer Pacer, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scheduler{
		client:      client,
		sink:        sink,
		progress:    progress,
		pacer:       pacer,
		builder:     gallery.NewBuilder(),
		logger:      log,
		FetchAssets: true,
		Now:         time.Now,
	}
}

// Run downloads every resolved record in order, then writes one gallery per
// populated month. Failures never abort the batch.
func (s *Scheduler) Run(ctx context.Context, records []pinterest.AttachmentRecord) (*Summary, error) {
	summary := &Summary{Found: len(records)}
	buckets := make(map[gallery.MonthKey][]gallery.Entry)
	var bucketOrder []gallery.MonthKey

	for i := range records {
		// The only suspension point: pace between records when the
		// delay has grown above the floor.
		if i > 0 && s.pacer.AboveFloor() {
			if err := retry.Wait(ctx, s.pacer.Delay()); err != nil {
				return summary, err
			}
		}

		record := &records[i]
		if record.ImageURL == "" {
			// Resolution failed earlier; the record is retried on the
			// next scan.
			summary.Errors++
			continue
		}

		key := record.DedupKey()
		if s.progress.Has(key) {
			summary.Skipped++
			s.logger.DebugWithFields("Already downloaded", map[string]interface{}{
				"message_id": record.MessageID,
			})
			continue
		}

		if s.DryRun {
			summary.Downloaded++
			s.logger.InfoWithFields("Would download", map[string]interface{}{
				"message_id": record.MessageID,
				"image_url":  record.ImageURL,
			})
			continue
		}

		entry, err := s.downloadOne(ctx, record)
		if err != nil {
			summary.Errors++
			if errors.IsRateLimit(err) {
				s.pacer.RateLimited()
				s.logger.WarnWithFields("Rate limited, slowing down", map[string]interface{}{
					"delay": s.pacer.Delay().String(),
				})
			}
			logger.LogDownload(record.SenderID, record.MessageID, mediaType(record), false, err)
			continue
		}

		if err := s.progress.Record(key, record.MessageID); err != nil {
			s.logger.WithError(err).Error("Failed to record progress")
		}
		s.pacer.Success()
		summary.Downloaded++
		logger.LogDownload(record.SenderID, record.MessageID, mediaType(record), true, nil)

		bucket := gallery.BucketFor(record, s.Now())
		if _, seen := buckets[bucket]; !seen {
			bucketOrder = append(bucketOrder, bucket)
		}
		buckets[bucket] = append(buckets[bucket], *entry)
	}

	if !s.DryRun {
		for _, bucket := range bucketOrder {
			if err := s.writeGallery(bucket, buckets[bucket]); err != nil {
				s.logger.WithError(err).Error("Failed to write gallery")
				summary.Errors++
			}
		}
		if len(bucketOrder) > 0 && s.FetchAssets {
			s.ensureGalleryAssets(ctx)
		}
	}

	logger.LogScanSummary(summary.Found, summary.Downloaded, summary.Skipped, summary.Errors)
	return summary, nil
}

func (s *Scheduler) downloadOne(ctx context.Context, record *pinterest.AttachmentRecord) (*gallery.Entry, error) {
	data, err := s.client.Download(ctx, record.ImageURL)
	if err != nil {
		return nil, err
	}

	filename := BuildFilename(record)
	saved, err := s.sink.SaveMedia(bytes.NewReader(data), record.SenderID, filename)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeDownload, err.Error(), 0)
	}

	entry := &gallery.Entry{
		Record:    *record,
		LocalPath: s.relPath(saved.Path),
	}

	if record.IsVideo && record.PinURL != "" {
		redirect, err := s.sink.SaveRedirect(saved.Path, record.PinURL)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to write video redirect")
		} else {
			entry.RedirectPath = s.relPath(redirect)
		}
	}

	return entry, nil
}

func (s *Scheduler) writeGallery(bucket gallery.MonthKey, entries []gallery.Entry) error {
	data, err := s.builder.Render(bucket, entries)
	if err != nil {
		return err
	}

	path, err := s.sink.WriteGalleryFile(bucket.Filename(), data)
	if err != nil {
		return err
	}

	s.logger.InfoWithFields("Gallery written", map[string]interface{}{
		"path":    path,
		"entries": len(entries),
	})
	return nil
}

// ensureGalleryAssets caches the lightbox viewer files beside the galleries.
// Failures are logged only: the gallery degrades to plain links.
func (s *Scheduler) ensureGalleryAssets(ctx context.Context) {
	for _, asset := range gallery.Assets {
		if s.sink.HasAsset(asset.Name) {
			continue
		}
		data, err := s.client.Download(ctx, asset.URL)
		if err != nil {
			s.logger.WithError(err).WithField("asset", asset.Name).Warn("Failed to fetch gallery asset")
			continue
		}
		if _, err := s.sink.SaveAsset(asset.Name, bytes.NewReader(data)); err != nil {
			s.logger.WithError(err).WithField("asset", asset.Name).Warn("Failed to cache gallery asset")
		}
	}
}

func (s *Scheduler) relPath(absolute string) string {
	rel, err := filepath.Rel(s.sink.BaseDir(), absolute)
	if err != nil {
		return absolute
	}
	return filepath.ToSlash(rel)
}

func mediaType(record *pinterest.AttachmentRecord) string {
	if record.IsVideo {
		return "video"
	}
	return "image"
}
