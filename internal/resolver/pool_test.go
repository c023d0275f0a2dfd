package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"pindm/pkg/errors"
	"pindm/pkg/logger"
	"pindm/pkg/pinterest"
)

type mockResolver struct {
	mu       sync.Mutex
	media    map[string]pinterest.Media
	failures map[string]error
	delay    time.Duration

	active    int
	maxActive int
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		media:    make(map[string]pinterest.Media),
		failures: make(map[string]error),
	}
}

func (m *mockResolver) Resolve(ctx context.Context, pinURL string) (pinterest.Media, error) {
	m.mu.Lock()
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.active--
	err := m.failures[pinURL]
	media := m.media[pinURL]
	m.mu.Unlock()

	if err != nil {
		return pinterest.Media{}, err
	}
	return media, nil
}

func fetchRecord(n int, pinURL string) pinterest.AttachmentRecord {
	return pinterest.AttachmentRecord{
		SenderID:        "s1",
		MessageID:       "m" + pinURL,
		PinURL:          pinURL,
		PinNumber:       n,
		NeedsImageFetch: true,
	}
}

func TestResolveAllPreservesOrder(t *testing.T) {
	mock := newMockResolver()
	mock.media["p1"] = pinterest.Media{ImageURL: "https://i.pinimg.com/originals/1.jpg"}
	mock.media["p2"] = pinterest.Media{ImageURL: "https://i.pinimg.com/originals/2.jpg", IsVideo: true}
	mock.media["p3"] = pinterest.Media{ImageURL: "https://i.pinimg.com/originals/3.jpg"}
	mock.delay = 5 * time.Millisecond

	pool := NewPool(3, mock, nil, logger.NewNopLogger())
	records := []pinterest.AttachmentRecord{
		fetchRecord(1, "p1"),
		fetchRecord(2, "p2"),
		fetchRecord(3, "p3"),
	}

	resolved, failures := pool.ResolveAll(context.Background(), records)
	if failures != 0 {
		t.Fatalf("Expected no failures, got %d", failures)
	}
	if len(resolved) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(resolved))
	}

	for i, want := range []string{
		"https://i.pinimg.com/originals/1.jpg",
		"https://i.pinimg.com/originals/2.jpg",
		"https://i.pinimg.com/originals/3.jpg",
	} {
		if resolved[i].ImageURL != want {
			t.Errorf("Record %d out of order: got %q, want %q", i, resolved[i].ImageURL, want)
		}
		if resolved[i].NeedsImageFetch {
			t.Errorf("Record %d should be resolved", i)
		}
	}
	if !resolved[1].IsVideo {
		t.Error("Video classification must carry over from resolution")
	}
}

func TestResolveAllRunsConcurrently(t *testing.T) {
	mock := newMockResolver()
	for _, url := range []string{"p1", "p2", "p3", "p4"} {
		mock.media[url] = pinterest.Media{ImageURL: "https://i.pinimg.com/originals/x.jpg"}
	}
	mock.delay = 20 * time.Millisecond

	pool := NewPool(4, mock, nil, logger.NewNopLogger())
	records := []pinterest.AttachmentRecord{
		fetchRecord(1, "p1"), fetchRecord(2, "p2"),
		fetchRecord(3, "p3"), fetchRecord(4, "p4"),
	}

	start := time.Now()
	pool.ResolveAll(context.Background(), records)
	elapsed := time.Since(start)

	if mock.maxActive < 2 {
		t.Errorf("Expected concurrent resolution, max active was %d", mock.maxActive)
	}
	if elapsed > 70*time.Millisecond {
		t.Errorf("Resolution took too long for a concurrent pool: %v", elapsed)
	}
}

func TestResolveAllIsolatesFailures(t *testing.T) {
	mock := newMockResolver()
	mock.media["p1"] = pinterest.Media{ImageURL: "https://i.pinimg.com/originals/1.jpg"}
	mock.failures["p2"] = errors.New(errors.ErrorTypeExtraction, "no media found", 0)
	mock.media["p3"] = pinterest.Media{ImageURL: "https://i.pinimg.com/originals/3.jpg"}

	pool := NewPool(2, mock, nil, logger.NewNopLogger())
	records := []pinterest.AttachmentRecord{
		fetchRecord(1, "p1"),
		fetchRecord(2, "p2"),
		fetchRecord(3, "p3"),
	}

	resolved, failures := pool.ResolveAll(context.Background(), records)
	if failures != 1 {
		t.Fatalf("Expected 1 failure, got %d", failures)
	}

	if resolved[0].ImageURL == "" || resolved[2].ImageURL == "" {
		t.Error("Neighbouring records must resolve despite a failure")
	}
	if resolved[1].ImageURL != "" {
		t.Error("Failed record must stay unresolved")
	}
}

func TestResolveAllSkipsAlreadyResolved(t *testing.T) {
	mock := newMockResolver()

	pool := NewPool(2, mock, nil, logger.NewNopLogger())
	records := []pinterest.AttachmentRecord{
		// Inline-poster video: a pin URL exists, but nothing to fetch
		{
			SenderID: "s1", MessageID: "m1",
			PinURL:   "https://www.pinterest.com/pin/1/",
			ImageURL: "https://i.pinimg.com/videos/thumbnails/originals/v.jpg",
			IsVideo:  true,
		},
	}

	resolved, failures := pool.ResolveAll(context.Background(), records)
	if failures != 0 {
		t.Fatalf("Expected no failures, got %d", failures)
	}
	if resolved[0].ImageURL != records[0].ImageURL {
		t.Error("Already-resolved record must pass through untouched")
	}
	if mock.maxActive != 0 {
		t.Error("Already-resolved record must not be fetched")
	}
}
