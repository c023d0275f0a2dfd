package gallery

import (
	"strings"
	"testing"
	"time"

	"pindm/pkg/pinterest"
)

func TestMonthKeyFilename(t *testing.T) {
	tests := []struct {
		key  MonthKey
		want string
	}{
		{MonthKey{2024, time.March}, "pinterest_pins_2024_03_March.html"},
		{MonthKey{2023, time.December}, "pinterest_pins_2023_12_December.html"},
		{MonthKey{2025, time.January}, "pinterest_pins_2025_01_January.html"},
	}

	for _, tt := range tests {
		if got := tt.key.Filename(); got != tt.want {
			t.Errorf("Filename(%v) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestBucketFor(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	withTimestamp := &pinterest.AttachmentRecord{Timestamp: "2024-03-10 1947"}
	if key := BucketFor(withTimestamp, now); key.Year != 2024 || key.Month != time.March {
		t.Errorf("Expected message-time bucket, got %v", key)
	}

	withoutTimestamp := &pinterest.AttachmentRecord{}
	if key := BucketFor(withoutTimestamp, now); key.Year != 2024 || key.Month != time.June {
		t.Errorf("Expected processing-time bucket, got %v", key)
	}

	malformed := &pinterest.AttachmentRecord{Timestamp: "last tuesday"}
	if key := BucketFor(malformed, now); key.Month != time.June {
		t.Errorf("Malformed timestamp must fall back to processing time, got %v", key)
	}
}

func TestRenderGallery(t *testing.T) {
	builder := NewBuilder()
	key := MonthKey{2024, time.March}

	entries := []Entry{
		{
			Record: pinterest.AttachmentRecord{
				SenderID:  "s1",
				MessageID: "m1",
				Username:  "Jane Doe",
				Timestamp: "2024-03-10 1947",
				PinURL:    "https://www.pinterest.com/pin/111/",
				ImageURL:  "https://i.pinimg.com/originals/aa.jpg",
			},
			LocalPath: "Pinterest-messages-from-s1/2024-03-10 1947 Jane Doe m1_pin_111.jpg",
		},
		{
			Record: pinterest.AttachmentRecord{
				SenderID:  "s1",
				MessageID: "m2",
				IsVideo:   true,
				PinURL:    "https://www.pinterest.com/pin/222/",
				ImageURL:  "https://i.pinimg.com/videos/thumbnails/originals/vv.jpg",
			},
			LocalPath:    "Pinterest-messages-from-s1/video_m2_pin_222.jpg",
			RedirectPath: "Pinterest-messages-from-s1/video_m2_pin_222.html",
		},
		{
			// No local file: the card falls back to the remote URL
			Record: pinterest.AttachmentRecord{
				SenderID:  "s2",
				MessageID: "m3",
				ImageURL:  "https://i.pinimg.com/originals/cc.jpg",
			},
		},
	}

	out, err := builder.Render(key, entries)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := string(out)

	if !strings.Contains(html, "Pinterest Pins - March 2024") {
		t.Error("Expected month header")
	}
	if !strings.Contains(html, "Pinterest-messages-from-s1/2024-03-10 1947 Jane Doe m1_pin_111.jpg") {
		t.Error("Image card must link to the local file")
	}
	if !strings.Contains(html, "Jane Doe") {
		t.Error("Card must show the username when known")
	}
	if !strings.Contains(html, "Sender s2") {
		t.Error("Card must fall back to the sender id without a username")
	}
	if !strings.Contains(html, "Pinterest-messages-from-s1/video_m2_pin_222.html") {
		t.Error("Video card must link to its redirect artifact")
	}
	if !strings.Contains(html, "video-overlay") {
		t.Error("Video card must carry an overlay marker")
	}
	if !strings.Contains(html, "https://i.pinimg.com/originals/cc.jpg") {
		t.Error("Card without local file must fall back to the remote URL")
	}
	if !strings.Contains(html, "https://www.pinterest.com/pin/111/") {
		t.Error("Card must link to the original pin")
	}
	if !strings.Contains(html, `data-lightbox="pins-2024-03"`) {
		t.Error("Image cards must participate in the lightbox group")
	}
	if !strings.Contains(html, "lightbox.min.css") || !strings.Contains(html, "lightbox.min.js") || !strings.Contains(html, "jquery.min.js") {
		t.Error("Gallery must reference the cached viewer assets")
	}
}

func TestRenderEscapesContent(t *testing.T) {
	builder := NewBuilder()
	entries := []Entry{
		{
			Record: pinterest.AttachmentRecord{
				SenderID:  "s1",
				MessageID: `<script>alert(1)</script>`,
				ImageURL:  "https://i.pinimg.com/originals/aa.jpg",
			},
		},
	}

	out, err := builder.Render(MonthKey{2024, time.March}, entries)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(string(out), "<script>alert(1)</script>") {
		t.Error("Card content must be HTML-escaped")
	}
}
