package scheduler

import (
	"strings"

	"pindm/pkg/pinterest"
)

// BuildFilename derives the deterministic media filename for a record:
// optional timestamp and username prefixes, a video marker, the message id
// and the pin (or message) identifier, then the extension recovered from
// the image URL.
func BuildFilename(record *pinterest.AttachmentRecord) string {
	var b strings.Builder

	if record.Timestamp != "" {
		b.WriteString(record.Timestamp)
		b.WriteString(" ")
	}
	if record.Username != "" {
		b.WriteString(pinterest.SanitizeUsername(record.Username))
		b.WriteString(" ")
	}
	if record.IsVideo {
		b.WriteString("video_")
	}

	b.WriteString(record.MessageID)
	b.WriteString("_")
	if record.PinID != "" {
		b.WriteString("pin_")
		b.WriteString(record.PinID)
	} else {
		b.WriteString("msg_")
		b.WriteString(record.MessageID)
	}

	b.WriteString(pinterest.MediaExtension(record.ImageURL))
	return b.String()
}
