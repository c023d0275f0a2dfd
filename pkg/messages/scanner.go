package messages

import (
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pindm/pkg/logger"
	"pindm/pkg/pinterest"
)

const (
	containerSelector = `[data-test-id="messages-container"]`
	messageSelector   = `[data-test-id="message-item-container"]`
)

// TimestampInfo is a timestamp marker recovered from a message node,
// optionally together with a sender display name found in the same node.
type TimestampInfo struct {
	Timestamp string
	Username  string
}

// Scanner walks a rendered conversation document and produces partial
// attachment records for every qualifying message.
type Scanner struct {
	logger logger.Logger

	// Now is injectable for deterministic timestamp resolution in tests
	Now func() time.Time
}

// NewScanner creates a conversation scanner
func NewScanner(log logger.Logger) *Scanner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scanner{
		logger: log,
		Now:    time.Now,
	}
}

// ExtractTimestamp scans the immediate text of every div inside a message
// container, classifying each non-empty run as a timestamp or a username,
// never both. First timestamp wins, first username wins; the scan covers
// all divs in one pass to find both. Nil when no timestamp surface exists,
// even if a username was seen.
func (s *Scanner) ExtractTimestamp(message *goquery.Selection) *TimestampInfo {
	now := s.Now()
	var timestamp, username string

	message.Find("div").Each(func(_ int, div *goquery.Selection) {
		text := immediateText(div)
		if text == "" {
			return
		}

		if timestamp == "" {
			if ts, ok := ParseTimestamp(text, now); ok {
				timestamp = ts
				return // a timestamp run is never also a username
			}
		}

		if username == "" && IsUsername(text, now) {
			username = text
		}
	})

	if timestamp == "" {
		return nil
	}
	return &TimestampInfo{Timestamp: timestamp, Username: username}
}

// Scan parses a conversation document and returns the attachment records
// found in it, in document order. The most recently observed timestamp
// marker carries forward to subsequent messages lacking their own.
func (s *Scanner) Scan(r io.Reader) ([]pinterest.AttachmentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	container := doc.Find(containerSelector)
	if container.Length() == 0 {
		s.logger.Warn("no messages container found in document")
		return nil, nil
	}

	var records []pinterest.AttachmentRecord
	var currentTimestamp, currentUsername string

	container.Find(messageSelector).Each(func(_ int, message *goquery.Selection) {
		if info := s.ExtractTimestamp(message); info != nil {
			currentTimestamp = info.Timestamp
			if info.Username != "" {
				currentUsername = info.Username
			}
			s.logger.DebugWithFields("found timestamp marker", map[string]interface{}{
				"timestamp": currentTimestamp,
				"username":  currentUsername,
			})
		}

		record := ExtractAttachment(message)
		if record == nil {
			return
		}

		record.Timestamp = currentTimestamp
		record.Username = pinterest.SanitizeUsername(currentUsername)
		record.PinNumber = len(records) + 1
		records = append(records, *record)
	})

	s.logger.InfoWithFields("conversation scanned", map[string]interface{}{
		"attachments": len(records),
	})

	return records, nil
}
