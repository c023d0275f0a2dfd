// Package gallery renders static monthly HTML documents over downloaded
// Pinterest attachments.
package gallery

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"pindm/pkg/pinterest"
)

// Asset is a third-party file a gallery page depends on. Assets are fetched
// once and cached beside the gallery files so the pages work offline.
type Asset struct {
	Name string
	URL  string
}

// Assets lists the lightbox viewer dependencies in load order.
var Assets = []Asset{
	{Name: "lightbox.min.css", URL: "https://cdnjs.cloudflare.com/ajax/libs/lightbox2/2.11.4/css/lightbox.min.css"},
	{Name: "jquery.min.js", URL: "https://cdnjs.cloudflare.com/ajax/libs/jquery/3.7.1/jquery.min.js"},
	{Name: "lightbox.min.js", URL: "https://cdnjs.cloudflare.com/ajax/libs/lightbox2/2.11.4/js/lightbox.min.js"},
}

// MonthKey identifies one gallery bucket.
type MonthKey struct {
	Year  int
	Month time.Month
}

// BucketFor derives the month bucket for a record: the message timestamp
// when one was extracted, the processing time otherwise.
func BucketFor(record *pinterest.AttachmentRecord, now time.Time) MonthKey {
	if record.Timestamp != "" {
		if ts, err := time.Parse("2006-01-02 1504", record.Timestamp); err == nil {
			return MonthKey{Year: ts.Year(), Month: ts.Month()}
		}
	}
	return MonthKey{Year: now.Year(), Month: now.Month()}
}

// Filename returns the gallery document name for a bucket.
func (k MonthKey) Filename() string {
	return fmt.Sprintf("pinterest_pins_%d_%02d_%s.html", k.Year, int(k.Month), k.Month.String())
}

// Entry is one attachment placed in a gallery.
type Entry struct {
	Record pinterest.AttachmentRecord
	// LocalPath is the media file path relative to the gallery document.
	// Empty when the download produced no local file; the card then falls
	// back to the remote image URL.
	LocalPath string
	// RedirectPath is the relative path of the video redirect artifact,
	// set only for videos.
	RedirectPath string
}

type cardData struct {
	SenderID  string
	MessageID string
	Timestamp string
	Username  string
	ImageHref template.URL
	ThumbSrc  template.URL
	IsVideo   bool
	VideoHref template.URL
	PinURL    template.URL
	Group     string
}

type pageData struct {
	Title string
	Cards []cardData
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="lightbox.min.css">
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background: #f5f5f5; }
        .header { text-align: center; margin-bottom: 30px; }
        .pin-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(250px, 1fr)); gap: 20px; }
        .pin-card {
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
            transition: transform 0.2s;
            position: relative;
        }
        .pin-card:hover { transform: translateY(-2px); }
        .pin-image { width: 100%; height: 200px; object-fit: cover; display: block; }
        .pin-info { padding: 15px; }
        .pin-sender { font-weight: bold; color: #e60023; margin-bottom: 5px; }
        .pin-date { color: #666; font-size: 0.9em; margin-bottom: 10px; }
        .video-overlay {
            position: absolute;
            top: 8px;
            right: 8px;
            background: rgba(0,0,0,0.7);
            color: white;
            padding: 4px 8px;
            border-radius: 4px;
            font-size: 0.8em;
            text-decoration: none;
        }
        .pin-link {
            color: #0073e6;
            text-decoration: none;
            font-weight: bold;
            display: inline-block;
            margin-top: 5px;
        }
        .pin-link:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <p>Downloaded images and pin links from Pinterest messages</p>
    </div>
    <div class="pin-grid">
{{- range .Cards}}
        <div class="pin-card">
            {{- if .IsVideo}}
            <a href="{{.VideoHref}}" class="video-overlay">&#9654; Video</a>
            <a href="{{.VideoHref}}"><img src="{{.ThumbSrc}}" alt="Pinterest Pin" class="pin-image" loading="lazy"></a>
            {{- else}}
            <a href="{{.ImageHref}}" data-lightbox="{{.Group}}"><img src="{{.ThumbSrc}}" alt="Pinterest Pin" class="pin-image" loading="lazy"></a>
            {{- end}}
            <div class="pin-info">
                <div class="pin-sender">From: {{if .Username}}{{.Username}}{{else}}Sender {{.SenderID}}{{end}}</div>
                <div class="pin-date">Message: {{.MessageID}}{{if .Timestamp}} &middot; {{.Timestamp}}{{end}}</div>
                {{- if .PinURL}}
                <a href="{{.PinURL}}" target="_blank" class="pin-link">View Original Pin</a>
                {{- end}}
            </div>
        </div>
{{- end}}
    </div>
    <script src="jquery.min.js"></script>
    <script src="lightbox.min.js"></script>
</body>
</html>
`

// Builder renders gallery documents.
type Builder struct {
	tmpl *template.Template
}

func NewBuilder() *Builder {
	return &Builder{
		tmpl: template.Must(template.New("gallery").Parse(pageTemplate)),
	}
}

// Render produces the gallery document for one month bucket.
func (b *Builder) Render(key MonthKey, entries []Entry) ([]byte, error) {
	data := pageData{
		Title: fmt.Sprintf("Pinterest Pins - %s %d", key.Month.String(), key.Year),
		Cards: make([]cardData, 0, len(entries)),
	}
	group := fmt.Sprintf("pins-%d-%02d", key.Year, int(key.Month))

	for _, entry := range entries {
		card := cardData{
			SenderID:  entry.Record.SenderID,
			MessageID: entry.Record.MessageID,
			Timestamp: entry.Record.Timestamp,
			Username:  entry.Record.Username,
			IsVideo:   entry.Record.IsVideo,
			PinURL:    template.URL(entry.Record.PinURL),
			Group:     group,
		}

		if entry.LocalPath != "" {
			card.ThumbSrc = template.URL(entry.LocalPath)
			card.ImageHref = template.URL(entry.LocalPath)
		} else {
			card.ThumbSrc = template.URL(entry.Record.ImageURL)
			card.ImageHref = template.URL(entry.Record.ImageURL)
		}
		if entry.Record.IsVideo {
			if entry.RedirectPath != "" {
				card.VideoHref = template.URL(entry.RedirectPath)
			} else {
				card.VideoHref = card.PinURL
			}
		}

		data.Cards = append(data.Cards, card)
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render gallery: %w", err)
	}
	return buf.Bytes(), nil
}
