package pinterest

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pindm/pkg/errors"
	"pindm/pkg/logger"
)

// Resolver fetches a pin's detail page and extracts the single best media
// URL through an ordered cascade of pattern matchers. Later, more general
// patterns exist purely as fallbacks: the first matching tier wins.
type Resolver struct {
	client *Client
	logger logger.Logger
}

// NewResolver creates a pin page resolver
func NewResolver(client *Client, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{client: client, logger: log}
}

// Resolve fetches the pin page and extracts the best-resolution image URL,
// or the poster URL when the pin is a video. Network failures and pages
// with no extractable media are both recoverable per record: the caller
// skips the record and continues the batch.
func (r *Resolver) Resolve(ctx context.Context, pinURL string) (Media, error) {
	body, err := r.client.FetchPage(ctx, pinURL)
	if err != nil {
		return Media{}, err
	}

	media, err := ExtractMedia(body)
	if err != nil {
		r.logger.WarnWithFields("no media found in pin page", map[string]interface{}{
			"pin_url": pinURL,
		})
		return Media{}, err
	}

	r.logger.DebugWithFields("pin resolved", map[string]interface{}{
		"pin_url":   pinURL,
		"image_url": media.ImageURL,
		"is_video":  media.IsVideo,
	})

	return media, nil
}

// extractor is one ranked attempt within a fallback cascade
type extractor struct {
	name string
	fn   func(*pinPage) (string, bool)
}

// pinPage wraps the raw markup together with its parsed document so both
// structured and pattern tiers can run over the same page.
type pinPage struct {
	body string
	doc  *goquery.Document
}

func newPinPage(body string) *pinPage {
	p := &pinPage{body: body}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		p.doc = doc
	}
	return p
}

// firstMatch evaluates extractors in priority order and returns the first hit
func firstMatch(p *pinPage, extractors []extractor) (string, string, bool) {
	for _, e := range extractors {
		if url, ok := e.fn(p); ok && url != "" {
			return url, e.name, true
		}
	}
	return "", "", false
}

var (
	videoPosterDQRegex = regexp.MustCompile(`<video[^>]*\sposter="([^"]+)"`)
	videoPosterSQRegex = regexp.MustCompile(`<video[^>]*\sposter='([^']+)'`)
	dataPosterRegex    = regexp.MustCompile(`data-poster=["']([^"']+)["']`)

	videoURLFieldRegex  = regexp.MustCompile(`"video_url"\s*:\s*"([^"]+)"`)
	posterURLFieldRegex = regexp.MustCompile(`"poster_url"\s*:\s*"([^"]+)"`)
	posterUrlCamelRegex = regexp.MustCompile(`"posterUrl"\s*:\s*"([^"]+)"`)
	posterFieldRegex    = regexp.MustCompile(`"poster"\s*:\s*"(http[^"]+)"`)
	anyPosterFieldRegex = regexp.MustCompile(`"poster[A-Za-z_]*"\s*:\s*"(http[^"]+)"`)

	imgOriginalsRegex = regexp.MustCompile(`<img[^>]+src=["'](https?://[^"']*(?:originals|736x)[^"']*)["']`)
	imgSizeTokenRegex = regexp.MustCompile(`<img[^>]+src=["'](https?://[^"']*/\d{3,4}x[^"'/]*/[^"']*)["']`)
	imgCDNHostRegex   = regexp.MustCompile(`<img[^>]+src=["'](https?://i\.pinimg\.com/[^"']+)["']`)
)

// Secondary indicators that a pin is a video even when no poster-bearing
// element survived into the markup.
var videoIndicators = []string{
	`"type":"video"`,
	`"is_video":true`,
	`story-pin-video`,
	`videoUrl`,
}

func matchRegex(re *regexp.Regexp) func(*pinPage) (string, bool) {
	return func(p *pinPage) (string, bool) {
		match := re.FindStringSubmatch(p.body)
		if match == nil {
			return "", false
		}
		return unescapeJSONURL(match[1]), true
	}
}

func matchSelector(selector, attr string) func(*pinPage) (string, bool) {
	return func(p *pinPage) (string, bool) {
		if p.doc == nil {
			return "", false
		}
		val, ok := p.doc.Find(selector).First().Attr(attr)
		if !ok || val == "" {
			return "", false
		}
		return val, true
	}
}

// unescapeJSONURL undoes the escaped slashes of URLs lifted out of embedded
// JSON blobs
func unescapeJSONURL(url string) string {
	return strings.ReplaceAll(url, `\/`, "/")
}

// videoElementExtractors are the video-element search patterns: tag, wrapped
// container, data attribute, and the story-video container variant.
var videoElementExtractors = []extractor{
	{"video-poster-dq", matchRegex(videoPosterDQRegex)},
	{"video-poster-sq", matchRegex(videoPosterSQRegex)},
	{"video-data-poster", matchRegex(dataPosterRegex)},
	{"story-video-container", matchSelector(`[data-test-id="story-pin-video"] video`, "poster")},
}

// jsonPosterExtractors are the embedded-JSON poster field variants
var jsonPosterExtractors = []extractor{
	{"json-poster-url", matchRegex(posterURLFieldRegex)},
	{"json-poster-url-camel", matchRegex(posterUrlCamelRegex)},
	{"json-poster", matchRegex(posterFieldRegex)},
}

// imageExtractors are the image tiers, from the most specific containers
// down to anything hosted on the image CDN
var imageExtractors = []extractor{
	{"closeup-container", matchSelector(`[data-test-id="closeup-image"] img`, "src")},
	{"presentation-container", matchSelector(`[role="presentation"] img`, "src")},
	{"closeup-marker", matchSelector(`img[data-test-id="pin-closeup-image"]`, "src")},
	{"img-originals", matchRegex(imgOriginalsRegex)},
	{"img-size-token", matchRegex(imgSizeTokenRegex)},
	{"img-cdn-host", matchRegex(imgCDNHostRegex)},
}

// ExtractMedia runs the extraction cascade over raw pin page markup.
//
// Tier 1 detects videos: a poster-bearing video element, a JSON
// video_url/poster_url pair, or a secondary video indicator combined with
// any JSON poster field. Tier 2 extracts images through the ranked image
// patterns. Tier 3 reclassifies an image whose URL carries the video
// thumbnails path marker back into a video poster. Anything else is an
// extraction failure.
func ExtractMedia(body string) (Media, error) {
	page := newPinPage(body)

	// Tier 1: video detection
	if poster, ok := findVideoPoster(page); ok {
		return Media{ImageURL: UpgradeResolution(poster), IsVideo: true}, nil
	}

	// Tier 2: image extraction
	imageURL, _, ok := firstMatch(page, imageExtractors)
	if !ok {
		return Media{}, errors.New(errors.ErrorTypeExtraction, "no media found in pin page", 0)
	}

	// Tier 3: an image URL under the video thumbnails path is really a
	// video poster that tier 1 missed
	if strings.Contains(imageURL, VideoThumbnailsMarker) {
		if poster, _, found := firstMatch(page, videoElementExtractors); found {
			return Media{ImageURL: UpgradeResolution(poster), IsVideo: true}, nil
		}
		if poster, _, found := firstMatch(page, jsonPosterExtractors); found {
			return Media{ImageURL: UpgradeResolution(poster), IsVideo: true}, nil
		}
		// No video element survived into the markup; the thumbnail itself
		// is the poster
		return Media{ImageURL: UpgradeResolution(imageURL), IsVideo: true}, nil
	}

	return Media{ImageURL: UpgradeResolution(imageURL), IsVideo: false}, nil
}

// findVideoPoster implements the tier-1 video detection cascade
func findVideoPoster(p *pinPage) (string, bool) {
	if poster, _, ok := firstMatch(p, videoElementExtractors); ok {
		return poster, true
	}

	// A video_url/poster_url JSON pair identifies a video even without a
	// rendered video element
	if videoURLFieldRegex.MatchString(p.body) {
		if match := posterURLFieldRegex.FindStringSubmatch(p.body); match != nil {
			return unescapeJSONURL(match[1]), true
		}
	}

	// Secondary indicators justify one more attempt on any poster field
	for _, indicator := range videoIndicators {
		if strings.Contains(p.body, indicator) {
			if match := anyPosterFieldRegex.FindStringSubmatch(p.body); match != nil {
				return unescapeJSONURL(match[1]), true
			}
			break
		}
	}

	return "", false
}
