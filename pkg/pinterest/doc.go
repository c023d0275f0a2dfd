// Package pinterest talks to Pinterest: it parses pin URLs, fetches pin
// detail pages with browser-like headers, and recovers the best-resolution
// media URL for a pin.
//
// The package handles:
//   - Parsing pin links shared in messages (pin id plus the identifying
//     conversation/message/sender query parameters)
//   - Fetching pin detail pages and downloading media with typed errors
//     for rate limits, missing pins and server failures
//   - Extracting the media URL from a pin page through an ordered pattern
//     cascade (video detection first, then image containers, then generic
//     CDN fallbacks)
//   - Upgrading sized CDN URLs to their originals variant
//
// The Resolver type is the primary entry point for media extraction:
//
//	client := pinterest.NewClient(30*time.Second, 2, log)
//	resolver := pinterest.NewResolver(client, log)
//
//	media, err := resolver.Resolve(ctx, "https://www.pinterest.com/pin/1234/")
//	if err != nil {
//	    // no media found, or the page could not be fetched
//	}
//	fmt.Println(media.ImageURL, media.IsVideo)
//
// All extraction patterns are first-match-wins: later, more general
// patterns exist purely as fallbacks and never override an earlier match.
package pinterest
