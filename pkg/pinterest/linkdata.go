package pinterest

import (
	"net/url"
	"regexp"
)

var pinPathRegex = regexp.MustCompile(`/pin/(\d+)`)

// LinkData holds the identifying fields parsed from a pin URL shared in a
// message. Query parameters may be absent; the corresponding fields are
// empty, which is tolerated.
type LinkData struct {
	PinID          string
	ConversationID string
	MessageID      string
	SenderID       string
}

// AbsoluteURL resolves a possibly-relative href against the Pinterest
// origin. Unparseable hrefs come back unchanged.
func AbsoluteURL(href string) string {
	base, err := url.Parse(BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// ParseLinkData parses a pin URL's path and query parameters. It returns nil
// when the path does not contain a /pin/<digits> segment or the URL does not
// parse at all. Relative hrefs are resolved against the Pinterest origin.
func ParseLinkData(href string) *LinkData {
	base, err := url.Parse(BaseURL)
	if err != nil {
		return nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	u := base.ResolveReference(ref)

	match := pinPathRegex.FindStringSubmatch(u.Path)
	if match == nil {
		return nil
	}

	query := u.Query()
	return &LinkData{
		PinID:          match[1],
		ConversationID: query.Get("conversation_id"),
		MessageID:      query.Get("message"),
		SenderID:       query.Get("sender"),
	}
}
