package messages

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"pindm/pkg/pinterest"
)

// pinLinkSelector matches the anchor of a qualifying attachment message: a
// pin link carrying all three identifying query parameters.
const pinLinkSelector = `a[href*="/pin/"][href*="conversation_id"][href*="message"][href*="sender"]`

// ExtractAttachment inspects one rendered message node and returns the
// attachment it carries, or nil when the node is not a qualifying
// attachment message. Pin links with an unparseable path are dropped
// silently; they never enter the pipeline.
//
// A video element with a non-empty poster resolves the record immediately;
// everything else is marked for remote resolution, which also covers pins
// that turn out to be videos without an inline poster.
func ExtractAttachment(message *goquery.Selection) *pinterest.AttachmentRecord {
	pinLink := message.Find(pinLinkSelector).First()
	if pinLink.Length() == 0 {
		return nil
	}

	href, _ := pinLink.Attr("href")
	linkData := pinterest.ParseLinkData(href)
	if linkData == nil {
		return nil
	}

	record := &pinterest.AttachmentRecord{
		SenderID:       linkData.SenderID,
		MessageID:      linkData.MessageID,
		ConversationID: linkData.ConversationID,
		PinID:          linkData.PinID,
		PinURL:         pinterest.AbsoluteURL(href),
	}

	if poster, ok := message.Find("video").First().Attr("poster"); ok && poster != "" {
		record.IsVideo = true
		record.ImageURL = poster
		record.NeedsImageFetch = false
		return record
	}

	record.NeedsImageFetch = true
	return record
}

// immediateText returns only the direct text nodes of an element, excluding
// text that belongs to child elements
func immediateText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.TextNode {
				b.WriteString(child.Data)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
