package pinterest

// AttachmentRecord is one Pinterest message attachment. It is created
// partially during the DOM scan, enriched once the media URL is resolved,
// and consumed exactly once by the download scheduler.
type AttachmentRecord struct {
	SenderID       string
	MessageID      string
	ConversationID string
	PinID          string
	PinURL         string
	IsVideo        bool
	ImageURL       string
	Timestamp      string // "YYYY-MM-DD HHMM", empty if no marker was found
	Username       string
	PinNumber      int // 1-based position within the scan batch, for logging only

	// NeedsImageFetch marks records whose media URL must be recovered from
	// the pin detail page. Videos with an inline poster skip resolution.
	NeedsImageFetch bool
}

// Resolvable reports whether the record can be resolved at all
func (r *AttachmentRecord) Resolvable() bool {
	return r.PinURL != ""
}

// Complete reports whether the record carries a resolved media URL
func (r *AttachmentRecord) Complete() bool {
	return r.ImageURL != ""
}

// DedupKey composes the progress-store key for this record. The resolved
// image URL is part of the key, so a changed resolution re-downloads an
// otherwise identical message. That matches the historical behavior and is
// kept deliberately.
func (r *AttachmentRecord) DedupKey() string {
	return r.SenderID + "_" + r.MessageID + "_" + r.ImageURL
}

// Media is the result of resolving a pin detail page
type Media struct {
	ImageURL string
	IsVideo  bool
}
