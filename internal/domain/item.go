package domain

// Item is one discoverable document on the listing page. Items are immutable
// once produced by the listing source; two items are the same entity iff
// their locators are equal.
type Item struct {
	// Locator is the normalized absolute URL of the document.
	Locator string
	// Text is the human-readable label as found on the page. It may carry a
	// trailing " (pdf)" marker that outbound formatting strips.
	Text string
}

// AnnouncedSet maps locator -> last-known display text for every document
// already published. Entries are only ever added; a locator present here is
// never announced again. Serialized as a flat JSON object (the cache.json
// wire format).
type AnnouncedSet map[string]string

// Has reports whether the locator was already announced.
func (s AnnouncedSet) Has(locator string) bool {
	_, ok := s[locator]
	return ok
}

// Outcome records the result of one publish attempt.
type Outcome struct {
	Item Item
	Err  error
}

// Succeeded reports whether the item may be marked announced.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// FeedEntry is one successfully published document in the feed history.
type FeedEntry struct {
	Locator string `json:"href"`
	Text    string `json:"text"`
	Unix    int64  `json:"ts"`
}

// FeedHistory is the append-only log of published documents, oldest first.
// Only the rendered feed is capped; the stored history keeps everything.
// Serialized as a JSON array (the feed-cache.json wire format).
type FeedHistory []FeedEntry
