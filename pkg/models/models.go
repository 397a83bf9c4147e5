package models

import (
	"strings"
	"time"
)

// PlatformReplyLimit is the maximum rune length of a posted reply.
const PlatformReplyLimit = 280

// Mention is an inbound message that references the managed account.
// Mentions are immutable once fetched; IDs are opaque but monotonically
// increasing numeric strings on the platform side.
type Mention struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CompareIDs orders two platform mention IDs. IDs are opaque numeric
// strings; comparison is by numeric magnitude (length, then lexicographic,
// after stripping leading zeros). Returns -1, 0, or 1.
func CompareIDs(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// ReplyRequest carries everything the reply generator needs for one mention.
// Constructed per mention and discarded after use.
type ReplyRequest struct {
	MentionText   string `json:"mention_text"`
	MentionAuthor string `json:"mention_author"`
	BrandContext  string `json:"brand_context,omitempty"`
}

// ReplySourceTemplate is the ReplyResult source used when the deterministic
// template generator produced the text.
const ReplySourceTemplate = "template"

// ReplyResult is the outcome of reply generation. Text is always non-empty
// and within PlatformReplyLimit; Source is either a provider name or
// ReplySourceTemplate.
type ReplyResult struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// ProviderConfig selects and parameterizes one AI backend. Loaded once at
// startup and treated as immutable for the process lifetime.
type ProviderConfig struct {
	Name        string  `json:"name"`
	Model       string  `json:"model,omitempty"`
	EndpointURL string  `json:"endpoint_url,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// ScheduleItem is one message in a bulk or scheduled posting job.
type ScheduleItem struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	FireAt time.Time `json:"fire_at,omitempty"`
}

// ItemResult records the per-item outcome of a bulk/schedule run. A failed
// item never aborts the remaining items.
type ItemResult struct {
	ItemID   string    `json:"item_id"`
	Text     string    `json:"text"`
	PostedAt time.Time `json:"posted_at,omitempty"`
	Err      error     `json:"-"`
}

// Posted reports whether the item was successfully posted.
func (r ItemResult) Posted() bool {
	return r.Err == nil
}
