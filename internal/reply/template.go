package reply

import (
	"strings"
)

// templateRule maps a keyword group to a canned reply. First matching group
// wins; tie-break is declaration order.
type templateRule struct {
	keywords []string
	text     string
}

var templateRules = []templateRule{
	{
		keywords: []string{"thanks", "thank you", "appreciate"},
		text:     "You're very welcome! Glad I could help! 😊",
	},
	{
		keywords: []string{"problem", "issue", "bug", "error", "broken"},
		text:     "Sorry to hear that! Let me look into this for you. Can you DM me more details?",
	},
	{
		keywords: []string{"help", "how", "?"},
		text:     "Happy to help! Feel free to DM me if you need more details.",
	},
	{
		keywords: []string{"great", "awesome", "love", "amazing"},
		text:     "Thank you so much! Really appreciate the kind words! 🙌",
	},
}

const defaultTemplate = "Thanks for reaching out! I appreciate you connecting with me."

// TemplateReply produces a deterministic reply for the mention text with no
// external dependency. Matching is case-insensitive; any input that matches
// no group (including pure emoji or non-English text) gets the default
// acknowledgment. Output is non-empty for any input.
func TemplateReply(mentionText string) string {
	lower := strings.ToLower(mentionText)
	for _, rule := range templateRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.text
			}
		}
	}
	return defaultTemplate
}
