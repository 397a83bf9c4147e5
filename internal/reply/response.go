package reply

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// replyPayload is the structured shape models are asked to answer with.
type replyPayload struct {
	Reply string `json:"reply"`
}

// ParseReplyText extracts usable reply text from a raw model completion.
// Models are prompted to answer with {"reply": "..."} but in practice wrap
// it in markdown fences, prepend prose, or emit broken JSON; this parses
// leniently, repairing malformed JSON, and falls back to the trimmed raw
// text when no JSON object is present. Returns "" only for blank input.
func ParseReplyText(raw string) string {
	trimmed := strings.TrimSpace(stripFences(raw))
	if trimmed == "" {
		return ""
	}

	jsonStr := extractJSON(trimmed)
	if jsonStr == "" {
		return strings.Trim(trimmed, `"`)
	}

	repaired, err := jsonrepair.JSONRepair(jsonStr)
	if err != nil {
		repaired = jsonStr
	}

	var payload replyPayload
	if err := json.Unmarshal([]byte(repaired), &payload); err == nil {
		if text := strings.TrimSpace(payload.Reply); text != "" {
			return text
		}
	}

	// JSON present but not in the expected shape; the raw text minus the
	// JSON block is usually the reply itself.
	rest := strings.TrimSpace(strings.Replace(trimmed, jsonStr, "", 1))
	if rest != "" {
		return strings.Trim(rest, `"`)
	}
	return ""
}

func stripFences(s string) string {
	out := s
	for _, fence := range []string{"```json", "```"} {
		out = strings.ReplaceAll(out, fence, "")
	}
	return out
}

// extractJSON returns the outermost {...} block, or "" when none exists.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// Truncate trims text to at most limit runes, appending an ellipsis when
// anything was cut. Safe on multi-byte input.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
