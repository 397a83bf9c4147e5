package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/replydeck/internal/ai"
	"github.com/replydeck/pkg/models"
)

// defaultSystemPrompt is the static instruction set used unless overridden
// at configuration time.
const defaultSystemPrompt = `You are a friendly, professional account manager for a social media account.
Your job is to reply to mentions in a helpful, engaging way.

Guidelines:
- Keep replies under 280 characters
- Be concise and natural
- Match the tone of the mention (friendly, professional, etc.)
- If it's a question, try to answer helpfully
- If it's positive feedback, thank them warmly
- If it's a complaint, be empathetic and helpful
- Avoid controversial topics
- Don't include hashtags unless the original mention had them

Respond ONLY with a JSON object of the form {"reply": "<the reply text>"} and nothing else.`

// Budget gates AI usage. Implementations report whether n units could be
// consumed; a refusal downgrades generation to the template path.
type Budget interface {
	Consume(n int) bool
}

// Config assembles a Generator. A nil Provider selects template mode.
type Config struct {
	Provider     ai.Provider
	SystemPrompt string
	BrandContext string
	MaxTokens    int
	Quota        Budget
}

// Generator produces a reply for every mention. It never fails to the
// caller: any adapter error is logged and converted to a deterministic
// template reply. This is the reliability boundary that keeps the auto-reply
// loop alive through AI backend outages.
type Generator struct {
	provider     ai.Provider
	systemPrompt string
	brandContext string
	maxTokens    int
	quota        Budget
}

// NewGenerator builds a Generator from cfg, applying defaults.
func NewGenerator(cfg Config) *Generator {
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 || maxTokens > ai.MaxReplyTokens {
		maxTokens = 100
	}
	return &Generator{
		provider:     cfg.Provider,
		systemPrompt: systemPrompt,
		brandContext: cfg.BrandContext,
		maxTokens:    maxTokens,
		quota:        cfg.Quota,
	}
}

// Reply is a total function: for any request it returns a non-empty result
// within the platform length limit, sourced from the provider on success and
// from the template generator otherwise.
func (g *Generator) Reply(ctx context.Context, req models.ReplyRequest) models.ReplyResult {
	if g.provider == nil {
		return g.templateResult(req)
	}

	if g.quota != nil && !g.quota.Consume(1) {
		log.Warn().
			Str("provider", g.provider.Name()).
			Msg("Monthly reply budget exhausted, using template")
		return g.templateResult(req)
	}

	raw, err := g.provider.Generate(ctx, g.buildUserPrompt(req), g.systemPrompt, g.maxTokens)
	if err != nil {
		log.Warn().
			Str("provider", g.provider.Name()).
			Str("error_kind", ai.ErrorKind(err)).
			Err(err).
			Msg("AI generation failed, falling back to template")
		return g.templateResult(req)
	}

	text := Truncate(ParseReplyText(raw), models.PlatformReplyLimit)
	if text == "" {
		log.Warn().
			Str("provider", g.provider.Name()).
			Msg("AI returned no usable text, falling back to template")
		return g.templateResult(req)
	}

	return models.ReplyResult{Text: text, Source: g.provider.Name()}
}

func (g *Generator) templateResult(req models.ReplyRequest) models.ReplyResult {
	return models.ReplyResult{
		Text:   TemplateReply(req.MentionText),
		Source: models.ReplySourceTemplate,
	}
}

func (g *Generator) buildUserPrompt(req models.ReplyRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Someone (@%s) mentioned you:\n\n", req.MentionAuthor)
	fmt.Fprintf(&b, "%q\n\n", req.MentionText)

	brandContext := req.BrandContext
	if brandContext == "" {
		brandContext = g.brandContext
	}
	if brandContext != "" {
		fmt.Fprintf(&b, "Context about your account: %s\n\n", brandContext)
	}

	b.WriteString("Generate a reply (without the @username prefix - that will be added automatically).")
	return b.String()
}
