package reply

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replydeck/internal/ai"
	"github.com/replydeck/pkg/models"
)

type fakeProvider struct {
	name    string
	text    string
	err     error
	calls   int
	prompts []string
}

func (f *fakeProvider) Generate(_ context.Context, prompt, _ string, _ int) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeProvider) Name() string { return f.name }

type fixedBudget struct{ left int }

func (b *fixedBudget) Consume(n int) bool {
	if b.left < n {
		return false
	}
	b.left -= n
	return true
}

func TestReplyTemplateMode(t *testing.T) {
	g := NewGenerator(Config{})

	res := g.Reply(context.Background(), models.ReplyRequest{
		MentionText:   "your app is broken, please fix",
		MentionAuthor: "frustrated_user",
	})

	assert.Equal(t, models.ReplySourceTemplate, res.Source)
	assert.Equal(t, TemplateReply("your app is broken, please fix"), res.Text)
}

func TestReplyProviderSuccess(t *testing.T) {
	p := &fakeProvider{name: "openai", text: `{"reply": "Dark mode is coming next month!"}`}
	g := NewGenerator(Config{Provider: p, BrandContext: "sushi delivery app"})

	res := g.Reply(context.Background(), models.ReplyRequest{
		MentionText:   "Can you add dark mode?",
		MentionAuthor: "techfan123",
	})

	assert.Equal(t, "openai", res.Source)
	assert.Equal(t, "Dark mode is coming next month!", res.Text)
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "@techfan123")
	assert.Contains(t, p.prompts[0], "sushi delivery app")
}

func TestReplyFallsBackOnEveryErrorKind(t *testing.T) {
	errs := []error{
		&ai.AuthError{Provider: "openai", EnvVar: "OPENAI_API_KEY"},
		&ai.RateLimitError{Provider: "openai"},
		&ai.NetworkError{Provider: "openai"},
		&ai.UnsupportedModelError{Provider: "openai", Model: "gpt-9"},
	}

	req := models.ReplyRequest{MentionText: "thanks a lot!", MentionAuthor: "happyuser"}
	for _, e := range errs {
		g := NewGenerator(Config{Provider: &fakeProvider{name: "openai", err: e}})
		res := g.Reply(context.Background(), req)

		assert.Equal(t, models.ReplySourceTemplate, res.Source)
		// Fallback is the deterministic template, not a second AI call.
		assert.Equal(t, TemplateReply(req.MentionText), res.Text)
	}
}

func TestReplyAlwaysWithinPlatformLimit(t *testing.T) {
	p := &fakeProvider{name: "gemini", text: strings.Repeat("x", 1000)}
	g := NewGenerator(Config{Provider: p})

	res := g.Reply(context.Background(), models.ReplyRequest{MentionText: "hi", MentionAuthor: "a"})

	assert.NotEmpty(t, res.Text)
	assert.LessOrEqual(t, len([]rune(res.Text)), models.PlatformReplyLimit)
}

func TestReplyEmptyCompletionFallsBack(t *testing.T) {
	p := &fakeProvider{name: "ollama", text: "   "}
	g := NewGenerator(Config{Provider: p})

	res := g.Reply(context.Background(), models.ReplyRequest{MentionText: "hello", MentionAuthor: "a"})
	assert.Equal(t, models.ReplySourceTemplate, res.Source)
	assert.NotEmpty(t, res.Text)
}

func TestReplyQuotaExhausted(t *testing.T) {
	p := &fakeProvider{name: "openai", text: `{"reply": "ok"}`}
	g := NewGenerator(Config{Provider: p, Quota: &fixedBudget{left: 1}})

	req := models.ReplyRequest{MentionText: "hello", MentionAuthor: "a"}

	first := g.Reply(context.Background(), req)
	assert.Equal(t, "openai", first.Source)

	second := g.Reply(context.Background(), req)
	assert.Equal(t, models.ReplySourceTemplate, second.Source)
	assert.Equal(t, 1, p.calls)
}
