package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/replydeck/pkg/models"
)

const defaultBaseURL = "https://api.twitter.com"

// HTTPConfig parameterizes the HTTP client. Token is the bearer token for
// the managed account; AccountID is the platform user whose mentions are
// polled.
type HTTPConfig struct {
	BaseURL   string
	Token     string
	AccountID string
	Timeout   time.Duration
}

// HTTPClient implements Client against the platform's JSON REST API. All
// outbound requests pass through a shared rate limiter so bursts of batch
// replies stay inside the platform's request budget.
type HTTPClient struct {
	baseURL     string
	token       string
	accountID   string
	httpClient  *http.Client
	RateLimiter *rate.Limiter
}

// NewHTTPClient builds an HTTPClient from cfg, applying defaults.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("social API token is required")
	}
	if strings.TrimSpace(cfg.AccountID) == "" {
		return nil, fmt.Errorf("social API account id is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		token:       cfg.Token,
		accountID:   cfg.AccountID,
		httpClient:  &http.Client{Timeout: timeout},
		RateLimiter: rate.NewLimiter(rate.Every(1*time.Second), 5), // 5 requests per second
	}, nil
}

type mentionPayload struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Author    string `json:"author_username"`
	CreatedAt string `json:"created_at"`
}

// FetchMentions implements Client.
func (c *HTTPClient) FetchMentions(ctx context.Context, sinceID string) ([]models.Mention, error) {
	endpoint := fmt.Sprintf("%s/2/users/%s/mentions", c.baseURL, url.PathEscape(c.accountID))
	if sinceID != "" {
		endpoint += "?since_id=" + url.QueryEscape(sinceID)
	}

	body, status, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{StatusCode: status, Err: err}
	}

	var payload struct {
		Data []mentionPayload `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &FetchError{StatusCode: status, Err: fmt.Errorf("decode mentions: %w", err)}
	}

	mentions := make([]models.Mention, 0, len(payload.Data))
	for _, m := range payload.Data {
		createdAt, _ := time.Parse(time.RFC3339, m.CreatedAt)
		mentions = append(mentions, models.Mention{
			ID:        m.ID,
			Author:    m.Author,
			Text:      m.Text,
			CreatedAt: createdAt,
		})
	}

	// The API returns ascending order; sort defensively so downstream
	// processing always sees oldest first.
	sort.Slice(mentions, func(i, j int) bool {
		return models.CompareIDs(mentions[i].ID, mentions[j].ID) < 0
	})

	return mentions, nil
}

// PostReply implements Client.
func (c *HTTPClient) PostReply(ctx context.Context, mentionID, text string) error {
	if strings.TrimSpace(text) == "" {
		return &PostError{MentionID: mentionID, Err: fmt.Errorf("reply text cannot be empty")}
	}

	payload := map[string]any{
		"text": text,
		"reply": map[string]string{
			"in_reply_to_tweet_id": mentionID,
		},
	}
	_, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/2/tweets", payload)
	if err != nil {
		return &PostError{MentionID: mentionID, StatusCode: status, Err: err}
	}

	log.Debug().Str("mention_id", mentionID).Msg("Posted reply")
	return nil
}

// PostTweet implements Client.
func (c *HTTPClient) PostTweet(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return &PostError{Err: fmt.Errorf("tweet text cannot be empty")}
	}

	payload := map[string]any{"text": text}
	_, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/2/tweets", payload)
	if err != nil {
		return &PostError{StatusCode: status, Err: err}
	}
	return nil
}

// VerifyCredentials implements Client.
func (c *HTTPClient) VerifyCredentials(ctx context.Context) error {
	_, status, err := c.do(ctx, http.MethodGet, c.baseURL+"/2/users/me", nil)
	if err != nil {
		return fmt.Errorf("verify credentials (status %d): %w", status, err)
	}
	return nil
}

// do performs one rate-limited request and returns the body and status.
// Non-2xx responses are errors carrying the (truncated) response body.
func (c *HTTPClient) do(ctx context.Context, method, endpoint string, payload any) ([]byte, int, error) {
	if err := c.RateLimiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("API error: %s", truncateBody(respBody))
	}

	return respBody, resp.StatusCode, nil
}

func truncateBody(b []byte) string {
	const max = 500
	s := string(b)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
