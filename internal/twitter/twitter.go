package twitter

import (
	"context"
	"fmt"

	"github.com/replydeck/pkg/models"
)

// Client is the social API collaborator boundary. Both calls are fallible
// remote operations with no retry guarantees of their own; retry policy
// belongs to the caller.
type Client interface {
	// FetchMentions returns mentions newer than sinceID in ascending ID
	// order. An empty sinceID returns all currently visible mentions.
	FetchMentions(ctx context.Context, sinceID string) ([]models.Mention, error)

	// PostReply posts text as a reply to the given mention.
	PostReply(ctx context.Context, mentionID, text string) error

	// PostTweet posts a standalone message.
	PostTweet(ctx context.Context, text string) error

	// VerifyCredentials checks the configured token early so auth problems
	// surface before any loop starts.
	VerifyCredentials(ctx context.Context) error
}

// FetchError wraps a failed mentions fetch.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch mentions failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch mentions failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PostError wraps a failed post. MentionID is empty for standalone tweets.
type PostError struct {
	MentionID  string
	StatusCode int
	Err        error
}

func (e *PostError) Error() string {
	if e.MentionID != "" {
		return fmt.Sprintf("post reply to %s failed (status %d): %v", e.MentionID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("post failed (status %d): %v", e.StatusCode, e.Err)
}

func (e *PostError) Unwrap() error { return e.Err }

// Retryable reports whether the error looks transient (server-side or
// network trouble) rather than a permanent rejection.
func Retryable(statusCode int) bool {
	return statusCode == 0 || statusCode == 429 || statusCode >= 500
}
