package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"comment_analyzer/internal/domain"
)

// Config holds YouTube client configuration.
type Config struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// Client fetches one page of top-level comments per call. It carries no
// credential state of its own; the key for each request is passed in by the
// caller so rotation stays outside this package.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  cfg.BaseURL,
		pageSize: cfg.PageSize,
		logger:   logger.With("source", "youtube"),
	}
}

// FetchPage requests a single commentThreads page. An empty cursor fetches
// the first page; an empty NextCursor in the result means the video has no
// more comments. Quota and credential problems come back as
// domain.ErrQuotaExceeded / domain.ErrInvalidCredential so the caller can
// rotate; anything retryable wraps domain.ErrTransient.
func (c *Client) FetchPage(ctx context.Context, key, videoID, cursor string) (*domain.Page, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("videoId", videoID)
	q.Set("textFormat", "plainText")
	q.Set("maxResults", fmt.Sprintf("%d", c.pageSize))
	q.Set("key", key)
	if cursor != "" {
		q.Set("pageToken", cursor)
	}

	reqURL := c.baseURL + "/commentThreads?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CommentAnalyzer/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("execute request: %w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyError(resp)
	}

	var apiResp commentThreadsResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w: %v", domain.ErrTransient, err)
	}

	return &domain.Page{
		Comments:   c.transform(apiResp.Items),
		NextCursor: apiResp.NextPageToken,
	}, nil
}

// classifyError maps a non-200 response onto the four outcomes the fetch
// loop branches on. Unknown 4xx reasons are treated as transient rather than
// burning a key on a guess.
func (c *Client) classifyError(resp *http.Response) error {
	var apiErr apiError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	reason := apiErr.reason()

	switch reason {
	case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
		return fmt.Errorf("status %d (%s): %w", resp.StatusCode, reason, domain.ErrQuotaExceeded)
	case "keyInvalid", "keyExpired", "forbidden":
		return fmt.Errorf("status %d (%s): %w", resp.StatusCode, reason, domain.ErrInvalidCredential)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrInvalidCredential)
	}
	return fmt.Errorf("status %d (%s): %w", resp.StatusCode, reason, domain.ErrTransient)
}

func (c *Client) transform(items []commentThread) []domain.Comment {
	comments := make([]domain.Comment, 0, len(items))

	for _, item := range items {
		snippet := item.Snippet.TopLevelComment.Snippet

		publishedAt, err := time.Parse(time.RFC3339, snippet.PublishedAt)
		if err != nil {
			c.logger.Warn("failed to parse published_at",
				"external_id", item.ID,
				"published_at", snippet.PublishedAt,
			)
			continue
		}

		comments = append(comments, domain.Comment{
			ExternalID:  item.ID,
			Text:        snippet.TextDisplay,
			Author:      snippet.AuthorDisplayName,
			LikeCount:   snippet.LikeCount,
			PublishedAt: publishedAt,
		})
	}

	return comments
}
