// Package fetcher pulls one logical comment collection across multiple pages,
// rotating API keys on quota failures and degrading to synthetic data when
// every key is spent. It never returns a hard failure because of quota.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"comment_analyzer/internal/domain"
	"comment_analyzer/internal/keypool"
)

// CredentialPool supplies the key to use next and receives the outcome of
// each attempt.
type CredentialPool interface {
	Active() (string, error)
	ReportOutcome(key string, outcome keypool.Outcome)
}

// PageSource fetches a single page of comments with a given key and cursor.
type PageSource interface {
	FetchPage(ctx context.Context, key, videoID, cursor string) (*domain.Page, error)
}

// SyntheticSource produces the fallback dataset.
type SyntheticSource interface {
	Generate(maxItems int, category string) []domain.Comment
}

// Config holds fetch loop configuration.
type Config struct {
	DefaultMaxItems  int
	DefaultMaxPages  int
	MaxAttempts      int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	FallbackCategory string
}

type PagedFetcher struct {
	pool      CredentialPool
	source    PageSource
	synthetic SyntheticSource
	cfg       Config
	logger    *slog.Logger
}

func New(pool CredentialPool, source PageSource, synthetic SyntheticSource, cfg Config, logger *slog.Logger) *PagedFetcher {
	if cfg.DefaultMaxItems <= 0 {
		cfg.DefaultMaxItems = 200
	}
	if cfg.DefaultMaxPages <= 0 {
		cfg.DefaultMaxPages = 3
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.FallbackCategory == "" {
		cfg.FallbackCategory = "tech"
	}
	return &PagedFetcher{
		pool:      pool,
		source:    source,
		synthetic: synthetic,
		cfg:       cfg,
		logger:    logger.With("component", "fetcher"),
	}
}

// Fetch collects up to maxItems comments over up to maxPages pages. Quota and
// credential failures rotate to the next key mid-session and re-request the
// same cursor, so no page is half-consumed by a dying key. A session with no
// real data falls back to synthetic items, flagged as such.
func (f *PagedFetcher) Fetch(ctx context.Context, videoID string, maxItems, maxPages int) *domain.Session {
	if maxItems <= 0 {
		maxItems = f.cfg.DefaultMaxItems
	}
	if maxPages <= 0 {
		maxPages = f.cfg.DefaultMaxPages
	}

	session := &domain.Session{
		VideoID:  videoID,
		MaxItems: maxItems,
		MaxPages: maxPages,
		Outcome:  domain.OutcomeLive,
	}

	cursor := ""
	poolDrained := false

	for session.PagesProcessed < maxPages && len(session.Comments) < maxItems {
		key, err := f.pool.Active()
		if err != nil {
			poolDrained = true
			break
		}

		page, err := f.fetchPageWithRetry(ctx, key, videoID, cursor)
		switch {
		case err == nil:
			f.pool.ReportOutcome(key, keypool.OutcomeSuccess)
			session.Comments = appendCapped(session.Comments, page.Comments, maxItems)
			session.PagesProcessed++
			cursor = page.NextCursor
			f.logger.Debug("fetched page",
				"video_id", videoID,
				"page", session.PagesProcessed,
				"total", len(session.Comments),
			)
			if cursor == "" {
				// target exhausted, which is success, not a quota signal
				return session
			}

		case errors.Is(err, domain.ErrQuotaExceeded):
			f.pool.ReportOutcome(key, keypool.OutcomeQuotaExceeded)
			continue

		case errors.Is(err, domain.ErrInvalidCredential):
			f.pool.ReportOutcome(key, keypool.OutcomeInvalid)
			continue

		default:
			f.pool.ReportOutcome(key, keypool.OutcomeTransient)
			session.Warnings = append(session.Warnings,
				fmt.Sprintf("stopped on page %d after %d attempts: %v", session.PagesProcessed+1, f.cfg.MaxAttempts, err))
			session.Outcome = domain.OutcomePartial
			f.logger.Warn("aborting fetch on persistent transient error",
				"video_id", videoID,
				"pages", session.PagesProcessed,
				"error", err,
			)
			return session
		}
	}

	if poolDrained {
		if len(session.Comments) > 0 {
			session.Warnings = append(session.Warnings,
				"api quota exhausted on all keys; returning partial results")
			session.Outcome = domain.OutcomePartial
			return session
		}
		session.Comments = truncate(f.synthetic.Generate(maxItems, f.cfg.FallbackCategory), maxItems)
		session.UsedSyntheticFallback = true
		session.Outcome = domain.OutcomeFallback
		session.Warnings = append(session.Warnings,
			"api quota exhausted on all keys; returning synthetic placeholder data")
		f.logger.Warn("fell back to synthetic data",
			"video_id", videoID,
			"items", len(session.Comments),
		)
	}

	return session
}

// fetchPageWithRetry retries transient failures a bounded number of times
// with exponential backoff. Quota and credential errors return immediately;
// retrying those against the same key is pointless.
func (f *PagedFetcher) fetchPageWithRetry(ctx context.Context, key, videoID, cursor string) (*domain.Page, error) {
	var page *domain.Page
	var err error

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		page, err = f.source.FetchPage(ctx, key, videoID, cursor)
		if err == nil {
			return page, nil
		}
		if errors.Is(err, domain.ErrQuotaExceeded) || errors.Is(err, domain.ErrInvalidCredential) {
			return nil, err
		}

		if attempt == f.cfg.MaxAttempts {
			break
		}

		backoff := f.calculateBackoff(attempt)
		f.logger.Warn("page request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", f.cfg.MaxAttempts, err)
}

func (f *PagedFetcher) calculateBackoff(attempt int) time.Duration {
	backoff := f.cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > f.cfg.MaxBackoff {
		backoff = f.cfg.MaxBackoff
	}
	return backoff
}

func appendCapped(dst, src []domain.Comment, maxItems int) []domain.Comment {
	room := maxItems - len(dst)
	if room <= 0 {
		return dst
	}
	if len(src) > room {
		src = src[:room]
	}
	return append(dst, src...)
}

func truncate(comments []domain.Comment, maxItems int) []domain.Comment {
	if len(comments) > maxItems {
		return comments[:maxItems]
	}
	return comments
}
