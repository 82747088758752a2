package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment_analyzer/internal/domain"
	"comment_analyzer/internal/keypool"
	"comment_analyzer/internal/source/synthetic"
)

// stubSource scripts per-key, per-cursor responses for the fetch loop.
type stubSource struct {
	calls     []pageCall
	responses func(key, cursor string) (*domain.Page, error)
}

type pageCall struct {
	key    string
	cursor string
}

func (s *stubSource) FetchPage(_ context.Context, key, videoID, cursor string) (*domain.Page, error) {
	s.calls = append(s.calls, pageCall{key: key, cursor: cursor})
	return s.responses(key, cursor)
}

func page(n, count int, next string) *domain.Page {
	comments := make([]domain.Comment, count)
	for i := range comments {
		comments[i] = domain.Comment{
			ExternalID:  fmt.Sprintf("p%d-c%d", n, i),
			Text:        fmt.Sprintf("comment %d on page %d", i, n),
			PublishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return &domain.Page{Comments: comments, NextCursor: next}
}

func newTestFetcher(t *testing.T, keys []string, src *stubSource) (*PagedFetcher, *keypool.Pool) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	pool := keypool.New(keys, logger)
	f := New(pool, src, synthetic.New(), Config{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, logger)
	return f, pool
}

func TestFetch_MultiPageHappyPath(t *testing.T) {
	src := &stubSource{responses: func(key, cursor string) (*domain.Page, error) {
		switch cursor {
		case "":
			return page(1, 5, "c2"), nil
		case "c2":
			return page(2, 5, "c3"), nil
		default:
			return page(3, 5, ""), nil
		}
	}}
	f, _ := newTestFetcher(t, []string{"key-a"}, src)

	s := f.Fetch(context.Background(), "vid", 100, 5)

	assert.Equal(t, domain.OutcomeLive, s.Outcome)
	assert.False(t, s.UsedSyntheticFallback)
	assert.Equal(t, 3, s.PagesProcessed)
	assert.Len(t, s.Comments, 15)
	assert.Empty(t, s.Warnings)
}

func TestFetch_HonorsCaps(t *testing.T) {
	src := &stubSource{responses: func(key, cursor string) (*domain.Page, error) {
		return page(1, 100, "more"), nil
	}}
	f, _ := newTestFetcher(t, []string{"key-a"}, src)

	s := f.Fetch(context.Background(), "vid", 10, 1)

	assert.LessOrEqual(t, len(s.Comments), 10)
	assert.LessOrEqual(t, s.PagesProcessed, 1)
}

func TestFetch_RotatesMidSession(t *testing.T) {
	src := &stubSource{responses: func(key, cursor string) (*domain.Page, error) {
		if key == "key-a" && cursor == "c2" {
			return nil, fmt.Errorf("403: %w", domain.ErrQuotaExceeded)
		}
		switch cursor {
		case "":
			return page(1, 5, "c2"), nil
		default:
			return page(2, 5, ""), nil
		}
	}}
	f, _ := newTestFetcher(t, []string{"key-a", "key-b"}, src)

	s := f.Fetch(context.Background(), "vid", 100, 5)

	assert.Equal(t, domain.OutcomeLive, s.Outcome)
	assert.Len(t, s.Comments, 10)
	assert.Equal(t, 2, s.PagesProcessed)

	// page 2 was re-requested with the same cursor under the next key
	require.GreaterOrEqual(t, len(src.calls), 3)
	assert.Equal(t, pageCall{key: "key-a", cursor: "c2"}, src.calls[1])
	assert.Equal(t, pageCall{key: "key-b", cursor: "c2"}, src.calls[2])
}

func TestFetch_SyntheticFallbackWhenAllKeysExhausted(t *testing.T) {
	src := &stubSource{responses: func(key, cursor string) (*domain.Page, error) {
		return nil, fmt.Errorf("403: %w", domain.ErrQuotaExceeded)
	}}
	f, pool := newTestFetcher(t, []string{"key-a", "key-b", "key-c"}, src)

	s := f.Fetch(context.Background(), "vid", 10, 3)

	assert.True(t, s.UsedSyntheticFallback)
	assert.Equal(t, domain.OutcomeFallback, s.Outcome)
	assert.NotEmpty(t, s.Comments)
	assert.LessOrEqual(t, len(s.Comments), 10)
	assert.NotEmpty(t, s.Warnings)
	for _, c := range s.Comments {
		assert.True(t, c.Synthetic, "fallback sessions contain synthetic items only")
		assert.NotNil(t, c.Sentiment)
	}

	st := pool.Status()
	assert.Equal(t, 3, st.Exhausted)

	// the next fetch skips straight to synthetic without touching the source
	before := len(src.calls)
	s = f.Fetch(context.Background(), "vid", 10, 3)
	assert.True(t, s.UsedSyntheticFallback)
	assert.Equal(t, before, len(src.calls))
}

func TestFetch_InvalidKeyRotates(t *testing.T) {
	src := &stubSource{responses: func(key, cursor string) (*domain.Page, error) {
		if key == "key-a" {
			return nil, fmt.Errorf("400: %w", domain.ErrInvalidCredential)
		}
		return page(1, 3, ""), nil
	}}
	f, pool := newTestFetcher(t, []string{"key-a", "key-b"}, src)

	s := f.Fetch(context.Background(), "vid", 10, 1)

	assert.False(t, s.UsedSyntheticFallback)
	assert.Len(t, s.Comments, 3)
	assert.Equal(t, 1, pool.Status().Invalid)
}

func TestFetch_TransientErrorReturnsPartialResults(t *testing.T) {
	src := &stubSource{responses: func(key, cursor string) (*domain.Page, error) {
		if cursor == "c2" {
			return nil, fmt.Errorf("502: %w", domain.ErrTransient)
		}
		return page(1, 5, "c2"), nil
	}}
	f, _ := newTestFetcher(t, []string{"key-a"}, src)

	s := f.Fetch(context.Background(), "vid", 100, 3)

	assert.Equal(t, domain.OutcomePartial, s.Outcome)
	assert.False(t, s.UsedSyntheticFallback)
	assert.Len(t, s.Comments, 5, "page 1 items survive the page 2 failure")
	assert.Equal(t, 1, s.PagesProcessed)
	require.NotEmpty(t, s.Warnings)

	// page 2 was attempted MaxAttempts times before giving up
	attempts := 0
	for _, c := range src.calls {
		if c.cursor == "c2" {
			attempts++
		}
	}
	assert.Equal(t, 2, attempts)
}

func TestFetch_PartialThenQuotaExhaustedKeepsRealData(t *testing.T) {
	src := &stubSource{responses: func(key, cursor string) (*domain.Page, error) {
		if cursor == "" && key == "key-a" {
			return page(1, 5, "c2"), nil
		}
		return nil, fmt.Errorf("403: %w", domain.ErrQuotaExceeded)
	}}
	f, _ := newTestFetcher(t, []string{"key-a"}, src)

	s := f.Fetch(context.Background(), "vid", 100, 3)

	assert.False(t, s.UsedSyntheticFallback, "real and synthetic items never mix")
	assert.Equal(t, domain.OutcomePartial, s.Outcome)
	assert.Len(t, s.Comments, 5)
	assert.NotEmpty(t, s.Warnings)
}

func TestFetch_DefaultsAppliedToBadLimits(t *testing.T) {
	src := &stubSource{responses: func(key, cursor string) (*domain.Page, error) {
		return page(1, 5, ""), nil
	}}
	f, _ := newTestFetcher(t, []string{"key-a"}, src)

	s := f.Fetch(context.Background(), "vid", 0, -1)

	assert.Equal(t, 200, s.MaxItems)
	assert.Equal(t, 3, s.MaxPages)
	assert.Len(t, s.Comments, 5)
}
