package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"comment_analyzer/internal/domain"
)

type Fetcher interface {
	Fetch(ctx context.Context, videoID string, maxItems, maxPages int) *domain.Session
}

type Dispatcher interface {
	Classify(ctx context.Context, texts []string, method, modelName string) ([]domain.Verdict, error)
}

type CommentStore interface {
	UpsertBatch(ctx context.Context, videoID string, comments []domain.Comment) error
}

type RunStore interface {
	Insert(ctx context.Context, run *domain.AnalysisRun) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, session *domain.Session, summary domain.Summary) error
	Close() error
}
