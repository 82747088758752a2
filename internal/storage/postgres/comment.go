package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"comment_analyzer/internal/domain"
)

type CommentStore struct {
	db *sqlx.DB
}

func NewCommentStore(db *sqlx.DB) *CommentStore {
	return &CommentStore{db: db}
}

// UpsertBatch writes one session's comments in a single statement, keyed by
// (video_id, external_id). Re-analyzing a video overwrites the sentiment
// columns with the latest verdicts.
func (s *CommentStore) UpsertBatch(ctx context.Context, videoID string, comments []domain.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO comments (
			video_id, external_id, text, author, like_count, published_at,
			sentiment_label, confidence, analysis_method
		) VALUES `)

	const cols = 9
	args := make([]interface{}, 0, len(comments)*cols)
	for i, c := range comments {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 1; j <= cols; j++ {
			if j > 1 {
				sb.WriteString(", $")
			} else {
				sb.WriteString("$")
			}
			sb.WriteString(strconv.Itoa(i*cols + j))
		}
		sb.WriteString(")")

		var label, method *string
		var confidence *float64
		if c.Sentiment != nil {
			l := string(c.Sentiment.Label)
			label = &l
			confidence = &c.Sentiment.Confidence
			method = &c.Sentiment.Method
		}

		args = append(args,
			videoID,
			c.ExternalID,
			c.Text,
			c.Author,
			c.LikeCount,
			c.PublishedAt,
			label,
			confidence,
			method,
		)
	}

	sb.WriteString(`
		ON CONFLICT (video_id, external_id) DO UPDATE SET
			text = EXCLUDED.text,
			author = EXCLUDED.author,
			like_count = EXCLUDED.like_count,
			sentiment_label = EXCLUDED.sentiment_label,
			confidence = EXCLUDED.confidence,
			analysis_method = EXCLUDED.analysis_method`)

	_, err := executor(ctx, s.db).ExecContext(ctx, sb.String(), args...)
	return err
}
