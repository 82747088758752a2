package domain

import "time"

// FetchOutcome tags how a session's items were obtained.
type FetchOutcome string

const (
	// OutcomeLive means every item came from the external source.
	OutcomeLive FetchOutcome = "live"
	// OutcomePartial means fetching stopped early but at least one real page
	// was collected.
	OutcomePartial FetchOutcome = "partial"
	// OutcomeFallback means no real data could be retrieved and the session
	// holds synthetic items only.
	OutcomeFallback FetchOutcome = "fallback"
)

// Session is the result of one end-to-end fetch. It lives for a single
// request and is never persisted as-is.
type Session struct {
	VideoID               string       `json:"video_id"`
	MaxItems              int          `json:"max_items"`
	MaxPages              int          `json:"max_pages"`
	PagesProcessed        int          `json:"pages_processed"`
	Comments              []Comment    `json:"comments"`
	Outcome               FetchOutcome `json:"outcome"`
	UsedSyntheticFallback bool         `json:"used_synthetic_fallback"`
	Warnings              []string     `json:"warnings,omitempty"`
}

// Texts returns the comment texts in retrieval order.
func (s *Session) Texts() []string {
	texts := make([]string, len(s.Comments))
	for i, c := range s.Comments {
		texts[i] = c.Text
	}
	return texts
}

// Summary holds the sentiment counts over one session.
type Summary struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Total    int `json:"total"`
}

// Summarize recomputes counts from the labeled comments of a session.
func (s *Session) Summarize() Summary {
	var sum Summary
	sum.Total = len(s.Comments)
	for _, c := range s.Comments {
		if c.Sentiment == nil {
			continue
		}
		switch c.Sentiment.Label {
		case LabelPositive:
			sum.Positive++
		case LabelNeutral:
			sum.Neutral++
		case LabelNegative:
			sum.Negative++
		}
	}
	return sum
}

// AnalysisRun is the persisted record of one analyze operation.
type AnalysisRun struct {
	ID           int64        `db:"id"`
	VideoID      string       `db:"video_id"`
	Method       string       `db:"method"`
	ModelName    string       `db:"model_name"`
	Outcome      FetchOutcome `db:"outcome"`
	Positive     int          `db:"positive"`
	Neutral      int          `db:"neutral"`
	Negative     int          `db:"negative"`
	Total        int          `db:"total"`
	PagesFetched int          `db:"pages_fetched"`
	DurationMs   int64        `db:"duration_ms"`
	StartedAt    time.Time    `db:"started_at"`
}
