package domain

import "time"

// Label is the normalized three-way sentiment taxonomy every backend maps onto.
type Label string

const (
	LabelPositive Label = "Positive"
	LabelNeutral  Label = "Neutral"
	LabelNegative Label = "Negative"
)

// Verdict is the normalized output of one classification call.
type Verdict struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// Comment is a single fetched comment. Sentiment is nil until the comment has
// been classified; a set Sentiment always carries label, confidence and method
// together.
type Comment struct {
	ExternalID  string    `json:"external_id"`
	Text        string    `json:"text"`
	Author      string    `json:"author,omitempty"`
	LikeCount   int       `json:"likeCount"`
	PublishedAt time.Time `json:"publishedAt"`
	Sentiment   *Verdict  `json:"sentiment,omitempty"`
	Synthetic   bool      `json:"-"`
}

// Page is one page of comments from the external source. An empty NextCursor
// means the target has no more pages; that is distinct from any quota signal,
// which travels as an error.
type Page struct {
	Comments   []Comment
	NextCursor string
}
