// Package synthetic produces a bounded, pre-labeled placeholder dataset for
// sessions that could not retrieve real data. Output is deterministic for a
// given (category, maxItems) pair so fallback pages are stable across calls.
package synthetic

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"comment_analyzer/internal/domain"
)

const (
	// DefaultMaxItems is substituted when the requested size is absent or
	// not positive.
	DefaultMaxItems = 50

	// Method marks the provenance of synthetic verdicts.
	Method = "synthetic"

	// DefaultCategory is used for unknown categories.
	DefaultCategory = "tech"
)

// sentiment share per category, mirrored by the pre-assigned labels.
var distributions = map[string]map[domain.Label]float64{
	"tech":          {domain.LabelPositive: 0.6, domain.LabelNeutral: 0.3, domain.LabelNegative: 0.1},
	"entertainment": {domain.LabelPositive: 0.8, domain.LabelNeutral: 0.15, domain.LabelNegative: 0.05},
	"educational":   {domain.LabelPositive: 0.7, domain.LabelNeutral: 0.25, domain.LabelNegative: 0.05},
}

var pools = map[string][]string{
	"tech": {
		"This is amazing! The future of AI is here",
		"Great explanation, finally understood this concept",
		"Can you make a tutorial on this?",
		"This changed my perspective completely",
		"Wow, I never thought about it this way",
		"Thanks for sharing this knowledge!",
		"Mind blown!",
		"This is exactly what I was looking for",
		"Incredible work, keep it up!",
		"Very informative and well presented",
		"I disagree with some points but overall good",
		"Could you explain the technical details more?",
		"This is too complicated for beginners",
		"Love your content, subscribed!",
		"When will you release the next part?",
		"This doesn't work for me, any suggestions?",
		"Perfect timing, I needed this for my project",
		"Your videos are always so helpful",
		"Can you cover more advanced topics?",
		"This is revolutionary technology!",
	},
	"entertainment": {
		"LMAO this is hilarious",
		"I can't stop watching this!",
		"This made my day better",
		"So funny, shared with all my friends",
		"I'm crying from laughing so hard",
		"This is pure gold!",
		"Best video I've seen all week",
		"You're so talented!",
		"This deserves more views",
		"I've watched this 10 times already",
		"This is not funny at all",
		"Meh, could be better",
		"I don't get the joke",
		"This is amazing content!",
		"Please make more like this",
		"This is so creative!",
		"I love your sense of humor",
		"This brightened my day",
		"Absolutely brilliant!",
		"This is why I love YouTube",
	},
	"educational": {
		"Thank you for this clear explanation",
		"This helped me pass my exam!",
		"Finally someone who explains it properly",
		"Very well structured lesson",
		"I wish my teacher explained like this",
		"This is better than my textbook",
		"Great examples and illustrations",
		"Could you add more practice problems?",
		"This is exactly what I needed to learn",
		"Your teaching style is excellent",
		"I'm confused about the second part",
		"Can you make a video about related topics?",
		"This is too fast for me to follow",
		"Perfect pace and explanation",
		"I learned more in 10 minutes than in class",
		"This should be shown in schools",
		"Very comprehensive coverage",
		"Thanks for making learning fun!",
		"This concept is now crystal clear",
		"Excellent educational content",
	},
}

// Generator builds placeholder comment sets. The zero value is not usable;
// construct with New.
type Generator struct {
	now func() time.Time
}

func New() *Generator {
	return &Generator{now: time.Now}
}

// Generate returns up to maxItems pre-labeled comments for the category,
// bounded by the category pool size. It never fails: bad sizes fall back to
// DefaultMaxItems and unknown categories to DefaultCategory.
func (g *Generator) Generate(maxItems int, category string) []domain.Comment {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	pool, ok := pools[category]
	if !ok {
		category = DefaultCategory
		pool = pools[category]
	}

	count := maxItems
	if count > len(pool) {
		count = len(pool)
	}

	rng := rand.New(rand.NewSource(seed(category, count)))
	labels := labelSequence(category, count, rng)
	now := g.now()

	comments := make([]domain.Comment, count)
	for i := 0; i < count; i++ {
		age := time.Duration(rng.Intn(30*24*60)) * time.Minute
		confidence := 0.5 + rng.Float64()*0.4

		comments[i] = domain.Comment{
			ExternalID:  fmt.Sprintf("synthetic-%s-%04d", category, i),
			Text:        pool[rng.Intn(len(pool))],
			Author:      fmt.Sprintf("User%03d", rng.Intn(100)+1),
			LikeCount:   rng.Intn(101),
			PublishedAt: now.Add(-age),
			Sentiment: &domain.Verdict{
				Label:      labels[i],
				Confidence: confidence,
				Method:     Method,
			},
			Synthetic: true,
		}
	}
	return comments
}

// labelSequence expands the category distribution into count labels, filling
// the rounding remainder with positives, then shuffles deterministically.
func labelSequence(category string, count int, rng *rand.Rand) []domain.Label {
	dist := distributions[category]
	labels := make([]domain.Label, 0, count)
	for _, l := range []domain.Label{domain.LabelPositive, domain.LabelNeutral, domain.LabelNegative} {
		n := int(dist[l] * float64(count))
		for i := 0; i < n && len(labels) < count; i++ {
			labels = append(labels, l)
		}
	}
	for len(labels) < count {
		labels = append(labels, domain.LabelPositive)
	}
	rng.Shuffle(len(labels), func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})
	return labels
}

func seed(category string, count int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s/%d", category, count)
	return int64(h.Sum64())
}
