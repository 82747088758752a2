package sentiment

import (
	"context"
	"strings"

	"comment_analyzer/internal/domain"
)

// Pattern weights. Strong terms dominate weak ones; emoji sit in between
// because people rarely use them ironically in comment sections.
const (
	strongWeight = 0.8
	emojiWeight  = 0.6
	weakWeight   = 0.4
)

var (
	strongPositive = []string{
		"amazing", "excellent", "fantastic", "brilliant", "outstanding",
		"perfect", "wonderful", "incredible", "awesome", "great", "love",
		"best", "superb", "magnificent",
	}
	weakPositive = []string{
		"good", "nice", "fine", "okay", "decent", "satisfactory", "pleasant",
		"happy", "glad", "thank", "appreciate", "helpful", "useful",
		"impressive", "solid", "cool",
	}
	positiveEmoji = []string{
		"😊", "😄", "😃", "🙂", "👍", "❤️", "💕", "🔥", "✨", "🌟", "👏", "🎉", "💯",
	}
	strongNegative = []string{
		"terrible", "horrible", "awful", "disgusting", "hate", "worst",
		"sucks", "garbage", "trash", "pathetic", "disaster",
	}
	weakNegative = []string{
		"bad", "poor", "disappointing", "boring", "annoying", "stupid",
		"lame", "weak", "fail", "wrong",
	}
	negativeEmoji = []string{
		"😠", "😡", "👎", "💩", "😤", "🤮", "😞", "😢", "😭",
	}
)

// Lexicon is the rule-based polarity scorer. It is deterministic and
// side-effect-free: same text, same verdict, always.
type Lexicon struct {
	posThreshold float64
	negThreshold float64
}

// NewLexicon builds a lexicon backend with the given label thresholds.
// Scores above posThreshold are Positive, below negThreshold Negative, and
// the dead zone in between is Neutral.
func NewLexicon(posThreshold, negThreshold float64) *Lexicon {
	return &Lexicon{
		posThreshold: posThreshold,
		negThreshold: negThreshold,
	}
}

func (l *Lexicon) Name() string { return MethodLexicon }

func (l *Lexicon) Classify(_ context.Context, texts []string) ([]domain.Verdict, error) {
	verdicts := make([]domain.Verdict, len(texts))
	for i, text := range texts {
		verdicts[i] = l.score(text)
	}
	return verdicts, nil
}

// Score computes the polarity of one text in [-1, 1].
func (l *Lexicon) Score(text string) float64 {
	lower := strings.ToLower(text)

	score := 0.0
	for _, w := range strongPositive {
		if strings.Contains(lower, w) {
			score += strongWeight
		}
	}
	for _, w := range weakPositive {
		if strings.Contains(lower, w) {
			score += weakWeight
		}
	}
	for _, e := range positiveEmoji {
		if strings.Contains(text, e) {
			score += emojiWeight
		}
	}
	for _, w := range strongNegative {
		if strings.Contains(lower, w) {
			score -= strongWeight
		}
	}
	for _, w := range weakNegative {
		if strings.Contains(lower, w) {
			score -= weakWeight
		}
	}
	for _, e := range negativeEmoji {
		if strings.Contains(text, e) {
			score -= emojiWeight
		}
	}

	return clamp(score, -1, 1)
}

func (l *Lexicon) score(text string) domain.Verdict {
	polarity := l.Score(text)

	label := domain.LabelNeutral
	switch {
	case polarity > l.posThreshold:
		label = domain.LabelPositive
	case polarity < l.negThreshold:
		label = domain.LabelNegative
	}

	return domain.Verdict{
		Label:      label,
		Confidence: clamp(abs(polarity), 0, 1),
		Method:     MethodLexicon,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
