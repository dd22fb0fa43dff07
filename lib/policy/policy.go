// Package policy turns bot, ai and profile scores into a single discrete label.
package policy

import (
	"math"

	"github.com/umputun/rss-sniffer/lib/textcheck"
)

// emoji of each kind
const (
	EmojiBot     = "🤖"
	EmojiAI      = "🧠"
	EmojiHuman   = "🧑"
	EmojiUnknown = "❓"
)

// Thresholds of the decision tree
type Thresholds struct {
	Bot   float64 `yaml:"bot" json:"bot"`     // bot score at or above is bot
	AI    float64 `yaml:"ai" json:"ai"`       // ai score at or above is ai
	Human float64 `yaml:"human" json:"human"` // sum of all scores at or below is human
}

// DefaultThresholds returns default decision thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{Bot: 7, AI: 6, Human: -2}
}

// Classify maps scores to a label. Rules are checked in order bot, ai, human, everything else is unknown.
// Total over any input, non-finite scores are treated as 0.
func Classify(s textcheck.Scores, th Thresholds) textcheck.Classification {
	bot, ai, profile := finite(s.Bot), finite(s.AI), finite(s.Profile)
	switch {
	case bot >= th.Bot:
		return textcheck.Classification{Kind: textcheck.KindBot, Emoji: EmojiBot}
	case ai >= th.AI:
		return textcheck.Classification{Kind: textcheck.KindAI, Emoji: EmojiAI}
	case bot+ai+profile <= th.Human:
		return textcheck.Classification{Kind: textcheck.KindHuman, Emoji: EmojiHuman}
	default:
		return textcheck.Classification{Kind: textcheck.KindUnknown, Emoji: EmojiUnknown}
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
