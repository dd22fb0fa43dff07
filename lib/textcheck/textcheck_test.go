package textcheck

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreResult(t *testing.T) {
	var r ScoreResult
	assert.Equal(t, "0.0", r.String())

	r.Add(3, "bot substring")
	r.Add(25, "something huge")
	r.Clamp(0, 20)
	assert.Equal(t, 20.0, r.Score)
	assert.Equal(t, []string{"bot substring", "something huge"}, r.Reasons)
	assert.Equal(t, "20.0 [bot substring; something huge]", r.String())

	r.Add(-50, "negative")
	r.Clamp(0, 20)
	assert.Equal(t, 0.0, r.Score)
}

func TestProfile_AgeAndKarma(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	p := Profile{CreatedAtSeconds: float64(now.Add(-48 * time.Hour).Unix()), CommentKarma: 10, LinkKarma: 5}
	assert.Equal(t, 48*time.Hour, p.Age(now))
	assert.Equal(t, int64(15), p.Karma())
}

func TestReasonsToString(t *testing.T) {
	tests := []struct {
		name     string
		input    Reasons
		expected string
	}{
		{"empty", Reasons{}, "[]"},
		{"bot only", Reasons{Bot: []string{"a", "b"}}, "[{bot: a, b}]"},
		{"all", Reasons{Bot: []string{"a"}, AI: []string{"b"}, Profile: []string{"c"}}, "[{bot: a}, {ai: b}, {profile: c}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReasonsToString(tt.input))
		})
	}
}

func TestEntry_String(t *testing.T) {
	e := Entry{ID: "id1", Identity: "bob", Scores: Scores{Bot: 7, AI: 1.5, Profile: -2},
		Classification: Classification{Kind: KindBot, Emoji: "🤖"}}
	assert.Equal(t, `🤖 bot id:id1, identity:"bob", bot:7.0, ai:1.5, profile:-2.0`, e.String())
}
