// Package textcheck defines data contracts shared by the scorers, the policy and the engine.
package textcheck

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Request is a request to classify a single observed item.
type Request struct {
	ID       string `json:"id"`       // item id, generated if empty
	Identity string `json:"identity"` // author's account name, may be empty
	Text     string `json:"text"`     // raw text of the item
}

func (r *Request) String() string {
	return fmt.Sprintf("id:%s, identity:%q, text:%q", r.ID, r.Identity, r.Text)
}

// ScoreResult is a result of a single scorer.
type ScoreResult struct {
	Score   float64  `json:"score"`   // suspicion level, always finite
	Reasons []string `json:"reasons"` // human-readable contributions, in the order rules fired
}

// Add appends a reason and adds delta to the score.
func (r *ScoreResult) Add(delta float64, reason string) {
	r.Score += delta
	r.Reasons = append(r.Reasons, reason)
}

// Clamp limits the score to [lo, hi].
func (r *ScoreResult) Clamp(lo, hi float64) {
	r.Score = min(max(r.Score, lo), hi)
}

func (r ScoreResult) String() string {
	if len(r.Reasons) == 0 {
		return fmt.Sprintf("%.1f", r.Score)
	}
	return fmt.Sprintf("%.1f [%s]", r.Score, strings.Join(r.Reasons, "; "))
}

// Profile is account reputation data fetched from the identity service.
type Profile struct {
	CreatedAtSeconds float64 `json:"created_utc"`
	CommentKarma     int64   `json:"comment_karma"`
	LinkKarma        int64   `json:"link_karma"`
	IsEmployee       bool    `json:"is_employee"`
}

// Age returns account age at the given time.
func (p *Profile) Age(now time.Time) time.Duration {
	sec, frac := math.Modf(p.CreatedAtSeconds)
	created := time.Unix(int64(sec), int64(frac*float64(time.Second)))
	return now.Sub(created)
}

// Karma returns total karma.
func (p *Profile) Karma() int64 {
	return p.CommentKarma + p.LinkKarma
}

// Kind is a discrete classification label.
type Kind string

// enum of classification kinds
const (
	KindBot     Kind = "bot"
	KindAI      Kind = "ai"
	KindHuman   Kind = "human"
	KindUnknown Kind = "unknown"
)

// Classification is a label with its display emoji.
type Classification struct {
	Kind  Kind   `json:"kind"`
	Emoji string `json:"emoji"`
}

// Scores is a set of numeric scores the policy decides on.
type Scores struct {
	Bot     float64 `json:"bot"`
	AI      float64 `json:"ai"`
	Profile float64 `json:"profile"`
}

// Reasons keeps reasons for each of the scores.
type Reasons struct {
	Bot     []string `json:"bot"`
	AI      []string `json:"ai"`
	Profile []string `json:"profile"`
}

// Entry is a classified item, used for immediate labeling and for recomputation later on.
type Entry struct {
	ID             string         `json:"id"`
	Identity       string         `json:"identity"`
	Text           string         `json:"text,omitempty"`
	Duplicate      bool           `json:"duplicate"`            // near-duplicate flag, kept for recompute
	ModelProb      *float64       `json:"model_prob,omitempty"` // linear model probability of ai, if model used
	Scores         Scores         `json:"scores"`
	Reasons        Reasons        `json:"reasons"`
	Classification Classification `json:"classification"`
	CheckedAt      time.Time      `json:"checked_at"`
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %s id:%s, identity:%q, bot:%.1f, ai:%.1f, profile:%.1f",
		e.Classification.Emoji, e.Classification.Kind, e.ID, e.Identity, e.Scores.Bot, e.Scores.AI, e.Scores.Profile)
}

// ReasonsToString converts all reasons of an entry to a single string
func ReasonsToString(r Reasons) string {
	elems := []string{}
	for _, group := range []struct {
		name    string
		reasons []string
	}{{"bot", r.Bot}, {"ai", r.AI}, {"profile", r.Profile}} {
		if len(group.reasons) == 0 {
			continue
		}
		elems = append(elems, "{"+group.name+": "+strings.Join(group.reasons, ", ")+"}")
	}
	return fmt.Sprintf("[%s]", strings.Join(elems, ", "))
}
