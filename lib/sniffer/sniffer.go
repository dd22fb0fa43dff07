// Package sniffer wires feature extraction, rule scorers, the linear model, the profile cache
// and the classification policy into a single engine. The engine is an explicitly constructed object,
// multiple isolated engines can live in one process.
package sniffer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/rss-sniffer/lib/features"
	"github.com/umputun/rss-sniffer/lib/linear"
	"github.com/umputun/rss-sniffer/lib/policy"
	"github.com/umputun/rss-sniffer/lib/profile"
	"github.com/umputun/rss-sniffer/lib/rules"
	"github.com/umputun/rss-sniffer/lib/textcheck"
)

//go:generate moq --out mocks/profiles.go --pkg mocks --skip-ensure --with-resets . ProfileProvider

// ProfileProvider returns account profile or nil, satisfied by profile.Cache
type ProfileProvider interface {
	Get(ctx context.Context, identity string) *textcheck.Profile
}

// Config defines engine parameters
type Config struct {
	Thresholds policy.Thresholds
	Combine    ModelOpts // combination of model probability with ai score
	History    rules.HistoryOpts
	MaxEntries int // number of recent entries kept for recompute, default 100
	Now        func() time.Time
}

// ModelOpts defines how the linear model probability is combined with the ai score.
// Zero values replaced with defaults.
type ModelOpts struct {
	HighProb   float64 // probability at or above adds HighBoost, default 0.85
	HighBoost  float64 // default 2.5
	LowProb    float64 // probability at or below subtracts LowPenalty, default 0.15
	LowPenalty float64 // default 1
}

// Engine classifies text items. Safe for concurrent use.
type Engine struct {
	Config
	lock     sync.Mutex   // guards history mutation order
	swap     sync.RWMutex // model swap and recompute exclusive with scoring and pushing of new entries
	history  *rules.History
	profiles ProfileProvider
	model    atomic.Pointer[linear.Model]
	last     *textcheck.LastEntries
}

// New makes engine without profiles and model
func New(cfg Config) *Engine {
	if cfg.Thresholds == (policy.Thresholds{}) {
		cfg.Thresholds = policy.DefaultThresholds()
	}
	if cfg.Combine.HighProb <= 0 {
		cfg.Combine.HighProb = 0.85
	}
	if cfg.Combine.HighBoost <= 0 {
		cfg.Combine.HighBoost = 2.5
	}
	if cfg.Combine.LowProb <= 0 {
		cfg.Combine.LowProb = 0.15
	}
	if cfg.Combine.LowPenalty <= 0 {
		cfg.Combine.LowPenalty = 1
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		Config:  cfg,
		history: rules.NewHistory(cfg.History),
		last:    textcheck.NewLastEntries(cfg.MaxEntries),
	}
}

// WithProfiles sets profile provider
func (e *Engine) WithProfiles(p ProfileProvider) *Engine {
	e.profiles = p
	return e
}

// WithModel sets linear model
func (e *Engine) WithModel(m linear.Model) *Engine {
	e.model.Store(&m)
	return e
}

// Model returns active linear model, false if not set
func (e *Engine) Model() (linear.Model, bool) {
	m := e.model.Load()
	if m == nil {
		return linear.Model{}, false
	}
	return *m, true
}

// Check classifies request. The near-duplicate history is updated under the lock before any blocking work,
// so the order of calls defines the order of history mutations. Always returns a classified entry.
func (e *Engine) Check(ctx context.Context, req textcheck.Request) textcheck.Entry {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	identity := profile.Normalize(req.Identity)
	st := features.Analyze(req.Text)

	e.lock.Lock()
	ts := rules.ScoreStats(st, rules.TextOptions{Identity: identity, History: e.history})
	e.lock.Unlock()

	var prof textcheck.ScoreResult
	if e.profiles != nil && identity != "" {
		prof = rules.ScoreProfile(e.profiles.Get(ctx, identity), e.Now())
	}

	entry := textcheck.Entry{
		ID:        req.ID,
		Identity:  req.Identity,
		Text:      req.Text,
		Duplicate: ts.Duplicate,
		CheckedAt: e.Now(),
	}
	entry.Scores.Profile = prof.Score
	entry.Reasons.Profile = nonNil(prof.Reasons)
	e.swap.RLock()
	e.score(&entry, st, ts)
	e.last.Push(entry)
	e.swap.RUnlock()

	log.Printf("[DEBUG] %s, reasons: %s", entry.String(), textcheck.ReasonsToString(entry.Reasons))
	return entry
}

// Recompute rescores bot and ai parts of the entry with the current model, keeping its profile score
// and near-duplicate flag. History is not touched.
func (e *Engine) Recompute(entry textcheck.Entry) textcheck.Entry {
	st := features.Analyze(entry.Text)
	ts := rules.ScoreStats(st, rules.TextOptions{Duplicate: entry.Duplicate})
	entry.ModelProb = nil
	e.score(&entry, st, ts)
	return entry
}

// UpdateModel swaps the active model and recomputes recent entries. Returns recomputed entries.
// Checks in flight wait for the swap, so no entry scored by the old model survives it.
func (e *Engine) UpdateModel(m linear.Model) []textcheck.Entry {
	e.swap.Lock()
	defer e.swap.Unlock()
	e.model.Store(&m)
	entries := e.last.Last(e.last.Size())
	res := make([]textcheck.Entry, 0, len(entries))
	for _, entry := range entries {
		res = append(res, e.Recompute(entry))
	}
	e.last.Replace(res)
	log.Printf("[INFO] model updated, %d weights, recomputed %d entries", len(m.Weights), len(res))
	return res
}

// LastEntries returns up to n recent entries, oldest first
func (e *Engine) LastEntries(n int) []textcheck.Entry {
	return e.last.Last(n)
}

// score fills bot and ai scores, model probability and classification of the entry
func (e *Engine) score(entry *textcheck.Entry, st features.Stats, ts rules.TextScores) {
	user := rules.ScoreUsername(entry.Identity)
	entry.Scores.Bot = user.Score + ts.BotText.Score
	entry.Reasons.Bot = append(nonNil(user.Reasons), ts.BotText.Reasons...)

	ai := ts.AI
	ai.Reasons = nonNil(ai.Reasons)
	if m := e.model.Load(); m != nil {
		p := m.PredictProba(features.FromStats(st))
		entry.ModelProb = &p
		switch {
		case p >= e.Combine.HighProb:
			ai.Add(e.Combine.HighBoost, fmt.Sprintf("model p(ai)=%.2f", p))
		case p <= e.Combine.LowProb:
			ai.Add(-e.Combine.LowPenalty, fmt.Sprintf("model p(ai)=%.2f", p))
		}
		ai.Clamp(0, rules.MaxTextScore)
	}
	entry.Scores.AI = ai.Score
	entry.Reasons.AI = ai.Reasons

	entry.Classification = policy.Classify(entry.Scores, e.Thresholds)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
