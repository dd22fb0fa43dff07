// Package lib provides bot / AI / human classification of short user-generated texts. The primary type
// is the sniffer.Engine, created with sniffer.New and configured with the sniffer.Config struct.
//
// The Engine is thread-safe and supports concurrent usage. Each check produces a textcheck.Entry with three
// scores, the reasons behind each of them, and a classification made by the policy:
//
//   - bot score: username rules (rules.ScoreUsername) plus bot-text rules of rules.ScoreText, i.e. generic
//     ultra-short replies, links with suspicious top-level domains, multiple links and near-duplicates of
//     earlier texts of the same identity.
//
//   - ai score: ai-style rules of rules.ScoreText, such as self-disclosure phrases, meta framing, formulaic
//     transitions, low contraction rate and uniform sentence lengths, optionally adjusted by the linear model.
//
//   - profile score: account reputation (rules.ScoreProfile) from the profile provider, usually profile.Cache.
//
// The policy (policy.Classify) picks the label in order: bot, ai, human, unknown. Thresholds are configurable
// via sniffer.Config.Thresholds, policy.DefaultThresholds returns defaults.
//
// Optional parts are set with:
//
//   - Engine.WithProfiles: sets a profile provider. profile.Cache fetches profiles from the identity service,
//     caches them in memory and in a durable profile.Store, shares concurrent lookups and serializes outbound
//     calls with a minimal interval and rate-limit backoff.
//
//   - Engine.WithModel: sets a linear.Model. The embedded default model is returned by linear.Default,
//     trained models are loaded with linear.LoadArtifact. Engine.UpdateModel swaps the model at runtime and
//     recomputes recent entries.
//
// The offline training pipeline is built on features.Extract (text to feature map), linear.Train (deterministic
// SGD with L2), linear.Evaluate and linear.Sweep (metrics at thresholds), linear.NewArtifact and linear.EmbedInto.
package lib

import (
	"github.com/umputun/rss-sniffer/lib/sniffer"
	"github.com/umputun/rss-sniffer/lib/textcheck"
)

// aliases for the most used types, so simple clients can import only this package
type (
	Engine  = sniffer.Engine
	Config  = sniffer.Config
	Request = textcheck.Request
	Entry   = textcheck.Entry
)

// New makes a new Engine, see sniffer.New
func New(cfg Config) *Engine {
	return sniffer.New(cfg)
}
