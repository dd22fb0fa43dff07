// Package config provides tunables of the engine, profile cache and server, loaded from optional yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-pkgz/fileutils"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/umputun/rss-sniffer/lib/policy"
	"github.com/umputun/rss-sniffer/lib/profile"
	"github.com/umputun/rss-sniffer/lib/rules"
	"github.com/umputun/rss-sniffer/lib/sniffer"
)

// Settings represents tunables independent of source (defaults, yaml file)
type Settings struct {
	Thresholds policy.Thresholds `json:"thresholds" yaml:"thresholds"`

	// group settings by domain
	Model   ModelSettings   `json:"model" yaml:"model"`
	Profile ProfileSettings `json:"profile" yaml:"profile"`
	History HistorySettings `json:"history" yaml:"history"`
	Server  ServerSettings  `json:"server" yaml:"server"`
	Logger  LoggerSettings  `json:"logger" yaml:"logger"`
}

// ModelSettings contains combination of the linear model probability with ai score
type ModelSettings struct {
	HighProb   float64 `json:"high_prob" yaml:"high_prob"`
	HighBoost  float64 `json:"high_boost" yaml:"high_boost"`
	LowProb    float64 `json:"low_prob" yaml:"low_prob"`
	LowPenalty float64 `json:"low_penalty" yaml:"low_penalty"`
}

// ProfileSettings contains identity service and profile cache settings
type ProfileSettings struct {
	API            string        `json:"api" yaml:"api"`
	UserAgent      string        `json:"user_agent" yaml:"user_agent"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
	OKTTL          time.Duration `json:"ok_ttl" yaml:"ok_ttl"`
	FailTTL        time.Duration `json:"fail_ttl" yaml:"fail_ttl"`
	MinInterval    time.Duration `json:"min_interval" yaml:"min_interval"`
	DefaultBackoff time.Duration `json:"default_backoff" yaml:"default_backoff"`
	KeyPrefix      string        `json:"key_prefix" yaml:"key_prefix"`
	MemoryLimit    int           `json:"memory_limit" yaml:"memory_limit"`
}

// HistorySettings contains near-duplicate history bounds and the number of recent entries kept
type HistorySettings struct {
	MaxIdentities  int           `json:"max_identities" yaml:"max_identities"`
	TTL            time.Duration `json:"ttl" yaml:"ttl"`
	MaxPerIdentity int           `json:"max_per_identity" yaml:"max_per_identity"`
	Entries        int           `json:"entries" yaml:"entries"`
}

// ServerSettings contains web server settings
type ServerSettings struct {
	RateLimit   float64 `json:"rate_limit" yaml:"rate_limit"` // requests per second, 0 disables
	MaxBodySize int64   `json:"max_body_size" yaml:"max_body_size"`
	MaxEntries  int     `json:"max_entries" yaml:"max_entries"` // max limit of /entries
}

// LoggerSettings contains log of classified entries settings
type LoggerSettings struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	FileName   string `json:"file_name" yaml:"file_name"`
	MaxSize    int    `json:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
}

// New creates a new settings instance with defaults
func New() *Settings {
	return &Settings{
		Thresholds: policy.DefaultThresholds(),
		Model:      ModelSettings{HighProb: 0.85, HighBoost: 2.5, LowProb: 0.15, LowPenalty: 1},
		Profile: ProfileSettings{
			API:            "https://www.reddit.com",
			UserAgent:      "rss-sniffer",
			Timeout:        30 * time.Second,
			OKTTL:          12 * time.Hour,
			FailTTL:        10 * time.Minute,
			MinInterval:    time.Second,
			DefaultBackoff: 60 * time.Second,
			KeyPrefix:      "rss:profile:",
			MemoryLimit:    10000,
		},
		History: HistorySettings{MaxIdentities: 10000, TTL: 24 * time.Hour, MaxPerIdentity: 256, Entries: 100},
		Server:  ServerSettings{RateLimit: 10, MaxBodySize: 64 * 1024, MaxEntries: 1000},
		Logger:  LoggerSettings{FileName: "entries.log", MaxSize: 100, MaxBackups: 10},
	}
}

// Load reads yaml file on top of defaults. Fields missing in the file keep default values.
func Load(path string) (*Settings, error) {
	res := New()
	if !fileutils.IsFile(path) {
		return nil, fmt.Errorf("config file %s not found", path)
	}
	data, err := os.ReadFile(path) //nolint:gosec // path from cli
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, res); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return res, nil
}

// Validate checks settings consistency, all problems reported together
func (s *Settings) Validate() error {
	var errs *multierror.Error
	if s.Thresholds.Bot <= 0 || s.Thresholds.AI <= 0 {
		errs = multierror.Append(errs, errors.New("bot and ai thresholds must be positive"))
	}
	if s.Thresholds.Human > 0 {
		errs = multierror.Append(errs, errors.New("human threshold must not be positive"))
	}
	if s.Model.LowProb >= s.Model.HighProb || s.Model.HighProb > 1 || s.Model.LowProb < 0 {
		errs = multierror.Append(errs, fmt.Errorf("model probabilities out of order, low %v, high %v", s.Model.LowProb, s.Model.HighProb))
	}
	if s.Profile.OKTTL < 0 || s.Profile.FailTTL < 0 || s.Profile.MinInterval < 0 || s.Profile.DefaultBackoff < 0 {
		errs = multierror.Append(errs, errors.New("profile durations must not be negative"))
	}
	if s.History.MaxIdentities < 0 || s.History.MaxPerIdentity < 0 || s.History.Entries < 0 {
		errs = multierror.Append(errs, errors.New("history bounds must not be negative"))
	}
	if s.Logger.Enabled && s.Logger.FileName == "" {
		errs = multierror.Append(errs, errors.New("logger file name is required"))
	}
	return errs.ErrorOrNil()
}

// EngineConfig returns engine config made of the settings
func (s *Settings) EngineConfig() sniffer.Config {
	return sniffer.Config{
		Thresholds: s.Thresholds,
		Combine: sniffer.ModelOpts{
			HighProb:   s.Model.HighProb,
			HighBoost:  s.Model.HighBoost,
			LowProb:    s.Model.LowProb,
			LowPenalty: s.Model.LowPenalty,
		},
		History: rules.HistoryOpts{
			MaxIdentities:  s.History.MaxIdentities,
			TTL:            s.History.TTL,
			MaxPerIdentity: s.History.MaxPerIdentity,
		},
		MaxEntries: s.History.Entries,
	}
}

// ProfileConfig returns profile cache config made of the settings, with given http client and store
func (s *Settings) ProfileConfig(client profile.HTTPClient, store profile.Store) profile.Config {
	return profile.Config{
		BaseURL:        s.Profile.API,
		UserAgent:      s.Profile.UserAgent,
		OKTTL:          s.Profile.OKTTL,
		FailTTL:        s.Profile.FailTTL,
		MinInterval:    s.Profile.MinInterval,
		DefaultBackoff: s.Profile.DefaultBackoff,
		KeyPrefix:      s.Profile.KeyPrefix,
		MemoryLimit:    s.Profile.MemoryLimit,
		HTTPClient:     client,
		Store:          store,
	}
}
