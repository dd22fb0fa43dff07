package config

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rss-sniffer/lib/policy"
	"github.com/umputun/rss-sniffer/lib/profile"
)

func TestSettings_Defaults(t *testing.T) {
	s := New()
	require.NoError(t, s.Validate())
	assert.Equal(t, policy.DefaultThresholds(), s.Thresholds)
	assert.Equal(t, 12*time.Hour, s.Profile.OKTTL)
	assert.Equal(t, 10*time.Minute, s.Profile.FailTTL)
	assert.Equal(t, 100, s.History.Entries)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "sniffer.yml")
	data := `
thresholds:
  bot: 8
  ai: 5.5
  human: -3
model:
  high_prob: 0.9
profile:
  ok_ttl: 6h
  min_interval: 2s
  key_prefix: "test:"
history:
  max_per_identity: 16
  ttl: 1h
`
	require.NoError(t, os.WriteFile(fname, []byte(data), 0o600))

	s, err := Load(fname)
	require.NoError(t, err)
	assert.Equal(t, policy.Thresholds{Bot: 8, AI: 5.5, Human: -3}, s.Thresholds)
	assert.InDelta(t, 0.9, s.Model.HighProb, 1e-9)
	assert.InDelta(t, 0.15, s.Model.LowProb, 1e-9, "default kept")
	assert.Equal(t, 6*time.Hour, s.Profile.OKTTL)
	assert.Equal(t, 10*time.Minute, s.Profile.FailTTL, "default kept")
	assert.Equal(t, 2*time.Second, s.Profile.MinInterval)
	assert.Equal(t, "test:", s.Profile.KeyPrefix)
	assert.Equal(t, 16, s.History.MaxPerIdentity)
	assert.Equal(t, time.Hour, s.History.TTL)
	assert.Equal(t, 10000, s.History.MaxIdentities, "default kept")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		missing bool
		errMsg  string
	}{
		{name: "missing file", missing: true, errMsg: "not found"},
		{name: "bad yaml", content: "thresholds: [1, 2", errMsg: "failed to parse config"},
		{name: "bad duration", content: "profile:\n  ok_ttl: soon\n", errMsg: "failed to parse config"},
		{name: "bad thresholds", content: "thresholds:\n  bot: 0\n  ai: 6\n  human: 1\n",
			errMsg: "bot and ai thresholds must be positive"},
		{name: "bad model", content: "model:\n  low_prob: 0.9\n  high_prob: 0.5\n", errMsg: "model probabilities out of order"},
		{name: "negative bounds", content: "history:\n  entries: -1\n", errMsg: "history bounds must not be negative"},
		{name: "logger without file", content: "logger:\n  enabled: true\n  file_name: \"\"\n", errMsg: "logger file name is required"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fname := filepath.Join(dir, "cfg"+string(rune('a'+i))+".yml")
			if !tt.missing {
				require.NoError(t, os.WriteFile(fname, []byte(tt.content), 0o600))
			}
			_, err := Load(fname)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSettings_ValidateCollectsAll(t *testing.T) {
	s := New()
	s.Thresholds = policy.Thresholds{Bot: -1, AI: 1, Human: 3}
	s.History.MaxIdentities = -5
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 errors occurred")
}

func TestSettings_EngineAndProfileConfig(t *testing.T) {
	s := New()
	s.History.Entries = 7
	s.Model.HighBoost = 3

	ec := s.EngineConfig()
	assert.Equal(t, s.Thresholds, ec.Thresholds)
	assert.Equal(t, 7, ec.MaxEntries)
	assert.InDelta(t, 3.0, ec.Combine.HighBoost, 1e-9)
	assert.Equal(t, 256, ec.History.MaxPerIdentity)

	client := &http.Client{}
	store := profile.NewMemStore()
	pc := s.ProfileConfig(client, store)
	assert.Equal(t, "https://www.reddit.com", pc.BaseURL)
	assert.Equal(t, client, pc.HTTPClient)
	assert.Equal(t, store, pc.Store)
	assert.Equal(t, time.Second, pc.MinInterval)
}

func TestSettings_JSON(t *testing.T) {
	s := New()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"thresholds":{"bot":7,"ai":6,"human":-2}`)

	var s2 Settings
	require.NoError(t, json.Unmarshal(data, &s2))
	assert.Equal(t, *s, s2)
}
