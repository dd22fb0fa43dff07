package rules

import (
	"fmt"
	"time"

	"github.com/umputun/rss-sniffer/lib/textcheck"
)

const day = 24 * time.Hour

// ScoreProfile scores account reputation at the given time. Missing profile scores 0 with no reasons.
func ScoreProfile(p *textcheck.Profile, now time.Time) textcheck.ScoreResult {
	res := textcheck.ScoreResult{Reasons: []string{}}
	if p == nil {
		return res
	}

	age := p.Age(now)
	switch {
	case age < 7*day:
		res.Add(3, fmt.Sprintf("new account, %d days old", int(age/day)))
	case age > 365*day:
		res.Add(-2, fmt.Sprintf("old account, %d days old", int(age/day)))
	}

	karma := p.Karma()
	switch {
	case karma < 50:
		res.Add(2, fmt.Sprintf("low karma %d", karma))
	case karma > 2000:
		res.Add(-2, fmt.Sprintf("high karma %d", karma))
	}

	if p.IsEmployee {
		res.Add(-4, "employee account")
	}
	return res
}
