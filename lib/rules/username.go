// Package rules implements rule-based scorers. Each scorer is a pure function returning a score
// and a list of human-readable reasons in the order rules fired. The only stateful part is History,
// the per-identity memo of text fingerprints used for near-duplicate detection.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/umputun/rss-sniffer/lib/textcheck"
)

var (
	reTrailingDigits = regexp.MustCompile(`\d{4,}$`)
	// auto-generated names like Lucky-Banana-1234, Some_Name42 or SomeBot1234
	reAdjNounDigits = regexp.MustCompile(`^[A-Za-z][a-z]+(?:[-_][A-Za-z][a-z]+|[A-Z][a-z]+)[-_]?\d{2,}$`)
)

// ScoreUsername scores account name. The score is a sum of positive increments, never negative.
func ScoreUsername(name string) textcheck.ScoreResult {
	res := textcheck.ScoreResult{Reasons: []string{}}
	name = stripUserPrefix(strings.TrimSpace(name))
	if name == "" {
		return res
	}

	if strings.Contains(strings.ToLower(name), "bot") {
		res.Add(3, `username contains "bot"`)
	}
	if m := reTrailingDigits.FindString(name); m != "" {
		res.Add(2, fmt.Sprintf("username ends with %d digits", len(m)))
	}
	if reAdjNounDigits.MatchString(name) {
		res.Add(2, "username looks auto-generated")
	}

	total, digits := 0, 0
	for _, r := range name {
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if ratio := float64(digits) / float64(total); ratio > 0.35 {
		res.Add(1, fmt.Sprintf("username digit ratio %.0f%%", ratio*100))
	}
	return res
}

// stripUserPrefix removes leading u/ or /u/ from the name
func stripUserPrefix(name string) string {
	for _, prefix := range []string{"/u/", "u/", "/user/", "user/"} {
		if len(name) > len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			return name[len(prefix):]
		}
	}
	return name
}
