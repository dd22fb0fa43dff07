package rules

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/umputun/rss-sniffer/lib/features"
	"github.com/umputun/rss-sniffer/lib/textcheck"
)

// MaxTextScore is the upper bound for both text sub-scores, the lower bound is 0
const MaxTextScore = 20.0

// genericReplies is a closed set of words making up ultra-short generic replies
var genericReplies = map[string]bool{
	"lol": true, "lmao": true, "lmfao": true, "nice": true, "this": true, "agreed": true, "agree": true,
	"same": true, "true": true, "yes": true, "yep": true, "no": true, "nope": true, "wow": true, "cool": true,
	"thanks": true, "thank": true, "you": true, "thx": true, "based": true, "facts": true, "exactly": true,
	"+1": true, "ok": true, "okay": true, "great": true, "post": true, "real": true, "so": true, "+100": true,
	"awesome": true, "amazing": true, "love": true, "it": true, "w": true, "l": true, "fr": true, "underrated": true,
}

// suspiciousTLDs is a fixed list of top-level domains often used by spam links
var suspiciousTLDs = map[string]bool{
	"xyz": true, "top": true, "click": true, "link": true, "buzz": true, "icu": true, "rest": true, "cfd": true,
	"sbs": true, "monster": true, "quest": true, "tk": true, "ml": true, "ga": true, "cf": true, "gq": true,
	"work": true, "loan": true, "zip": true, "mov": true, "country": true, "kim": true, "men": true,
	"review": true, "party": true, "bid": true, "win": true, "date": true, "stream": true, "racing": true,
}

// TextOptions defines context of a text check
type TextOptions struct {
	Identity string   // author, used as history key
	History  *History // per-identity history, tracked if not nil
	// Duplicate is a known near-duplicate flag, used instead of the history if History is nil.
	// Allows rescoring a text without touching the history again.
	Duplicate bool
}

// TextScores is a result of ScoreText, two independent sub-scores of the same text
type TextScores struct {
	AI        textcheck.ScoreResult
	BotText   textcheck.ScoreResult
	Duplicate bool // near-duplicate detected (or passed in options)
}

// ScoreText computes bot-text and ai-style sub-scores of the text. Both are clamped to [0, MaxTextScore].
// If opts.History is set, the text fingerprint is tracked for the identity before scoring.
func ScoreText(text string, opts TextOptions) TextScores {
	return ScoreStats(features.Analyze(text), opts)
}

// ScoreStats is ScoreText over already analyzed text, allows sharing one scan with the feature extractor.
func ScoreStats(st features.Stats, opts TextOptions) TextScores {
	res := TextScores{
		AI:        textcheck.ScoreResult{Reasons: []string{}},
		BotText:   textcheck.ScoreResult{Reasons: []string{}},
		Duplicate: opts.Duplicate,
	}
	if opts.History != nil {
		res.Duplicate = opts.History.Track(opts.Identity, Fingerprint(st.Text))
	}

	scoreBotText(&res.BotText, st, res.Duplicate)
	scoreAI(&res.AI, st)

	res.BotText.Clamp(0, MaxTextScore)
	res.AI.Clamp(0, MaxTextScore)
	return res
}

func scoreBotText(res *textcheck.ScoreResult, st features.Stats, duplicate bool) {
	if isGenericReply(st.Lower) {
		res.Add(2, "short generic reply")
	}

	for _, link := range st.Links {
		if tld := linkTLD(link); suspiciousTLDs[tld] {
			res.Add(4, fmt.Sprintf("link with suspicious tld .%s", tld))
			break
		}
	}

	if len(st.Links) >= 2 {
		res.Add(2, fmt.Sprintf("multiple links (%d)", len(st.Links)))
	}

	if duplicate {
		res.Add(2, "near-duplicate of an earlier text")
	}
}

func scoreAI(res *textcheck.ScoreResult, st features.Stats) {
	words := st.Words

	if len(st.SelfDisclosure) > 0 {
		res.Add(10, fmt.Sprintf("self-disclosure %q", st.SelfDisclosure[0]))
	}
	if len(st.MetaDiscourse) > 0 {
		res.Add(1.5, fmt.Sprintf("meta framing %q", st.MetaDiscourse[0]))
	}
	if len(st.Template) > 0 {
		res.Add(1, fmt.Sprintf("template phrase %q", st.Template[0]))
	}

	if words >= 40 && st.Transitions > 0 {
		n := min(st.Transitions, 4)
		res.Add(float64(n), fmt.Sprintf("formulaic transitions (%d)", st.Transitions))
	}

	if words >= 120 {
		if rate := float64(st.Contractions) / float64(words); rate < 0.01 {
			res.Add(2, fmt.Sprintf("few contractions (%.1f%%) in long text", rate*100))
		}
	}

	if words > 80 && len(st.Sentences) >= 3 && st.SentMean >= 18 && st.SentStd/st.SentMean <= 0.35 {
		res.Add(2, fmt.Sprintf("long uniform sentences (avg %.1f words)", st.SentMean))
	}

	if st.ListLines >= 3 && words > 60 {
		res.Add(1.5, fmt.Sprintf("structured list (%d lines)", st.ListLines))
	}
	if st.Headings >= 6 && words >= 350 {
		res.Add(1.5, fmt.Sprintf("heavy sectioning (%d headings)", st.Headings))
	}
	if len(st.Links) >= 6 && words >= 250 {
		res.Add(1, fmt.Sprintf("many links in long text (%d)", len(st.Links)))
	}
	if st.Coords {
		res.Add(0.5, "formatted coordinates")
	}

	if st.Emoji {
		res.Add(-1, "emoji")
	}
	if st.Casual {
		res.Add(-0.5, "casual markers")
	}
}

// isGenericReply checks if the text is 1 to 3 words, all from the closed set of generic replies
func isGenericReply(lower string) bool {
	words := strings.Fields(lower)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	matched := 0
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:'\"()…")
		if w == "" {
			continue
		}
		if !genericReplies[w] {
			return false
		}
		matched++
	}
	return matched > 0
}

// linkTLD extracts top-level domain of the link, lower-cased. Empty string if link can't be parsed.
func linkTLD(link string) string {
	if !strings.Contains(link, "://") {
		link = "http://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	if idx := strings.LastIndex(suffix, "."); idx >= 0 {
		suffix = suffix[idx+1:]
	}
	return suffix
}
