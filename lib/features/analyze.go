package features

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
)

// MaxScanRunes limits the part of the input text to be analyzed
const MaxScanRunes = 20000

// Stats is a set of raw counts collected from a text in a single pass.
// Both the feature extractor and the rule scorers are built on top of it.
type Stats struct {
	Text  string // sanitized and truncated text
	Lower string // lower-cased Text

	Runes    int
	Words    int
	Letters  int
	Upper    int
	Digits   int
	Punct    int
	Newlines int
	Exclaims int

	Links     []string // links in order of appearance
	Headings  int      // markdown heading lines
	ListLines int      // bullet or numbered list lines

	Sentences []int   // words per sentence
	SentMean  float64 // mean words per sentence
	SentStd   float64 // standard deviation of words per sentence

	Contractions   int
	Emoji          bool
	Casual         bool // casual markers like "lol", "tbh" or a trailing question mark
	QuestionEnd    bool
	SelfDisclosure []string // matched self-disclosure phrases
	MetaDiscourse  []string // matched "let me break it down" phrases
	Template       []string // matched "signs of" phrases
	Transitions    int
	Bold           int
	CodeBlock      bool
	Coords         bool
}

// Analyze collects text statistics. It is total over any input, including invalid utf-8 and empty strings.
func Analyze(text string) Stats {
	clean := sanitize(text)
	st := Stats{Text: clean, Lower: strings.ToLower(clean)}

	for _, r := range clean {
		st.Runes++
		switch {
		case r == '\n':
			st.Newlines++
		case unicode.IsLetter(r):
			st.Letters++
			if unicode.IsUpper(r) {
				st.Upper++
			}
		case unicode.IsDigit(r):
			st.Digits++
		case unicode.IsPunct(r):
			st.Punct++
			if r == '!' {
				st.Exclaims++
			}
		}
	}
	st.Words = len(strings.Fields(clean))

	for _, link := range reLink.FindAllString(clean, -1) {
		st.Links = append(st.Links, strings.TrimRight(link, ".,;:!?*_"))
	}

	for line := range strings.SplitSeq(clean, "\n") {
		if reHeading.MatchString(line) {
			st.Headings++
		}
		if reListLine.MatchString(line) {
			st.ListLines++
		}
	}

	for _, sent := range reSentenceSplit.Split(clean, -1) {
		if n := len(strings.Fields(sent)); n > 0 {
			st.Sentences = append(st.Sentences, n)
		}
	}
	st.SentMean, st.SentStd = meanStd(st.Sentences)

	trimmed := strings.TrimSpace(st.Lower)
	st.QuestionEnd = strings.HasSuffix(trimmed, "?")
	st.Casual = st.QuestionEnd || reCasual.MatchString(st.Lower)
	st.Contractions = len(reContraction.FindAllStringIndex(st.Lower, -1))
	st.Emoji = gomoji.ContainsEmoji(clean)
	st.SelfDisclosure = reSelfDisclosure.FindAllString(st.Lower, -1)
	st.MetaDiscourse = reMetaDiscourse.FindAllString(st.Lower, -1)
	st.Template = reTemplate.FindAllString(st.Lower, -1)
	st.Transitions = len(reTransition.FindAllStringIndex(st.Lower, -1))
	st.Bold = len(reBold.FindAllStringIndex(clean, -1))
	st.CodeBlock = reCodeBlock.MatchString(clean)
	st.Coords = reCoords.MatchString(st.Lower)
	return st
}

// sanitize replaces invalid utf-8, removes control and format characters except new lines and tabs,
// and truncates the text to MaxScanRunes.
func sanitize(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	var result strings.Builder
	result.Grow(min(len(text), MaxScanRunes*4))
	count := 0
	for _, r := range text {
		if count >= MaxScanRunes {
			break
		}
		if r == '\r' {
			continue
		}
		if r != '\n' && r != '\t' && (unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)) {
			continue
		}
		// zero-width and invisible ranges
		if (r >= 0x200B && r <= 0x200F) || (r >= 0x2060 && r <= 0x206F) {
			continue
		}
		result.WriteRune(r)
		count++
	}
	return result.String()
}

func meanStd(vals []int) (mean, std float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += float64(v)
	}
	mean = sum / float64(len(vals))
	variance := 0.0
	for _, v := range vals {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(vals))
	return mean, math.Sqrt(variance)
}
