// Package features maps raw text to a bag of numeric signals used by the linear model.
//
// The vocabulary is fixed and versioned, a model trained on one version of the vocabulary
// should be used with the same version of the extractor. All values are finite and scaled
// to a small bounded range, mostly [0,1].
package features

import (
	"math"
	"sort"
)

// Version of the feature vocabulary
const Version = "v1"

// Map is a sparse mapping of feature name to value
type Map map[string]float64

// feature names
const (
	Words           = "words"
	CharsLog        = "chars_log"
	PunctRatio      = "punct_ratio"
	UpperRatio      = "upper_ratio"
	DigitRatio      = "digit_ratio"
	NewlineRatio    = "newline_ratio"
	Links           = "links"
	HasHeading      = "has_heading"
	Headings        = "headings"
	HasList         = "has_list"
	ListLines       = "list_lines"
	SentMean        = "sent_mean"
	SentStd         = "sent_std"
	ContractionRate = "contraction_rate"
	HasEmoji        = "has_emoji"
	Casual          = "casual"
	SelfDisclosure  = "self_disclosure"
	MetaDiscourse   = "meta_discourse"
	TemplatePhrase  = "template_phrase"
	Transitions     = "transitions"
	QuestionEnd     = "question_end"
	ExclaimRatio    = "exclaim_ratio"
	Bold            = "bold"
	CodeBlock       = "code_block"
	Coords          = "coords"
)

// scaling caps, value is divided by cap and clipped to 1
const (
	capWords       = 300.0
	capCharsLog    = 10.0
	capLinks       = 10.0
	capHeadings    = 10.0
	capListLines   = 10.0
	capSentMean    = 40.0
	capSentStd     = 20.0
	capContraction = 0.1 // contractions per word
	capMeta        = 3.0
	capTransitions = 10.0
	capBold        = 10.0
)

// Keys returns sorted feature vocabulary
func Keys() []string {
	res := []string{Words, CharsLog, PunctRatio, UpperRatio, DigitRatio, NewlineRatio, Links, HasHeading, Headings,
		HasList, ListLines, SentMean, SentStd, ContractionRate, HasEmoji, Casual, SelfDisclosure, MetaDiscourse,
		TemplatePhrase, Transitions, QuestionEnd, ExclaimRatio, Bold, CodeBlock, Coords}
	sort.Strings(res)
	return res
}

// Extract returns feature map for the given text. Pure and deterministic, total over any input.
func Extract(text string) Map {
	return FromStats(Analyze(text))
}

// FromStats builds feature map from already collected stats.
func FromStats(st Stats) Map {
	words := float64(st.Words)
	res := Map{
		Words:           scaled(words, capWords),
		CharsLog:        scaled(math.Log1p(float64(st.Runes)), capCharsLog),
		PunctRatio:      ratio(st.Punct, st.Runes),
		UpperRatio:      ratio(st.Upper, st.Letters),
		DigitRatio:      ratio(st.Digits, st.Runes),
		NewlineRatio:    ratio(st.Newlines, st.Words),
		Links:           scaled(float64(len(st.Links)), capLinks),
		HasHeading:      flag(st.Headings > 0),
		Headings:        scaled(float64(st.Headings), capHeadings),
		HasList:         flag(st.ListLines > 0),
		ListLines:       scaled(float64(st.ListLines), capListLines),
		SentMean:        scaled(st.SentMean, capSentMean),
		SentStd:         scaled(st.SentStd, capSentStd),
		ContractionRate: 0,
		HasEmoji:        flag(st.Emoji),
		Casual:          flag(st.Casual),
		SelfDisclosure:  flag(len(st.SelfDisclosure) > 0),
		MetaDiscourse:   scaled(float64(len(st.MetaDiscourse)), capMeta),
		TemplatePhrase:  scaled(float64(len(st.Template)), capMeta),
		Transitions:     scaled(float64(st.Transitions), capTransitions),
		QuestionEnd:     flag(st.QuestionEnd),
		ExclaimRatio:    ratio(st.Exclaims, len(st.Sentences)),
		Bold:            scaled(float64(st.Bold), capBold),
		CodeBlock:       flag(st.CodeBlock),
		Coords:          flag(st.Coords),
	}
	if st.Words > 0 {
		res[ContractionRate] = scaled(float64(st.Contractions)/words, capContraction)
	}
	for k, v := range res {
		res[k] = finite(v)
	}
	return res
}

// scaled divides v by cap and clips the result to [0,1]
func scaled(v, c float64) float64 {
	return min(max(finite(v)/c, 0), 1)
}

// ratio returns a/b clipped to [0,1], 0 if b is 0
func ratio(a, b int) float64 {
	if b <= 0 {
		return 0
	}
	return min(max(float64(a)/float64(b), 0), 1)
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// finite replaces NaN and Inf with 0
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
