package features

import "regexp"

// phrase and pattern lists shared by the extractor and rule scorers.
// all patterns are matched against lower-cased text.
var (
	reLink = regexp.MustCompile(`(?:https?://|www\.)[^\s<>()\[\]"'` + "`" + `]+`)

	reHeading  = regexp.MustCompile(`^\s{0,3}#{1,6}\s+\S`)
	reListLine = regexp.MustCompile(`^\s*(?:[-*+•]|\d{1,3}[.)])\s+\S`)

	reSentenceSplit = regexp.MustCompile(`[.!?…]+(?:\s+|$)|\n+`)
	reContraction   = regexp.MustCompile(`\b[a-z]+['’](?:t|s|re|ve|ll|d|m)\b`)

	reSelfDisclosure = regexp.MustCompile(`\b(?:as an ai(?: language model| model| assistant)?|as a (?:large )?language model|i am an ai|i'm an ai|i am a language model|i cannot assist|i can't assist|i can not assist|i'm unable to assist|i am unable to assist|i'm not able to provide|my training data|my knowledge cutoff|como (?:una? )?(?:ia|modelo de lenguaje))\b`)

	reMetaDiscourse = regexp.MustCompile(`\b(?:let me (?:analyze|analyse|break (?:this|it|that) down|walk you through|explain)|let's (?:analyze|break (?:this|it|that) down)|here'?s a (?:breakdown|quick breakdown)|(?:déjame|dejame|permíteme|permiteme) (?:analizar|desglosar|explicar)|vamos a (?:analizar|desglosar)|analicemos)`)

	reTemplate = regexp.MustCompile(`\b(?:signs|indicators|evidence|hallmarks|red flags) of\b`)

	reTransition = regexp.MustCompile(`\b(?:furthermore|moreover|additionally|in conclusion|in summary|to summarize|overall|ultimately|consequently|notably|importantly|nevertheless|nonetheless|it'?s worth noting|it is worth noting|it is important to note|on the other hand|in addition)\b`)

	reCasual = regexp.MustCompile(`\b(?:lol|lmao|lmfao|rofl|tbh|imo|imho|idk|smh|ngl|bruh|(?:ja){2,}|(?:je){2,}|(?:ha){2,}|xd)\b`)

	reBold      = regexp.MustCompile(`\*\*[^*\n]+\*\*`)
	reCoords    = regexp.MustCompile(`-?\d{1,2}\.\d{3,}°?\s*[ns]?,\s*-?\d{1,3}\.\d{3,}°?\s*[ew]?|\d{1,3}°\s*\d{1,2}['′]\s*(?:\d{1,2}(?:\.\d+)?["″]\s*)?[nsew]`)
	reCodeBlock = regexp.MustCompile("```")
)
