package corrector

import (
	"regexp"
	"strings"
)

// Inbound utterance hygiene: transcription backends emit noise tags,
// filler sounds, and stock hallucinated phrases ("thanks for watching")
// on silence. These never reach the dispatcher.

var noiseTags = regexp.MustCompile(`\[[^\]]*\]`)

var fillerWords = map[string]bool{
	"uh": true, "um": true, "ah": true, "eh": true, "hmm": true,
	"oh": true, "mm": true, "err": true, "erm": true, "huh": true,
}

// keepShort are one-word utterances that are meaningful despite length.
var keepShort = map[string]bool{
	"yes": true, "no": true, "stop": true, "wait": true, "help": true,
}

var hallucinatedPhrases = map[string]bool{
	"thanks for watching":   true,
	"thank you for watching": true,
	"like and subscribe":    true,
	"please subscribe":      true,
	"subtitles by":          true,
	"the end":               true,
	"to be continued":       true,
	"copyright":             true,
	"all rights reserved":   true,
	"background music":      true,
	"music":                 true,
	"static":                true,
}

var hallucinatedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`subtitles? by`),
	regexp.MustCompile(`translat\w+ by`),
	regexp.MustCompile(`transcri\w+ by`),
	regexp.MustCompile(`like,? subscribe`),
	regexp.MustCompile(`www\.|http`),
	regexp.MustCompile(`amara\.org`),
	regexp.MustCompile(`^\W*$`),
}

// NormalizeUtterance strips noise tags and leading/trailing filler sounds
// from a transcribed utterance. It does not change the user's words.
func NormalizeUtterance(text string) string {
	text = noiseTags.ReplaceAllString(text, "")
	words := strings.Fields(text)
	for len(words) > 0 && fillerWords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	for len(words) > 0 && fillerWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// IsHallucination reports whether a transcription is a likely artifact of
// silence rather than real speech.
func IsHallucination(text string) bool {
	clean := strings.ToLower(strings.TrimSpace(NormalizeUtterance(text)))

	if len(clean) < 2 {
		return true
	}
	words := strings.Fields(clean)
	if len(words) == 1 && !keepShort[clean] && len(clean) < 5 {
		return true
	}
	if hallucinatedPhrases[clean] {
		return true
	}
	for _, p := range hallucinatedPatterns {
		if p.MatchString(clean) {
			return true
		}
	}
	// A single word repeated over and over is a decoder loop, not speech.
	if len(words) > 3 {
		same := true
		for _, w := range words[1:] {
			if w != words[0] {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}
