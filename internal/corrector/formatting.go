// Package corrector cleans response text before speech synthesis and
// normalizes inbound utterances before classification. Correction never
// changes what a sentence means, only how it is written; any rule that
// could alter meaning does not belong here.
package corrector

import (
	"regexp"
	"strings"
)

// FormattingCorrector is stage one: it strips markup artifacts that
// confuse speech synthesis and expands unit abbreviations into their
// spoken form.
type FormattingCorrector struct {
	markup []markupRule
	units  []unitRule
}

type markupRule struct {
	pattern *regexp.Regexp
	replace string
}

type unitRule struct {
	pattern *regexp.Regexp
	replace string
}

// NewFormattingCorrector builds the fixed rewrite table.
func NewFormattingCorrector() *FormattingCorrector {
	markup := []markupRule{
		{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},  // **bold**
		{regexp.MustCompile(`\*(.+?)\*`), "$1"},      // *italic*
		{regexp.MustCompile("`(.+?)`"), "$1"},        // `code`
		{regexp.MustCompile(`#{1,6}\s+`), ""},        // # headers
		{regexp.MustCompile(`\[[^\]]*\]`), ""},       // [Music], [Applause]
	}

	// A trailing unit abbreviation after a number becomes its spoken form.
	// Each replacement is a fixed point of its own pattern, so re-running
	// the corrector is a no-op.
	units := []unitRule{
		{regexp.MustCompile(`(?i)\b(\d+)\s*km\b`), "$1 kilometers"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*cm\b`), "$1 centimeters"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*mm\b`), "$1 millimeters"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*m\b`), "$1 meters"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*gb\b`), "$1 GB"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*mb\b`), "$1 MB"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*kb\b`), "$1 KB"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*mhz\b`), "$1 MHz"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*ghz\b`), "$1 GHz"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*hz\b`), "$1 Hz"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*fps\b`), "$1 FPS"},
		{regexp.MustCompile(`(?i)\b(\d+)\s*tops\b`), "$1 TOPS"},
	}

	return &FormattingCorrector{markup: markup, units: units}
}

var spaces = regexp.MustCompile(`\s+`)

// Correct applies the rewrite table. Unmatched input passes through
// unchanged.
func (c *FormattingCorrector) Correct(text string) string {
	if text == "" {
		return text
	}
	for _, r := range c.markup {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}
	for _, r := range c.units {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}
	text = spaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
