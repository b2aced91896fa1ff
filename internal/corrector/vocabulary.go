package corrector

import (
	"regexp"
	"sort"
	"strings"
)

// VocabularyCorrector is stage two: it rewrites known product and
// technology names to their canonical capitalization so speech synthesis
// pronounces them correctly. It never substitutes a different word, only
// the canonical spelling of the same one.
type VocabularyCorrector struct {
	entries []vocabEntry
}

type vocabEntry struct {
	pattern   *regexp.Regexp
	canonical string
}

// defaultVocabulary maps canonical terms to the lowercase variants that
// must normalize to them.
var defaultVocabulary = map[string][]string{
	"JUIT":          {"juit"},
	"Drobotics Lab": {"drobotics lab", "drobotics  lab"},
	"Jetson":        {"jetson"},
	"Orin Nano":     {"orin nano"},
	"Raspberry Pi":  {"raspberry pi"},
	"Arduino":       {"arduino"},
	"GIGA R1":       {"giga r1"},
	"Unitree Go2":   {"unitree go2"},
	"RealSense":     {"realsense"},
	"RPLIDAR":       {"rplidar"},
	"Lidar":         {"lidar"},
	"ROS2":          {"ros2", "ros 2"},
	"Nav2":          {"nav2", "nav 2"},
	"RViz":          {"rviz"},
	"Gazebo":        {"gazebo"},
	"OpenCV":        {"opencv"},
	"TensorFlow":    {"tensorflow"},
	"PyTorch":       {"pytorch"},
}

// NewVocabularyCorrector builds the canonical-name dictionary, merging any
// extra canonical→variants entries (e.g. names sourced from the equipment
// corpus) over the built-in table.
func NewVocabularyCorrector(extra map[string][]string) *VocabularyCorrector {
	merged := make(map[string][]string, len(defaultVocabulary)+len(extra))
	for canon, variants := range defaultVocabulary {
		merged[canon] = variants
	}
	for canon, variants := range extra {
		merged[canon] = append(merged[canon], variants...)
	}

	var entries []vocabEntry
	for canon, variants := range merged {
		alts := make([]string, 0, len(variants))
		for _, v := range variants {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			alts = append(alts, regexp.QuoteMeta(v))
		}
		if len(alts) == 0 {
			continue
		}
		p := regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
		entries = append(entries, vocabEntry{pattern: p, canonical: canon})
	}

	// Longest canonical first so "Orin Nano" wins over a bare "Orin",
	// then alphabetical for a deterministic rule order.
	sort.SliceStable(entries, func(i, j int) bool {
		if len(entries[i].canonical) != len(entries[j].canonical) {
			return len(entries[i].canonical) > len(entries[j].canonical)
		}
		return entries[i].canonical < entries[j].canonical
	})
	return &VocabularyCorrector{entries: entries}
}

// Correct rewrites every known term to its canonical form. Unrecognized
// text passes through unchanged.
func (c *VocabularyCorrector) Correct(text string) string {
	if text == "" {
		return text
	}
	for _, e := range c.entries {
		text = e.pattern.ReplaceAllString(text, e.canonical)
	}
	return text
}
