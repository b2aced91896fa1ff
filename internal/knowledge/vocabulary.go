package knowledge

import (
	"strings"

	"github.com/wiredbrain/axiom/internal/domain"
)

// VocabularyVariants derives speech-correction entries from the loaded
// corpora: every named equipment and project item maps its canonical
// name to its lowercase spelling, so generated text always carries the
// proper capitalization. Keywords are synonyms rather than spellings
// and stay out of the table; the corrector never swaps words.
func VocabularyVariants(s *Store) map[string][]string {
	out := make(map[string][]string)
	for _, cat := range []domain.Category{domain.CategoryEquipment, domain.CategoryProject} {
		for _, item := range s.All(cat) {
			name := item.Metadata["name"]
			if name == "" {
				continue
			}
			out[name] = append(out[name], strings.ToLower(name))
		}
	}
	return out
}
