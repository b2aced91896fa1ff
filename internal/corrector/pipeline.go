package corrector

// Stage is one text transform in the pipeline.
type Stage interface {
	Correct(text string) string
}

// Pipeline composes the formatting and vocabulary stages left-to-right.
// Output is idempotent: correcting already-corrected text is a no-op.
type Pipeline struct {
	stages []Stage
}

// NewPipeline builds the standard two-stage pipeline. extraVocabulary adds
// corpus-sourced canonical names to the vocabulary stage.
func NewPipeline(extraVocabulary map[string][]string) *Pipeline {
	return &Pipeline{stages: []Stage{
		NewFormattingCorrector(),
		NewVocabularyCorrector(extraVocabulary),
	}}
}

// Correct runs every stage in order. A rule that fails to match leaves its
// substring unchanged; the pipeline never rejects input.
func (p *Pipeline) Correct(text string) string {
	for _, s := range p.stages {
		text = s.Correct(text)
	}
	return text
}
