package domain

// Category identifies which corpus a knowledge item belongs to.
type Category string

const (
	CategoryEquipment Category = "equipment"
	CategoryProject   Category = "project"
	CategoryFact      Category = "fact"
	CategoryTemplate  Category = "template"
)

// Categories lists every corpus the knowledge store must load.
var Categories = []Category{CategoryEquipment, CategoryProject, CategoryFact, CategoryTemplate}

// KnowledgeItem is one retrievable fact, project idea, or template entry.
// Items are created once at corpus load time and never mutated.
type KnowledgeItem struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Category Category          `json:"category"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScoredItem is a knowledge item returned by semantic search with its
// cosine similarity against the query.
type ScoredItem struct {
	KnowledgeItem
	Similarity float64 `json:"similarity"`
}
