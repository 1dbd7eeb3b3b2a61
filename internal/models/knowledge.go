package models

// Topic is one knowledge base entry.
type Topic struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Answer   string   `json:"answer"`
}

// KnowledgeBase keeps topics in source order; matching ties resolve to the earlier topic.
type KnowledgeBase struct {
	Topics []Topic
}

func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.Topics)
}
