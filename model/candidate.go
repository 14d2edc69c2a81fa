package model

// Candidate represents a retrieved passage during one query.
// Candidates are ephemeral; they exist only between retrieval and answering.
type Candidate struct {
	Content      string   `json:"content"`
	Source       string   `json:"source"`
	Score        float64  `json:"score"`
	Rank         int      `json:"rank,omitempty"`
	GraphContext string   `json:"graph_context,omitempty"`
	Metadata     Metadata `json:"metadata,omitempty"`
}

// Answer is the final result of a question against the corpus
type Answer struct {
	Question         string   `json:"question"`
	Answer           string   `json:"answer"`
	Sources          []string `json:"sources"`
	ContextUsed      string   `json:"context_used"`
	GraphContextUsed bool     `json:"graph_context_used"`
}
