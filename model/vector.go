package model

// VectorRecord is one entry of the vector collection. The ID is the string
// form of the chunk id the embedding was computed for.
type VectorRecord struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Metadata   Metadata `json:"metadata"`
	Similarity float64  `json:"similarity,omitempty"`
}
