package model

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	// InitialK is the candidate pool size requested from each retriever
	// before reranking
	InitialK int `json:"initial_k"`
	// FinalK is the number of candidates surviving the reranker
	FinalK int `json:"final_k"`
	// MaxContextChars bounds the composed context handed to the
	// generative model
	MaxContextChars int `json:"max_context_chars"`
	// DisplayContextChars bounds the context echoed back to the caller
	DisplayContextChars int `json:"display_context_chars"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() *QueryConfig {
	return &QueryConfig{
		InitialK:            20,
		FinalK:              5,
		MaxContextChars:     4000,
		DisplayContextChars: 500,
	}
}
