package domain

// DocChunk is one indexable unit of documentation text: a heading-scoped
// segment of a page together with its embedding vector.
type DocChunk struct {
	ID        string    `json:"id"`
	PagePath  string    `json:"pagePath"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Heading   string    `json:"heading"`
	Anchor    string    `json:"anchor"`
	Content   string    `json:"content"`
	Embedding []float64 `json:"embedding"`
}

// SearchIndex is the persisted artifact consumed by the query-time frontend.
// Chunks appear in corpus discovery order; the order carries no meaning.
type SearchIndex struct {
	Model          string     `json:"model"`
	EmbeddingModel string     `json:"embeddingModel"`
	Dims           int        `json:"dims"`
	BuiltAt        string     `json:"builtAt"`
	Chunks         []DocChunk `json:"chunks"`
}

// Segment is a heading-scoped slice of a single markdown page, before
// embedding. Content is plain text with whitespace collapsed.
type Segment struct {
	Heading string
	Content string
	Anchor  string
	Title   string
}

// Message is a single chat turn. Role is one of "system", "user", "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskOptions is the chat-completions payload sent through the proxy.
type AskOptions struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}
