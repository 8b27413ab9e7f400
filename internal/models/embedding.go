package models

// RetrievedChunk is a query-time match. Distance is cosine distance, lower is closer.
type RetrievedChunk struct {
	ID       string            `json:"id"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

func (c RetrievedChunk) Relevance() float64 { return 1 - c.Distance }

// Textbook returns the chunk's textbook title or the Unknown placeholder.
func (c RetrievedChunk) Textbook() string {
	if t := c.Metadata[MetaTextbookTitle]; t != "" {
		return t
	}
	return UnknownTextbook
}

// Page returns the chunk's page or the "?" placeholder.
func (c RetrievedChunk) Page() string {
	if p := c.Metadata[MetaPage]; p != "" {
		return p
	}
	return UnknownPage
}

type Source struct {
	Textbook  string  `json:"textbook"`
	Page      string  `json:"page"`
	Relevance float64 `json:"relevance"`
}

type AnswerMetadata struct {
	Subject    string `json:"subject"`
	Grade      int    `json:"grade"`
	Model      string `json:"model"`
	ChunksUsed int    `json:"chunks_used"`
}

type AnswerResult struct {
	Query    string         `json:"query"`
	Answer   string         `json:"answer"`
	Sources  []Source       `json:"sources"`
	Metadata AnswerMetadata `json:"metadata"`
}

// vector index metadata keys
const (
	MetaPage              = "page"
	MetaContentType       = "content_type"
	MetaChapter           = "chapter"
	MetaTaskNumber        = "task_number"
	MetaDates             = "dates"
	MetaHistoricalFigures = "historical_figures"
	MetaTextbookTitle     = "textbook_title"
	MetaGrade             = "grade"
	MetaSubject           = "subject"
	MetaAuthor            = "author"
	MetaChunkID           = "chunk_id"
)
