package models

import "github.com/bytedance/sonic"

type ChunkMetadata struct {
	Page              int      `json:"page"`
	ContentType       string   `json:"content_type"`
	Chapter           *int     `json:"chapter,omitempty"`
	TaskNumber        int      `json:"task_number,omitempty"`
	Dates             []string `json:"dates,omitempty"`
	HistoricalFigures []string `json:"historical_figures,omitempty"`

	// book level fields, filled in when the chunk is finalized
	TextbookTitle string `json:"textbook_title,omitempty"`
	Grade         int    `json:"grade,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Author        string `json:"author,omitempty"`
}

// MarshalJSON always writes dates and historical_figures on text chunks, as [] when nothing
// was found. Task chunks leave them out.
func (m ChunkMetadata) MarshalJSON() ([]byte, error) {
	type plain ChunkMetadata
	if m.ContentType != ContentTypeText {
		return sonic.Marshal(plain(m))
	}
	return sonic.Marshal(struct {
		plain
		Dates             []string `json:"dates"`
		HistoricalFigures []string `json:"historical_figures"`
	}{plain(m), orEmpty(m.Dates), orEmpty(m.HistoricalFigures)})
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type ChunkContent struct {
	Text     string   `json:"text"`
	Formulas []string `json:"formulas,omitempty"`
}

// ChunkDraft is a chunk straight out of a segmenter. TempID is only unique within a page.
type ChunkDraft struct {
	TempID   string
	Metadata ChunkMetadata
	Content  ChunkContent
}

// Chunk is the unit of retrieval.
type Chunk struct {
	ChunkID  string        `json:"chunk_id"`
	Metadata ChunkMetadata `json:"metadata"`
	Content  ChunkContent  `json:"content"`
}

// ChunkCollection is everything segmented from one textbook.
type ChunkCollection struct {
	Metadata    TextbookMetadata `json:"metadata"`
	Chunks      []Chunk          `json:"chunks"`
	TotalChunks int              `json:"total_chunks"`
}
