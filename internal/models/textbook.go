package models

import (
	"fmt"
	"strings"
)

type Subject string

const (
	SubjectMathematics Subject = "mathematics"
	SubjectHistory     Subject = "history"
)

var subjectAliases = map[string]Subject{
	"mathematics": SubjectMathematics,
	"math":        SubjectMathematics,
	"математика":  SubjectMathematics,
	"history":     SubjectHistory,
	"история":     SubjectHistory,
}

// ParseSubject normalises a user supplied subject. Unknown subjects are kept as-is.
func ParseSubject(s string) Subject {
	key := strings.ToLower(strings.TrimSpace(s))
	if subj, ok := subjectAliases[key]; ok {
		return subj
	}
	return Subject(key)
}

func (s Subject) String() string { return string(s) }

// TextbookMetadata describes one source document.
type TextbookMetadata struct {
	Title   string `json:"title" yaml:"title"`
	Author  string `json:"author" yaml:"author"`
	Year    int    `json:"year" yaml:"year"`
	Grade   int    `json:"grade" yaml:"grade"`
	Subject string `json:"subject" yaml:"subject"`
	ISBN    string `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Part    int    `json:"part,omitempty" yaml:"part,omitempty"`
}

func (m TextbookMetadata) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("textbook title is required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("textbook subject is required")
	}
	if m.Grade <= 0 {
		return fmt.Errorf("textbook grade must be positive, got %d", m.Grade)
	}
	return nil
}

// OCRLine is one recognised line: four corner points, text, confidence in [0,1].
type OCRLine struct {
	BBox       [4][2]float64 `json:"bbox"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	// hOCR paragraph index, only meaningful while the page text is assembled
	Paragraph int `json:"-"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageResult is the persisted OCR output of a single page.
type PageResult struct {
	Text       string     `json:"text"`
	OCRResults []OCRLine  `json:"ocr_results"`
	Dimensions Dimensions `json:"dimensions"`
}

type RunSummary struct {
	Metadata            TextbookMetadata `json:"metadata"`
	TotalPagesProcessed int              `json:"total_pages_processed"`
	OutputDir           string           `json:"output_dir"`
}

// CollectionName is the vector index partition for one subject and grade.
func CollectionName(prefix string, subject Subject, grade int) string {
	return fmt.Sprintf("%s_%s_%d", prefix, subject, grade)
}

func ChunkFileName(subject Subject, grade int) string {
	return fmt.Sprintf("%s_%d_chunks.json", subject, grade)
}

// OCRDirName is the per-book folder under the OCR output directory.
func OCRDirName(subject Subject, grade int) string {
	return fmt.Sprintf("%s_%d", subject, grade)
}
