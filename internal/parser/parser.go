package parser

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"

	"textbook-rag/internal/models"
	"textbook-rag/internal/store"
)

// Segmenter turns the raw text of one page into chunk drafts.
type Segmenter interface {
	Segment(pageText string, page int) []models.ChunkDraft
}

var chapterRe = regexp.MustCompile(models.ChapterRegex)

// NewSegmenter picks the extraction rules for a subject.
func NewSegmenter(subject models.Subject) (Segmenter, error) {
	switch subject {
	case models.SubjectMathematics:
		return MathParser{}, nil
	case models.SubjectHistory:
		return HistoryParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported subject: %q", subject)
	}
}

// ChunkCreator finalizes drafts for one segmentation run. Its counter and chapter state
// live for the run only, so ids are reproducible for identical input.
type ChunkCreator struct {
	subject models.Subject
	book    models.TextbookMetadata
	counter int
	chapter *int
}

func NewChunkCreator(book models.TextbookMetadata) *ChunkCreator {
	return &ChunkCreator{subject: models.ParseSubject(book.Subject), book: book}
}

// ObservePage picks up a "Глава N" / "Chapter N" heading. The chapter applies to the
// page it appears on and every page after it.
func (c *ChunkCreator) ObservePage(pageText string) {
	m := chapterRe.FindStringSubmatch(pageText)
	if m == nil {
		return
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}
	c.chapter = &n
}

// Finalize injects book metadata and assigns the run-unique chunk id.
func (c *ChunkCreator) Finalize(draft models.ChunkDraft) models.Chunk {
	meta := draft.Metadata
	if meta.Chapter == nil && c.chapter != nil {
		ch := *c.chapter
		meta.Chapter = &ch
	}
	meta.TextbookTitle = c.book.Title
	meta.Grade = c.book.Grade
	meta.Subject = c.subject.String()
	meta.Author = c.book.Author

	return models.Chunk{
		ChunkID:  c.createChunkID(meta),
		Metadata: meta,
		Content:  draft.Content,
	}
}

func (c *ChunkCreator) createChunkID(meta models.ChunkMetadata) string {
	c.counter++
	chapter := 0
	if meta.Chapter != nil {
		chapter = *meta.Chapter
	}
	return fmt.Sprintf("%s_%d_ch%d_p%d_%d", c.subject, meta.Grade, chapter, meta.Page, c.counter)
}

// SegmentTextbook segments and finalizes pages given in page order.
func SegmentTextbook(seg Segmenter, creator *ChunkCreator, pages []Page) []models.Chunk {
	var chunks []models.Chunk
	for _, p := range pages {
		creator.ObservePage(p.Text)
		for _, draft := range seg.Segment(p.Text, p.Number) {
			chunks = append(chunks, creator.Finalize(draft))
		}
	}
	return chunks
}

type Page struct {
	Number int
	Text   string
}

// LoadPages reads every page_NNN.json in ocrDir. A page whose file cannot be read or
// decoded is logged and left out; the rest of the book is still returned.
func LoadPages(ocrDir string) ([]Page, error) {
	files, err := store.ListPageFiles(ocrDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page files in %s, run the ocr stage first", ocrDir)
	}

	var pages []Page
	for _, file := range files {
		page, err := loadPage(file)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("Skipping page")
			continue
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func loadPage(file string) (Page, error) {
	n, err := store.PageNumberFromFile(file)
	if err != nil {
		return Page{}, err
	}
	result, err := store.ReadPageResult(file)
	if err != nil {
		return Page{}, err
	}
	return Page{Number: n, Text: result.Text}, nil
}

// StructureTextbook turns a book's OCR output into a chunk collection. When outputDir is
// empty nothing is written.
func StructureTextbook(ocrDir string, book models.TextbookMetadata, outputDir string) (*models.ChunkCollection, string, error) {
	log.Info().Str("title", book.Title).Str("ocr_dir", ocrDir).Msg("Structuring textbook")

	seg, err := NewSegmenter(models.ParseSubject(book.Subject))
	if err != nil {
		return nil, "", err
	}
	pages, err := LoadPages(ocrDir)
	if err != nil {
		return nil, "", err
	}

	chunks := SegmentTextbook(seg, NewChunkCreator(book), pages)
	collection := &models.ChunkCollection{
		Metadata:    book,
		Chunks:      chunks,
		TotalChunks: len(chunks),
	}
	if outputDir == "" {
		return collection, "", nil
	}

	path, err := store.WriteChunkCollection(outputDir, collection)
	if err != nil {
		return nil, "", err
	}
	log.Info().Int("chunks", len(chunks)).Int("pages", len(pages)).Str("file", path).Msg("Chunks saved")
	return collection, path, nil
}
