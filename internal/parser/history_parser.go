package parser

import (
	"fmt"
	"regexp"
	"strings"

	"textbook-rag/internal/models"
)

var (
	paragraphRe = regexp.MustCompile(models.ParagraphRegex)
	dateRe      = regexp.MustCompile(models.DateRegex)
	nameRe      = regexp.MustCompile(models.NameRegex)
)

// HistoryParser turns every blank-line separated paragraph into a text chunk.
type HistoryParser struct{}

func (HistoryParser) Segment(pageText string, page int) []models.ChunkDraft {
	var chunks []models.ChunkDraft
	for idx, para := range SplitParagraphs(pageText) {
		chunks = append(chunks, models.ChunkDraft{
			TempID: fmt.Sprintf("history_temp_%d_%d", page, idx),
			Metadata: models.ChunkMetadata{
				Page:              page,
				ContentType:       models.ContentTypeText,
				Dates:             ExtractDates(para),
				HistoricalFigures: ExtractNames(para),
			},
			Content: models.ChunkContent{Text: para},
		})
	}
	return chunks
}

// SplitParagraphs splits on blank lines and drops whitespace-only paragraphs.
func SplitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range paragraphRe.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// ExtractDates finds years and year ranges followed by "г" or "гг", with or without the
// dot. The marker must end the word, so "1380 году" and a bare year are not reported.
func ExtractDates(text string) []string {
	dates := []string{}
	for _, m := range dateRe.FindAllStringSubmatch(text, -1) {
		dates = append(dates, m[1])
	}
	return dates
}

// ExtractNames returns capitalised Cyrillic word pairs ("Иван Грозный"), de-duplicated in
// first-occurrence order. Sentence starts followed by a capitalised word also match, and
// names longer than two words are cut to their first pair.
func ExtractNames(text string) []string {
	names := []string{}
	seen := make(map[string]struct{})
	for _, m := range nameRe.FindAllStringSubmatch(text, -1) {
		name := strings.Join(strings.Fields(m[1]), " ")
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
