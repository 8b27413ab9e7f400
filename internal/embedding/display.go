package embedding

import (
	"fmt"
	"strings"

	"textbook-rag/internal/config"
	"textbook-rag/internal/helper"
	"textbook-rag/internal/models"
)

// DisplayText builds the text that is embedded and stored as the chunk's document.
// Content and the formula/date/name lists are capped by cfg.
func DisplayText(chunk models.Chunk, cfg config.DisplayConfig) string {
	meta := chunk.Metadata
	parts := []string{
		fmt.Sprintf("Subject: %s", meta.Subject),
		fmt.Sprintf("Grade: %d", meta.Grade),
		fmt.Sprintf("Page: %d", meta.Page),
	}
	if meta.Chapter != nil {
		parts = append(parts, fmt.Sprintf("Chapter: %d", *meta.Chapter))
	}

	parts = append(parts, fmt.Sprintf("Content: %s", helper.Truncate(chunk.Content.Text, cfg.MaxContentChars)))

	if len(chunk.Content.Formulas) > 0 {
		parts = append(parts, fmt.Sprintf("Formulas: %s", strings.Join(helper.Head(chunk.Content.Formulas, cfg.MaxFormulas), ", ")))
	}
	if len(meta.Dates) > 0 {
		parts = append(parts, fmt.Sprintf("Dates: %s", strings.Join(helper.Head(meta.Dates, cfg.MaxDates), ", ")))
	}
	if len(meta.HistoricalFigures) > 0 {
		parts = append(parts, fmt.Sprintf("Historical figures: %s", strings.Join(helper.Head(meta.HistoricalFigures, cfg.MaxFigures), ", ")))
	}
	return strings.Join(parts, "\n")
}
