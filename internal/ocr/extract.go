package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"textbook-rag/internal/config"
	"textbook-rag/internal/helper"
	"textbook-rag/internal/models"
	"textbook-rag/internal/store"
)

// Extractor runs the OCR stage for one textbook at a time.
type Extractor struct {
	cfg        *config.Config
	recognizer Recognizer
	open       func(path string) (Rasterizer, error)
}

func NewExtractor(cfg *config.Config, recognizer Recognizer) *Extractor {
	return &Extractor{
		cfg:        cfg,
		recognizer: recognizer,
		open: func(path string) (Rasterizer, error) {
			return OpenPDF(path, cfg.OCR.PdftoppmPath)
		},
	}
}

// OutputDir is where page results of the given textbook are written.
func (e *Extractor) OutputDir(meta models.TextbookMetadata) string {
	return filepath.Join(e.cfg.OCRDir(), models.OCRDirName(models.ParseSubject(meta.Subject), meta.Grade))
}

// ExtractTextbook recognises pages [start, end) of the PDF, writing one page file each plus a run summary.
// end <= 0 means up to the last page.
func (e *Extractor) ExtractTextbook(ctx context.Context, pdfPath string, meta models.TextbookMetadata, start, end int) (*models.RunSummary, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	doc, err := e.open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	total := doc.PageCount()
	if end <= 0 || end > total {
		end = total
	}
	if start < 0 || start >= end {
		return nil, fmt.Errorf("invalid page range [%d, %d) for a %d page document", start, end, total)
	}

	outputDir := e.OutputDir(meta)
	if err := helper.CreateFolder(outputDir); err != nil {
		return nil, err
	}

	log.Info().
		Str("title", meta.Title).
		Int("total_pages", total).
		Int("start", start).
		Int("end", end).
		Msg("Processing textbook")

	processed := 0
	for page := start; page < end; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.cfg.OCR.SkipExisting && pageExists(outputDir, page) {
			log.Debug().Int("page", page).Msg("Page already recognised, skipping")
			processed++
			continue
		}

		result, err := e.processPage(ctx, doc, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if _, err := store.WritePageResult(outputDir, page, result); err != nil {
			return nil, err
		}
		processed++
		log.Info().Int("page", page).Int("lines", len(result.OCRResults)).Msgf("OCR %d/%d", processed, end-start)
	}

	summary := &models.RunSummary{
		Metadata:            meta,
		TotalPagesProcessed: processed,
		OutputDir:           outputDir,
	}
	if _, err := store.WriteSummary(outputDir, summary); err != nil {
		return nil, err
	}
	log.Info().Str("output_dir", outputDir).Msg("OCR finished")
	return summary, nil
}

func (e *Extractor) processPage(ctx context.Context, doc Rasterizer, page int) (*models.PageResult, error) {
	result := &models.PageResult{
		OCRResults: []models.OCRLine{},
		Dimensions: doc.Dimensions(page),
	}

	if e.cfg.OCR.PreferNativeText {
		if text := doc.NativeText(page); strings.TrimSpace(text) != "" {
			result.Text = text
			return result, nil
		}
	}

	img, err := doc.Rasterize(ctx, page, e.cfg.OCR.DPI)
	if err != nil {
		return nil, err
	}
	lines, err := e.recognizer.Recognize(ctx, img)
	if err != nil {
		return nil, err
	}
	if lines != nil {
		result.OCRResults = lines
	}
	result.Text = PageText(lines)
	return result, nil
}

func pageExists(dir string, page int) bool {
	_, err := os.Stat(filepath.Join(dir, store.PageFileName(page)))
	return err == nil
}
