package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"textbook-rag/internal/ocr"
)

var (
	ocrPDF   string
	ocrBook  string
	ocrStart int
	ocrEnd   int
)

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Recognise the pages of a scanned textbook PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := loadBook(ocrBook)
		if err != nil {
			return err
		}

		pdfPath := ocrPDF
		if _, err := os.Stat(pdfPath); err != nil && !filepath.IsAbs(pdfPath) {
			pdfPath = filepath.Join(cfg.RawDir(), ocrPDF)
		}

		tess := ocr.NewTesseract(cfg.OCR.TesseractPath, cfg.OCR.Language, cfg.OCR.DPI)
		summary, err := ocr.NewExtractor(cfg, tess).ExtractTextbook(cmd.Context(), pdfPath, book, ocrStart, ocrEnd)
		if err != nil {
			return err
		}

		fmt.Printf("OCR finished: %d pages in %s\n", summary.TotalPagesProcessed, summary.OutputDir)
		return nil
	},
}

func init() {
	ocrCmd.Flags().StringVar(&ocrPDF, "pdf", "", "Textbook PDF, absolute or relative to the raw data directory")
	ocrCmd.Flags().StringVar(&ocrBook, "book", "", "YAML file with the textbook metadata")
	ocrCmd.Flags().IntVar(&ocrStart, "start", 0, "First page, 0-based")
	ocrCmd.Flags().IntVar(&ocrEnd, "end", 0, "Page to stop before, 0 for the last page")
	_ = ocrCmd.MarkFlagRequired("pdf")
	_ = ocrCmd.MarkFlagRequired("book")
	rootCmd.AddCommand(ocrCmd)
}
