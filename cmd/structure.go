package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"textbook-rag/internal/helper"
	"textbook-rag/internal/models"
	"textbook-rag/internal/parser"
	"textbook-rag/internal/store"
)

var (
	structureBook   string
	structureOCRDir string
	structureDryRun bool
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Split recognised pages into tasks and paragraphs",
	RunE: func(cmd *cobra.Command, args []string) error {
		var book models.TextbookMetadata
		switch {
		case structureBook != "":
			var err error
			if book, err = loadBook(structureBook); err != nil {
				return err
			}
		case structureOCRDir != "":
			// the OCR run summary carries the metadata
			summary, err := store.ReadSummary(structureOCRDir)
			if err != nil {
				return fmt.Errorf("reading OCR summary (or pass --book): %w", err)
			}
			book = summary.Metadata
		default:
			return fmt.Errorf("either --book or --ocr-dir is required")
		}

		ocrDir := structureOCRDir
		if ocrDir == "" {
			ocrDir = filepath.Join(cfg.OCRDir(), models.OCRDirName(models.ParseSubject(book.Subject), book.Grade))
		}

		outputDir := cfg.StructuredDir()
		if structureDryRun {
			outputDir = ""
		}
		collection, path, err := parser.StructureTextbook(ocrDir, book, outputDir)
		if err != nil {
			return err
		}

		if structureDryRun {
			helper.PrettyPrint(collection)
			return nil
		}
		fmt.Printf("Created %d chunks in %s\n", collection.TotalChunks, path)
		return nil
	},
}

func init() {
	structureCmd.Flags().StringVar(&structureBook, "book", "", "YAML file with the textbook metadata")
	structureCmd.Flags().StringVar(&structureOCRDir, "ocr-dir", "", "Directory with page files (default: derived from subject and grade)")
	structureCmd.Flags().BoolVar(&structureDryRun, "dry-run", false, "Print the chunks instead of saving them")
	rootCmd.AddCommand(structureCmd)
}
