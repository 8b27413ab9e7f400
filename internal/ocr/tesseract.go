package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"textbook-rag/internal/models"
)

// Recognizer turns a page image into recognised lines. No text is an empty list, not an error.
type Recognizer interface {
	Recognize(ctx context.Context, img Image) ([]models.OCRLine, error)
}

// Tesseract runs the tesseract CLI in hOCR mode.
type Tesseract struct {
	Path     string
	Language string
	DPI      int
}

func NewTesseract(path, language string, dpi int) *Tesseract {
	return &Tesseract{Path: path, Language: language, DPI: dpi}
}

func (t *Tesseract) args() []string {
	return []string{"stdin", "stdout", "-l", t.Language, "--dpi", strconv.Itoa(t.DPI), "hocr"}
}

func (t *Tesseract) Recognize(ctx context.Context, img Image) ([]models.OCRLine, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, t.args()...)
	cmd.Stdin = bytes.NewReader(img.Data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract failed: %w: %s", err, stderr.String())
	}
	return ParseHOCR(stdout.Bytes())
}
