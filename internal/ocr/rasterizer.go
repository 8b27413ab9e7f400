// Package ocr turns scanned textbook PDFs into per-page recognition results.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"textbook-rag/internal/models"
)

// Image is one rasterised page, PNG encoded.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// Rasterizer renders pages of a document. Page indexes are 0-based.
type Rasterizer interface {
	PageCount() int
	Rasterize(ctx context.Context, page, dpi int) (Image, error)
	Dimensions(page int) models.Dimensions
	NativeText(page int) string
	Close() error
}

// PDFDocument reads page structure with ledongthuc/pdf and renders pages through poppler's pdftoppm.
type PDFDocument struct {
	path     string
	pdftoppm string
	file     *os.File
	reader   *pdf.Reader
}

func OpenPDF(path, pdftoppm string) (*PDFDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	return &PDFDocument{path: path, pdftoppm: pdftoppm, file: f, reader: reader}, nil
}

func (d *PDFDocument) PageCount() int {
	return d.reader.NumPage()
}

// Dimensions returns the page MediaBox size in points.
func (d *PDFDocument) Dimensions(page int) models.Dimensions {
	v := d.reader.Page(page + 1).V
	// MediaBox is inheritable from the page tree
	for v.Key("MediaBox").IsNull() && !v.Key("Parent").IsNull() {
		v = v.Key("Parent")
	}
	box := v.Key("MediaBox")
	if box.Len() != 4 {
		return models.Dimensions{}
	}
	return models.Dimensions{
		Width:  box.Index(2).Float64() - box.Index(0).Float64(),
		Height: box.Index(3).Float64() - box.Index(1).Float64(),
	}
}

// NativeText returns the embedded text layer of a page, empty for pure scans.
func (d *PDFDocument) NativeText(page int) (text string) {
	// the content stream decoder panics on some malformed pages
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Int("page", page).Interface("panic", r).Msg("Could not read native text")
			text = ""
		}
	}()
	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		log.Warn().Err(err).Int("page", page).Msg("Could not read native text")
		return ""
	}
	return text
}

// Rasterize renders one page to PNG at the given resolution.
func (d *PDFDocument) Rasterize(ctx context.Context, page, dpi int) (Image, error) {
	tmp, err := os.MkdirTemp("", "textbook-page-*")
	if err != nil {
		return Image{}, err
	}
	defer os.RemoveAll(tmp)

	n := strconv.Itoa(page + 1)
	prefix := filepath.Join(tmp, "page")
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.pdftoppm,
		"-f", n, "-l", n,
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		d.path, prefix,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Image{}, fmt.Errorf("pdftoppm failed on page %d: %w: %s", page, err, stderr.String())
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return Image{}, err
	}
	return DecodeImage(data)
}

func (d *PDFDocument) Close() error {
	return d.file.Close()
}

// DecodeImage wraps PNG bytes, reading the pixel size from the header.
func DecodeImage(data []byte) (Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode page image: %w", err)
	}
	return Image{Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}
