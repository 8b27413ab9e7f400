package ocr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"textbook-rag/internal/models"
)

// tesseract emits headers, captions and floating text as line-level elements too
const lineSelector = ".ocr_line, .ocr_header, .ocr_caption, .ocr_textfloat"

// ParseHOCR extracts recognised lines from a tesseract hOCR document.
// Bounding boxes are expanded to four corners, confidence is the mean word x_wconf scaled to [0,1].
func ParseHOCR(data []byte) ([]models.OCRLine, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.OCRLine{}, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hocr: %w", err)
	}

	lines := []models.OCRLine{}
	doc.Find(".ocr_par").Each(func(par int, p *goquery.Selection) {
		p.Find(lineSelector).Each(func(_ int, l *goquery.Selection) {
			if line, ok := parseLine(l); ok {
				line.Paragraph = par
				lines = append(lines, line)
			}
		})
	})
	return lines, nil
}

func parseLine(l *goquery.Selection) (models.OCRLine, bool) {
	var words []string
	var confSum float64
	var confN int
	l.Find(".ocrx_word").Each(func(_ int, w *goquery.Selection) {
		text := strings.TrimSpace(w.Text())
		if text == "" {
			return
		}
		words = append(words, text)
		if title, ok := w.Attr("title"); ok {
			if conf, ok := titleConfidence(title); ok {
				confSum += conf
				confN++
			}
		}
	})
	if len(words) == 0 {
		return models.OCRLine{}, false
	}

	line := models.OCRLine{Text: strings.Join(words, " ")}
	if confN > 0 {
		line.Confidence = confSum / float64(confN) / 100
	}
	if title, ok := l.Attr("title"); ok {
		if box, ok := titleBBox(title); ok {
			line.BBox = [4][2]float64{
				{box[0], box[1]},
				{box[2], box[1]},
				{box[2], box[3]},
				{box[0], box[3]},
			}
		}
	}
	return line, true
}

// titleProperty returns the fields of one "name v1 v2 ..." entry of an hOCR title attribute.
func titleProperty(title, name string) []string {
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(prop)
		if len(fields) > 0 && fields[0] == name {
			return fields[1:]
		}
	}
	return nil
}

func titleBBox(title string) ([4]float64, bool) {
	var box [4]float64
	fields := titleProperty(title, "bbox")
	if len(fields) != 4 {
		return box, false
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return box, false
		}
		box[i] = v
	}
	return box, true
}

func titleConfidence(title string) (float64, bool) {
	fields := titleProperty(title, "x_wconf")
	if len(fields) != 1 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	return v, err == nil
}

// PageText joins lines with newlines and separates hOCR paragraphs with a blank line.
func PageText(lines []models.OCRLine) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteString("\n")
			if l.Paragraph != lines[i-1].Paragraph {
				sb.WriteString("\n")
			}
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}
