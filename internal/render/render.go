// Package render formats answers for the terminal, for machines and for the browser.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"textbook-rag/internal/models"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatHTML = "html"
)

var rule = strings.Repeat("=", 60)

// Render dispatches on format.
func Render(format string, result *models.AnswerResult) (string, error) {
	switch format {
	case "", FormatText:
		return Text(result), nil
	case FormatJSON:
		return JSON(result)
	case FormatHTML:
		return HTML(result)
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

// SourceLine is how one citation is shown to a reader.
func SourceLine(s models.Source) string {
	return fmt.Sprintf("%s, page %s (relevance: %.2f)", s.Textbook, s.Page, s.Relevance)
}

func Text(result *models.AnswerResult) string {
	var sb strings.Builder
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", result.Query)
	fmt.Fprintf(&sb, "Answer:\n%s\n\n", result.Answer)
	sb.WriteString("Sources:\n")
	for i, s := range result.Sources {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, SourceLine(s))
	}
	sb.WriteString(rule + "\n")
	return sb.String()
}

func JSON(result *models.AnswerResult) (string, error) {
	out, err := sonic.ConfigDefault.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Markdown is the answer followed by a numbered source list.
func Markdown(result *models.AnswerResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", result.Query)
	sb.WriteString(strings.TrimSpace(result.Answer))
	sb.WriteString("\n\n### Sources\n\n")
	for i, s := range result.Sources {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, SourceLine(s))
	}
	return sb.String()
}

// HTML renders Markdown(result) with GitHub flavoured markdown. Raw HTML in the answer is dropped.
func HTML(result *models.AnswerResult) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(result)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
