package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"textbook-rag/internal/models"
)

var (
	taskMarkerRe = regexp.MustCompile(models.TaskMarkerRegex)
	formulaRe    = regexp.MustCompile(models.FormulaRegex)
)

// MathParser cuts a page into numbered tasks.
type MathParser struct{}

func (MathParser) Segment(pageText string, page int) []models.ChunkDraft {
	var chunks []models.ChunkDraft
	for _, task := range ExtractTasks(pageText) {
		chunks = append(chunks, models.ChunkDraft{
			TempID: fmt.Sprintf("math_temp_%d_%d", page, task.Number),
			Metadata: models.ChunkMetadata{
				Page:        page,
				TaskNumber:  task.Number,
				ContentType: models.ContentTypeTask,
			},
			Content: models.ChunkContent{
				Text:     task.Text,
				Formulas: ExtractFormulas(task.Text),
			},
		})
	}
	return chunks
}

type Task struct {
	Number int
	Text   string
}

// ExtractTasks finds "N. body" items. A marker is an integer followed by a dot and
// whitespace, at the start of the text or after whitespace, so "1.5" and "2+2." never
// start a task. The body runs to the next marker or the end of the text.
// False positives: sentence-final numbers such as "в 1999. Году". Empty bodies are dropped.
func ExtractTasks(text string) []Task {
	markers := taskMarkerRe.FindAllStringSubmatchIndex(text, -1)
	var tasks []Task
	for i, m := range markers {
		bodyEnd := len(text)
		if i+1 < len(markers) {
			bodyEnd = markers[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:bodyEnd])
		if body == "" {
			continue
		}
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			log.Debug().Err(err).Str("marker", text[m[2]:m[3]]).Msg("Skipping task with unparsable number")
			continue
		}
		tasks = append(tasks, Task{Number: n, Text: body})
	}
	return tasks
}

// ExtractFormulas returns "lhs = rhs" runs built from letters, digits, + - * / ( ) and
// spaces. It is a shape match, not a parser: leading words before an equation are
// included and chained equalities come back as one match.
func ExtractFormulas(text string) []string {
	var formulas []string
	for _, f := range formulaRe.FindAllString(text, -1) {
		if f = strings.TrimSpace(f); f != "" {
			formulas = append(formulas, f)
		}
	}
	return formulas
}
