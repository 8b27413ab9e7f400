package models

const (
	// numbered task marker: "12. " at the start of the text or after whitespace
	TaskMarkerRegex = `(?:^|\s)(\d+)\.\s+`
	FormulaRegex    = `(?i)[a-zа-яё0-9 \t+\-*/()]+[ \t]*=[ \t]*[a-zа-яё0-9 \t+\-*/()]+`
	ParagraphRegex  = `\n[ \t\r]*\n`
	DateRegex       = `\b(\d{1,4}(?:\s*[-–—]\s*\d{1,4})?\s*гг?\.?)(?:[^\p{L}\p{N}]|$)`
	NameRegex       = `(?:^|[^\p{L}\p{N}])([А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+)`
	ChapterRegex    = `(?im)^\s*(?:глава|chapter)\s+(\d+)\b`
	ThinkTag        = `(?s)<think>.*?</think>`

	ContentTypeTask = "task"
	ContentTypeText = "text"

	UnknownTextbook = "Unknown"
	UnknownPage     = "?"

	GenerationErrorTemplate = "Error generating answer: %v"
)

var (
	SourceBlockTemplate = `[Source %d]
Textbook: %s
Page: %s
Content:
%s
`

	// grade, subject, context, query, grade
	AnswerPromptTemplate = `You are a tutor for a grade %d student studying "%s".

TEXTBOOK CONTEXT:
%s

STUDENT QUESTION:
%s

ANSWER RULES:
1. Use ONLY the information from the provided context
2. Explain at a level suitable for grade %d
3. Give examples from the textbook context when there are any
4. If the context does not contain the answer, say so honestly
5. Cite the source (textbook page)
6. Explain step by step

ANSWER:`
)
