package contest

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
)

// UnknownTitle is used when a record carries no usable title.
const UnknownTitle = "(unknown)"

// ErrMalformedRecord marks a question record that has no resolvable problem slug.
var ErrMalformedRecord = errors.New("malformed question record")

// Field-name synonyms accepted by ParseQuestion, in priority order.
var (
	titleKeys = []string{"title", "question__title", "translated_title"}
	slugKeys  = []string{"title_slug", "question__title_slug", "titleSlug"}
	idKeys    = []string{"question_id", "id"}
)

// Question is one problem entry of a contest.
type Question struct {
	Title      string `json:"title"`
	TitleSlug  string `json:"title_slug"`
	QuestionID string `json:"question_id,omitempty"`
	Credit     int    `json:"credit,omitempty"`
}

// ParseQuestion converts one raw record of the contest info response. Each field
// takes the first non-empty value among its synonyms.
func ParseQuestion(record map[string]any) (Question, error) {
	slug := firstString(record, slugKeys...)
	if slug == "" {
		return Question{}, fmt.Errorf("%w: none of %v present", ErrMalformedRecord, slugKeys)
	}

	title := firstString(record, titleKeys...)
	if title == "" {
		title = UnknownTitle
	}

	q := Question{
		Title:      title,
		TitleSlug:  slug,
		QuestionID: firstString(record, idKeys...),
	}
	if credit, ok := record["credit"].(float64); ok {
		q.Credit = int(credit)
	}

	return q, nil
}

// ParseQuestions decodes a contest info body and returns its well-formed questions
// in response order along with the number of dropped records. A missing or
// non-array "questions" field yields an empty list.
func ParseQuestions(body []byte) ([]Question, int, error) {
	var payload map[string]any
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("decode contest info: %w", err)
	}

	raw, ok := payload["questions"].([]any)
	if !ok {
		return []Question{}, 0, nil
	}

	questions := make([]Question, 0, len(raw))
	dropped := 0
	for _, item := range raw {
		record, ok := item.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		q, err := ParseQuestion(record)
		if err != nil {
			dropped++
			continue
		}
		questions = append(questions, q)
	}

	return questions, dropped, nil
}

// firstString returns the first key whose value is a non-empty string or a number.
func firstString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := record[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}
