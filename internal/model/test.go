package model

import "encoding/json"

// NoSelection is the sentinel for "no option picked" in an answers array.
const NoSelection = -1

// Test is an immutable test definition fetched from the content API.
// Once a session is running the definition is never mutated.
type Test struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	TimeLimit       int        `json:"timeLimit"` // whole-test minutes, ignored when SectionalTiming
	PositiveMark    float64    `json:"positiveMark"`
	NegativeMark    float64    `json:"negativeMark"`
	HasSections     bool       `json:"hasSections"`
	SectionalTiming bool       `json:"sectionalTiming"`
	Sections        []Section  `json:"sections,omitempty"`
	Questions       []Question `json:"questions"`
}

// Section is a named, ordered subset of a test's questions,
// optionally time-boxed on its own when the test uses sectional timing.
type Section struct {
	Name            string `json:"name"`
	NumQuestions    int    `json:"numQuestions"`
	SectionalTiming bool   `json:"sectionalTiming"`
	TimeLimit       int    `json:"timeLimit"` // minutes
}

// Question is a single multiple-choice question. CorrectIndex is
// normalized at ingestion from whichever alias the source record used.
type Question struct {
	Text         string          `json:"question"`
	Options      []string        `json:"options"`
	CorrectIndex *int            `json:"correctAnswer,omitempty"`
	Explanation  string          `json:"explanation,omitempty"`
	ImageData    string          `json:"imageData,omitempty"`
	ImageWidth   int             `json:"imageWidth,omitempty"`
	ImageHeight  int             `json:"imageHeight,omitempty"`
	TableData    json.RawMessage `json:"tableData,omitempty"`
	SectionIndex *int            `json:"sectionIndex,omitempty"`
}

// UnmarshalJSON normalizes the correct-answer field. Source records name
// it "correctAnswer", "answer" or "correct" interchangeably; the first
// present wins and everything downstream only ever sees CorrectIndex.
func (q *Question) UnmarshalJSON(data []byte) error {
	type alias Question
	aux := struct {
		*alias
		CorrectAnswer *int `json:"correctAnswer"`
		Answer        *int `json:"answer"`
		Correct       *int `json:"correct"`
	}{alias: (*alias)(q)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case aux.CorrectAnswer != nil:
		q.CorrectIndex = aux.CorrectAnswer
	case aux.Answer != nil:
		q.CorrectIndex = aux.Answer
	case aux.Correct != nil:
		q.CorrectIndex = aux.Correct
	}
	return nil
}

// StripMedia returns a deep-enough copy of the test with large media
// removed from every question. The review screen stores this copy, so it
// has to fit comfortably in cache storage limits.
func (t *Test) StripMedia() *Test {
	stripped := *t
	stripped.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		q.ImageData = ""
		q.ImageWidth = 0
		q.ImageHeight = 0
		q.TableData = nil
		stripped.Questions[i] = q
	}
	return &stripped
}

// QuestionView is a question as rendered to the taker mid-session:
// no correct answer, no explanation.
type QuestionView struct {
	GlobalIndex  int             `json:"global_index"`
	Text         string          `json:"question"`
	Options      []string        `json:"options"`
	ImageData    string          `json:"image_data,omitempty"`
	ImageWidth   int             `json:"image_width,omitempty"`
	ImageHeight  int             `json:"image_height,omitempty"`
	TableData    json.RawMessage `json:"table_data,omitempty"`
	SectionIndex *int            `json:"section_index,omitempty"`
}

// ViewOf builds the taker-safe rendering of question i.
func (t *Test) ViewOf(i int) QuestionView {
	q := t.Questions[i]
	return QuestionView{
		GlobalIndex:  i,
		Text:         q.Text,
		Options:      q.Options,
		ImageData:    q.ImageData,
		ImageWidth:   q.ImageWidth,
		ImageHeight:  q.ImageHeight,
		TableData:    q.TableData,
		SectionIndex: q.SectionIndex,
	}
}
