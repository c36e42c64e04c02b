package model

import "time"

// Snapshot is the durable, resumable copy of in-progress session state.
// It is overwritten wholesale after every committing action (save, clear,
// mark) — last writer wins, there is only ever one writer per attempt.
type Snapshot struct {
	TestID           string    `json:"test_id"`
	Answers          []int     `json:"answers"`
	SavedAnswers     []bool    `json:"saved_answers"`
	Marked           []bool    `json:"marked"`
	CurrentQuestion  int       `json:"current_question"`
	CurrentSection   int       `json:"current_section"`
	TimeLeft         int       `json:"time_left"`
	SectionTimeLeft  []int     `json:"section_time_left,omitempty"`
	SectionCompleted []bool    `json:"section_completed,omitempty"`
	SavedAt          time.Time `json:"saved_at"`
}
