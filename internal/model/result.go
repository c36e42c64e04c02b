package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the write-once outcome of a submitted session.
type Result struct {
	ID           uuid.UUID  `json:"id"`
	TestID       string     `json:"test_id"`
	TestName     string     `json:"test_name"`
	OwnerID      string     `json:"owner_id"`
	Score        float64    `json:"score"`
	TotalMarks   float64    `json:"total_marks"`
	Attempted    int        `json:"attempted"`
	Correct      int        `json:"correct"`
	Incorrect    int        `json:"incorrect"`
	Unattempted  int        `json:"unattempted"`
	TimeTaken    int        `json:"time_taken"` // seconds
	Answers      []int      `json:"answers"`
	SavedAnswers []bool     `json:"saved_answers"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	SyncedAt     *time.Time `json:"synced_at,omitempty"`
}
