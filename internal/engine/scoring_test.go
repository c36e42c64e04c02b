package engine

import (
	"testing"

	"github.com/prepdesk/session-backend/internal/model"
)

func TestScore(t *testing.T) {
	test := &model.Test{
		ID:           "t1",
		Name:         "Scoring",
		PositiveMark: 4,
		NegativeMark: 1,
		Questions: []model.Question{
			{Options: []string{"A", "B"}, CorrectIndex: intp(0)},
			{Options: []string{"A", "B"}, CorrectIndex: intp(1)},
			{Options: []string{"A", "B"}, CorrectIndex: intp(0)},
			{Options: []string{"A", "B"}}, // no answer key on record
		},
	}

	cases := []struct {
		name        string
		answers     []int
		saved       []bool
		score       float64
		attempted   int
		correct     int
		incorrect   int
		unattempted int
	}{
		{
			name:        "all blank",
			answers:     []int{-1, -1, -1, -1},
			saved:       []bool{false, false, false, false},
			score:       0,
			unattempted: 4,
		},
		{
			name:        "saved answers count, selections alone do not",
			answers:     []int{0, 1, 0, -1},
			saved:       []bool{true, false, false, false},
			score:       4,
			attempted:   1,
			correct:     1,
			unattempted: 3,
		},
		{
			name:        "wrong saved answer costs the penalty",
			answers:     []int{1, -1, -1, -1},
			saved:       []bool{true, false, false, false},
			score:       -1,
			attempted:   1,
			incorrect:   1,
			unattempted: 3,
		},
		{
			name:        "mixed full attempt",
			answers:     []int{0, 1, 1, -1},
			saved:       []bool{true, true, true, false},
			score:       7, // +4 +4 -1
			attempted:   3,
			correct:     2,
			incorrect:   1,
			unattempted: 1,
		},
		{
			name:        "saved flag without a live selection stays unattempted",
			answers:     []int{-1, -1, -1, -1},
			saved:       []bool{true, false, false, false},
			score:       0,
			unattempted: 4,
		},
		{
			name:        "question without answer key grades as incorrect when attempted",
			answers:     []int{-1, -1, -1, 0},
			saved:       []bool{false, false, false, true},
			score:       -1,
			attempted:   1,
			incorrect:   1,
			unattempted: 3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(test, tc.answers, tc.saved)

			if res.Score != tc.score {
				t.Errorf("Score = %v, want %v", res.Score, tc.score)
			}
			if res.Attempted != tc.attempted {
				t.Errorf("Attempted = %d, want %d", res.Attempted, tc.attempted)
			}
			if res.Correct != tc.correct {
				t.Errorf("Correct = %d, want %d", res.Correct, tc.correct)
			}
			if res.Incorrect != tc.incorrect {
				t.Errorf("Incorrect = %d, want %d", res.Incorrect, tc.incorrect)
			}
			if res.Unattempted != tc.unattempted {
				t.Errorf("Unattempted = %d, want %d", res.Unattempted, tc.unattempted)
			}
			if res.TotalMarks != 16 {
				t.Errorf("TotalMarks = %v, want 16", res.TotalMarks)
			}
		})
	}
}

func TestScoreCopiesAnswerArrays(t *testing.T) {
	test := &model.Test{
		ID:           "t2",
		PositiveMark: 1,
		Questions:    []model.Question{{Options: []string{"A", "B"}, CorrectIndex: intp(0)}},
	}
	answers := []int{0}
	saved := []bool{true}

	res := Score(test, answers, saved)
	answers[0] = 1
	saved[0] = false

	if res.Answers[0] != 0 || !res.SavedAnswers[0] {
		t.Error("result shares backing arrays with the live session")
	}
}
