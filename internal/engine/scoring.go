package engine

import "github.com/prepdesk/session-backend/internal/model"

// Score computes the final marks for a finished attempt.
//
// A question counts as attempted only when it was explicitly committed
// via the save action AND still holds a selection. A selected-but-never-
// saved option is always unattempted, no matter what answers[i] holds.
func Score(t *model.Test, answers []int, saved []bool) *model.Result {
	res := &model.Result{
		TestID:       t.ID,
		TestName:     t.Name,
		Answers:      append([]int(nil), answers...),
		SavedAnswers: append([]bool(nil), saved...),
	}

	for i, q := range t.Questions {
		if i >= len(saved) || !saved[i] {
			continue
		}
		if i >= len(answers) || answers[i] == model.NoSelection {
			continue
		}

		res.Attempted++
		if q.CorrectIndex != nil && answers[i] == *q.CorrectIndex {
			res.Correct++
			res.Score += t.PositiveMark
		} else {
			res.Incorrect++
			res.Score -= t.NegativeMark
		}
	}

	res.TotalMarks = float64(len(t.Questions)) * t.PositiveMark
	res.Unattempted = len(t.Questions) - res.Attempted
	return res
}
