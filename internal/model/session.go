package model

// StartSessionRequest is the payload for opening a new attempt.
// Resume opts in to restoring a matching progress snapshot; the default
// is a fully blank start even when a snapshot exists.
type StartSessionRequest struct {
	TestID  string `json:"test_id" binding:"required,min=1,max=64"`
	OwnerID string `json:"owner_id" binding:"required,min=1,max=64"`
	Resume  bool   `json:"resume"`
}

// SelectOptionRequest is the payload for picking an option. The pick is
// not committed; only the save action makes it count toward scoring.
type SelectOptionRequest struct {
	QuestionIndex int `json:"question_index" binding:"min=0"`
	OptionIndex   int `json:"option_index" binding:"min=0,max=3"`
}

// GoToRequest jumps to a question by its position within the current
// section (global position for unsectioned tests).
type GoToRequest struct {
	QuestionIndex int `json:"question_index" binding:"min=0"`
}

// SelectSectionRequest switches sections. Only valid as pure navigation
// on tests without sectional timing.
type SelectSectionRequest struct {
	SectionIndex int `json:"section_index" binding:"min=0"`
}
