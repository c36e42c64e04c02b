package engine

import "github.com/prepdesk/session-backend/internal/model"

// PaletteEntry is one cell of the question palette for the active scope.
type PaletteEntry struct {
	GlobalIndex int  `json:"global_index"`
	Selected    bool `json:"selected"`
	Saved       bool `json:"saved"`
	Marked      bool `json:"marked"`
	Viewed      bool `json:"viewed"`
	Current     bool `json:"current"`
}

// SectionView summarizes one section for the section tab bar.
type SectionView struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	TimeLeft  int    `json:"time_left,omitempty"` // sectional timing only
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
}

// View is the full render state of a session: everything the display
// layer needs and nothing it must not see (no correct answers).
type View struct {
	TestID          string             `json:"test_id"`
	TestName        string             `json:"test_name"`
	Phase           string             `json:"phase"`
	Mode            string             `json:"mode"`
	CurrentSection  int                `json:"current_section"`
	CurrentQuestion int                `json:"current_question"` // local position
	TimeLeft        int                `json:"time_left"`        // active countdown, seconds
	Question        model.QuestionView `json:"question"`
	SelectedOption  int                `json:"selected_option"` // -1 when none
	Saved           bool               `json:"saved"`
	Marked          bool               `json:"marked"`
	Palette         []PaletteEntry     `json:"palette"`
	Sections        []SectionView      `json:"sections,omitempty"`
}

// View renders the current state for the display layer.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := 0
	if s.scopeLenLocked() > 0 {
		g = s.currentGlobalLocked()
	}
	v := View{
		TestID:          s.test.ID,
		TestName:        s.test.Name,
		Phase:           s.phase.String(),
		Mode:            s.mode.String(),
		CurrentSection:  s.currentSection,
		CurrentQuestion: s.currentQuestion,
		TimeLeft:        s.activeTimeLeftLocked(),
		Question:        s.test.ViewOf(g),
		SelectedOption:  s.answers[g],
		Saved:           s.savedAnswers[g],
		Marked:          s.marked[g],
	}

	scope := s.scopeLenLocked()
	v.Palette = make([]PaletteEntry, scope)
	for local := 0; local < scope; local++ {
		gi := s.globalIndexLocked(local)
		v.Palette[local] = PaletteEntry{
			GlobalIndex: gi,
			Selected:    s.answers[gi] != model.NoSelection,
			Saved:       s.savedAnswers[gi],
			Marked:      s.marked[gi],
			Viewed:      s.viewed[gi],
			Current:     local == s.currentQuestion,
		}
	}

	if s.test.HasSections {
		v.Sections = make([]SectionView, len(s.test.Sections))
		for i, sec := range s.test.Sections {
			sv := SectionView{
				Index:     i,
				Name:      sec.Name,
				Completed: s.sectionCompleted[i],
				Current:   i == s.currentSection,
			}
			if s.mode == PerSection {
				sv.TimeLeft = s.sectionTimeLeft[i]
			}
			v.Sections[i] = sv
		}
	}
	return v
}
