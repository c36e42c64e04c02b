package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepdesk/session-backend/internal/model"
)

// TimingMode selects which countdown topology drives a session.
type TimingMode int

const (
	// WholeTest runs a single countdown over the entire test. Section
	// switching, if the test has sections at all, is pure navigation.
	WholeTest TimingMode = iota
	// PerSection gives every section its own countdown and locks a
	// section forever once it completes.
	PerSection
)

func (m TimingMode) String() string {
	if m == PerSection {
		return "per_section"
	}
	return "whole_test"
}

// Phase is the lifecycle state of a session.
type Phase int

const (
	PhaseActive Phase = iota
	PhaseSubmitting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitting:
		return "submitting"
	case PhaseDone:
		return "done"
	default:
		return "active"
	}
}

// ProgressStore is the durable snapshot capability injected into a
// session. Load returns (nil, nil) when no snapshot exists. All calls
// are best-effort from the session's point of view: failures are logged
// and the attempt continues.
type ProgressStore interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, snap *model.Snapshot) error
	Clear(ctx context.Context) error
}

// Session is one attempt at one test: the full exam state machine.
// All mutations are serialized through a single mutex, mirroring the
// one-event-at-a-time execution model the engine was designed around.
// Timer ticks arrive through Tick, user actions through the exported
// operations; a handler always runs to completion before the next.
type Session struct {
	mu sync.Mutex

	test  *model.Test
	owner string
	mode  TimingMode

	phase  Phase
	result *model.Result

	answers      []int
	savedAnswers []bool
	marked       []bool
	viewed       []bool

	// currentQuestion indexes into the current section's question list
	// (global when the test is unsectioned).
	currentQuestion int
	currentSection  int

	// sectionQuestionIndexes maps local positions of the current section
	// to global question indexes. Recomputed on every section change.
	sectionQuestionIndexes []int

	timeLeft         int   // seconds, WholeTest mode
	sectionTimeLeft  []int // seconds per section, PerSection mode
	sectionCompleted []bool

	startedAt time.Time

	store ProgressStore
	log   zerolog.Logger
	subs  []chan Event
}

// NewSession validates the test, allocates blank state and, when resume
// is set and a snapshot for the same test exists, restores it. A stale
// snapshot tagged with a different test id is cleared unconditionally.
func NewSession(ctx context.Context, owner string, test *model.Test, store ProgressStore, log zerolog.Logger, resume bool) (*Session, error) {
	if test == nil || len(test.Questions) == 0 {
		return nil, ErrInvalidTest
	}
	// A sectioned test with no section list would leave every section
	// slice empty and the timer with nothing to count down.
	if test.HasSections && len(test.Sections) == 0 {
		return nil, ErrInvalidTest
	}

	n := len(test.Questions)
	s := &Session{
		test:         test,
		owner:        owner,
		phase:        PhaseActive,
		answers:      make([]int, n),
		savedAnswers: make([]bool, n),
		marked:       make([]bool, n),
		viewed:       make([]bool, n),
		startedAt:    time.Now(),
		store:        store,
		log:          log.With().Str("component", "session").Str("test_id", test.ID).Logger(),
	}
	for i := range s.answers {
		s.answers[i] = model.NoSelection
	}

	if test.HasSections && test.SectionalTiming {
		s.mode = PerSection
	}

	if test.HasSections {
		s.sectionCompleted = make([]bool, len(test.Sections))
		s.recomputeSectionIndexesLocked()
	}
	if s.mode == PerSection {
		s.sectionTimeLeft = make([]int, len(test.Sections))
		for i, sec := range test.Sections {
			s.sectionTimeLeft[i] = sec.TimeLimit * 60
		}
	} else {
		s.timeLeft = test.TimeLimit * 60
	}

	if store != nil {
		snap, err := store.Load(ctx)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("Snapshot load failed, starting blank")
		case snap != nil && snap.TestID != test.ID:
			// Stale progress from a different test. Drop it.
			if err := store.Clear(ctx); err != nil {
				s.log.Warn().Err(err).Msg("Stale snapshot clear failed")
			}
		case snap != nil && resume:
			s.restoreLocked(snap)
		}
	}

	s.markViewedLocked()
	return s, nil
}

// Run drives the session timer at one tick per second until the context
// is cancelled or the session submits. Call in a goroutine.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Tick() {
				return
			}
		}
	}
}

// Tick advances the active countdown by one second. Returns true once
// the session is no longer active so the timer loop can exit. A tick
// that lands after submission is a guarded no-op.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return true
	}

	switch s.mode {
	case WholeTest:
		if s.timeLeft <= 0 {
			return false // untimed test, nothing to count down
		}
		s.timeLeft--
		s.publish(EventTick)
		if s.timeLeft == 0 {
			s.submitLocked()
			return true
		}
	case PerSection:
		sec := s.currentSection
		if s.sectionTimeLeft[sec] <= 0 {
			return false
		}
		s.sectionTimeLeft[sec]--
		s.publish(EventTick)
		if s.sectionTimeLeft[sec] == 0 {
			// Expiry and explicit section submit share one transition.
			s.completeSectionLocked()
			return s.phase != PhaseActive
		}
	}
	return false
}

// SelectOption records a picked option for a question. The pick alone
// never counts toward scoring; only SaveAndAdvance commits it.
func (s *Session) SelectOption(questionIndex, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrAlreadySubmitted
	}
	if questionIndex < 0 || questionIndex >= len(s.test.Questions) {
		return ErrInvalidQuestion
	}
	if optionIndex < 0 || optionIndex >= len(s.test.Questions[questionIndex].Options) {
		return ErrInvalidOption
	}
	if !s.interactableLocked(questionIndex) {
		return ErrSectionLocked
	}

	s.answers[questionIndex] = optionIndex
	s.publish(EventState)
	return nil
}

// SaveAndAdvance commits the current question's selection and moves one
// question forward within the active scope (no-op at the last question).
// Saving with nothing selected is a recoverable validation error.
func (s *Session) SaveAndAdvance(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrAlreadySubmitted
	}

	if s.scopeLenLocked() == 0 {
		return ErrInvalidQuestion
	}
	g := s.currentGlobalLocked()
	if s.answers[g] == model.NoSelection {
		return ErrNoSelection
	}

	s.savedAnswers[g] = true
	s.persistLocked(ctx)

	if s.currentQuestion+1 < s.scopeLenLocked() {
		s.currentQuestion++
		s.markViewedLocked()
	}
	s.publish(EventState)
	return nil
}

// ClearAnswer resets both the selection and the committed flag of the
// currently displayed question, whatever their prior state.
func (s *Session) ClearAnswer(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrAlreadySubmitted
	}

	if s.scopeLenLocked() == 0 {
		return ErrInvalidQuestion
	}
	g := s.currentGlobalLocked()
	s.answers[g] = model.NoSelection
	s.savedAnswers[g] = false
	s.persistLocked(ctx)
	s.publish(EventState)
	return nil
}

// ToggleMark flips the review flag on the current question. Marking is a
// navigation aid only; it never touches answers or scoring.
func (s *Session) ToggleMark(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrAlreadySubmitted
	}

	if s.scopeLenLocked() == 0 {
		return ErrInvalidQuestion
	}
	g := s.currentGlobalLocked()
	s.marked[g] = !s.marked[g]
	s.persistLocked(ctx)
	s.publish(EventState)
	return nil
}

// GoTo jumps to a question by local position (question palette).
// Out-of-range requests are ignored.
func (s *Session) GoTo(localIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrAlreadySubmitted
	}
	if localIndex < 0 || localIndex >= s.scopeLenLocked() {
		return nil
	}

	s.currentQuestion = localIndex
	s.markViewedLocked()
	s.publish(EventState)
	return nil
}

// NavigateNext moves one question forward, clamped to the scope end.
func (s *Session) NavigateNext() error {
	return s.navigate(1)
}

// NavigatePrev moves one question back, clamped to the scope start.
func (s *Session) NavigatePrev() error {
	return s.navigate(-1)
}

func (s *Session) navigate(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrAlreadySubmitted
	}

	next := s.currentQuestion + delta
	if next < 0 || next >= s.scopeLenLocked() {
		return nil // no wraparound
	}
	s.currentQuestion = next
	s.markViewedLocked()
	s.publish(EventState)
	return nil
}

// SelectSection switches the visible section on tests whose sections are
// not individually timed. With sectional timing this is forbidden: the
// only way forward is SubmitSection, and there is no way back.
func (s *Session) SelectSection(sectionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrAlreadySubmitted
	}
	if !s.test.HasSections {
		return ErrNoSections
	}
	if s.mode == PerSection {
		return ErrSectionLocked
	}
	if sectionIndex < 0 || sectionIndex >= len(s.test.Sections) {
		return nil
	}

	s.currentSection = sectionIndex
	s.currentQuestion = 0
	s.recomputeSectionIndexesLocked()
	s.markViewedLocked()
	s.publish(EventState)
	return nil
}

// SubmitSection completes the current section: stops its countdown and
// opens the next section, or submits the whole test when the current
// section is the last. Only meaningful under sectional timing.
func (s *Session) SubmitSection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrAlreadySubmitted
	}
	if s.mode != PerSection {
		return ErrNotSectional
	}

	s.completeSectionLocked()
	return nil
}

// Submit finishes the session and computes the Result. Safe against the
// manual-click / timer-expiry race: whichever fires first wins and the
// second trigger gets ErrAlreadySubmitted.
func (s *Session) Submit() (*model.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return nil, ErrAlreadySubmitted
	}
	return s.submitLocked(), nil
}

// Result returns the computed result once the session is done.
func (s *Session) Result() (*model.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.phase == PhaseDone
}

// Test exposes the immutable test definition.
func (s *Session) Test() *model.Test { return s.test }

// Mode exposes the timing mode the session runs under.
func (s *Session) Mode() TimingMode { return s.mode }

// ─── internals (caller holds s.mu) ──────────────────────────────────

func (s *Session) submitLocked() *model.Result {
	s.phase = PhaseSubmitting

	res := Score(s.test, s.answers, s.savedAnswers)
	res.ID = uuid.New()
	res.OwnerID = s.owner
	res.TimeTaken = s.timeTakenLocked()
	res.SubmittedAt = time.Now()

	s.result = res
	s.phase = PhaseDone
	s.publish(EventSubmitted)

	// The attempt is over; its resumable progress is no longer needed.
	if s.store != nil {
		if err := s.store.Clear(context.Background()); err != nil {
			s.log.Warn().Err(err).Msg("Snapshot clear on submit failed")
		}
	}
	return res
}

// completeSectionLocked is the single shared transition for both
// section-timer expiry and explicit section submission.
func (s *Session) completeSectionLocked() {
	s.sectionCompleted[s.currentSection] = true

	if s.currentSection+1 < len(s.test.Sections) {
		s.currentSection++
		s.currentQuestion = 0
		s.recomputeSectionIndexesLocked()
		s.markViewedLocked()
		s.publish(EventSection)
		return
	}
	s.submitLocked()
}

func (s *Session) recomputeSectionIndexesLocked() {
	s.sectionQuestionIndexes = s.sectionQuestionIndexes[:0]
	for i, q := range s.test.Questions {
		if q.SectionIndex != nil && *q.SectionIndex == s.currentSection {
			s.sectionQuestionIndexes = append(s.sectionQuestionIndexes, i)
		}
	}
}

// scopeLenLocked is the number of questions reachable from the current
// position: the section's size when sectioned, the whole test otherwise.
func (s *Session) scopeLenLocked() int {
	if s.test.HasSections {
		return len(s.sectionQuestionIndexes)
	}
	return len(s.test.Questions)
}

func (s *Session) globalIndexLocked(local int) int {
	if s.test.HasSections {
		return s.sectionQuestionIndexes[local]
	}
	return local
}

func (s *Session) currentGlobalLocked() int {
	return s.globalIndexLocked(s.currentQuestion)
}

// interactableLocked reports whether question g may be answered right
// now. Under sectional timing only the open section is writable.
func (s *Session) interactableLocked(g int) bool {
	if s.mode != PerSection {
		return true
	}
	q := s.test.Questions[g]
	return q.SectionIndex != nil && *q.SectionIndex == s.currentSection
}

func (s *Session) markViewedLocked() {
	if s.scopeLenLocked() == 0 {
		return
	}
	s.viewed[s.currentGlobalLocked()] = true
}

func (s *Session) activeTimeLeftLocked() int {
	if s.mode == PerSection {
		return s.sectionTimeLeft[s.currentSection]
	}
	return s.timeLeft
}

func (s *Session) timeTakenLocked() int {
	switch s.mode {
	case PerSection:
		taken := 0
		for i, sec := range s.test.Sections {
			taken += sec.TimeLimit*60 - s.sectionTimeLeft[i]
		}
		return taken
	default:
		if s.test.TimeLimit > 0 {
			return s.test.TimeLimit*60 - s.timeLeft
		}
		return int(time.Since(s.startedAt).Seconds())
	}
}

// persistLocked writes the progress snapshot. Failures only cost the
// ability to resume after a crash, so they are logged and swallowed.
func (s *Session) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	snap := &model.Snapshot{
		TestID:           s.test.ID,
		Answers:          append([]int(nil), s.answers...),
		SavedAnswers:     append([]bool(nil), s.savedAnswers...),
		Marked:           append([]bool(nil), s.marked...),
		CurrentQuestion:  s.currentQuestion,
		CurrentSection:   s.currentSection,
		TimeLeft:         s.timeLeft,
		SectionTimeLeft:  append([]int(nil), s.sectionTimeLeft...),
		SectionCompleted: append([]bool(nil), s.sectionCompleted...),
		SavedAt:          time.Now(),
	}
	if err := s.store.Save(ctx, snap); err != nil {
		s.log.Warn().Err(err).Msg("Snapshot save failed")
	}
}

// restoreLocked applies a snapshot from the same test. Array lengths are
// clamped so a snapshot from an older revision of the test can never
// corrupt state.
func (s *Session) restoreLocked(snap *model.Snapshot) {
	copyInts := func(dst, src []int) {
		for i := 0; i < len(dst) && i < len(src); i++ {
			dst[i] = src[i]
		}
	}
	copyBools := func(dst, src []bool) {
		for i := 0; i < len(dst) && i < len(src); i++ {
			dst[i] = src[i]
		}
	}

	copyInts(s.answers, snap.Answers)
	copyBools(s.savedAnswers, snap.SavedAnswers)
	copyBools(s.marked, snap.Marked)

	if s.test.HasSections {
		if snap.CurrentSection >= 0 && snap.CurrentSection < len(s.test.Sections) {
			s.currentSection = snap.CurrentSection
		}
		copyBools(s.sectionCompleted, snap.SectionCompleted)
		s.recomputeSectionIndexesLocked()
	}
	if s.mode == PerSection {
		for i := 0; i < len(s.sectionTimeLeft) && i < len(snap.SectionTimeLeft); i++ {
			if snap.SectionTimeLeft[i] >= 0 && snap.SectionTimeLeft[i] <= s.sectionTimeLeft[i] {
				s.sectionTimeLeft[i] = snap.SectionTimeLeft[i]
			}
		}
		// Never reopen a completed section.
		for s.sectionCompleted[s.currentSection] && s.currentSection+1 < len(s.test.Sections) {
			s.currentSection++
			s.recomputeSectionIndexesLocked()
		}
	} else if snap.TimeLeft > 0 && snap.TimeLeft <= s.timeLeft {
		s.timeLeft = snap.TimeLeft
	}

	if snap.CurrentQuestion >= 0 && snap.CurrentQuestion < s.scopeLenLocked() {
		s.currentQuestion = snap.CurrentQuestion
	} else {
		s.currentQuestion = 0
	}
}
