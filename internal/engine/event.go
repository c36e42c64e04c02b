package engine

// EventType tags a session event pushed to subscribers.
type EventType string

const (
	EventState     EventType = "state"     // navigation / answer / mark / clear
	EventTick      EventType = "tick"      // one second elapsed on the active timer
	EventSection   EventType = "section"   // section completed, next one opened
	EventSubmitted EventType = "submitted" // session reached Done
)

// Event is a lightweight state-change notification. The render layer
// (WebSocket stream) subscribes to these instead of polling.
type Event struct {
	Type            EventType `json:"type"`
	Phase           string    `json:"phase"`
	CurrentSection  int       `json:"current_section"`
	CurrentQuestion int       `json:"current_question"`
	TimeLeft        int       `json:"time_left"`
}

// Subscribe registers a new event listener. The returned cancel func
// removes the listener and closes its channel. Slow listeners drop
// events instead of blocking the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// publish fans an event out to all subscribers. Caller holds s.mu.
func (s *Session) publish(t EventType) {
	ev := Event{
		Type:            t,
		Phase:           s.phase.String(),
		CurrentSection:  s.currentSection,
		CurrentQuestion: s.currentQuestion,
		TimeLeft:        s.activeTimeLeftLocked(),
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default: // drop rather than block the state machine
		}
	}
}
