package app

import (
	"sync"
	"time"

	"integralcli/internal/api"
	"integralcli/internal/catalog"
	"integralcli/internal/ui"
)

// Exchange is one answered solve. Exchanges live in memory only.
type Exchange struct {
	Input      string
	Result     *api.Solution
	SolverType catalog.Mode
	Timestamp  time.Time
}

type entry struct {
	id     int
	bubble ui.Bubble
}

type practiceState struct {
	active     bool
	kind       catalog.Mode
	difficulty int
	problem    *api.Problem
	loading    bool
	typeMenu   int
	levelMenu  int
}

// Session is all mutable controller state. View callbacks arrive on their
// own goroutines, so every field is guarded by mu; the methods below assume
// the caller holds it.
type Session struct {
	mu sync.Mutex

	user       *api.User
	screen     ui.Screen
	generation uint64
	mode       catalog.Mode

	entries   []entry
	nextID    int
	exchanges []Exchange
	lastSolve *Exchange
	history   []api.HistoryItem

	practice practiceState

	message    string
	resetToken string
}

func newSession(message, resetToken string) *Session {
	return &Session{
		mode:       catalog.ModeNone,
		message:    message,
		resetToken: resetToken,
	}
}

func (s *Session) authenticated() bool { return s.user != nil }

// bump invalidates every request still in flight.
func (s *Session) bump() uint64 {
	s.generation++
	return s.generation
}

func (s *Session) add(b ui.Bubble) int {
	s.nextID++
	s.entries = append(s.entries, entry{id: s.nextID, bubble: b})
	return s.nextID
}

// replace swaps the bubble with the given id. It reports false when the
// bubble is gone, for instance after the conversation was reset.
func (s *Session) replace(id int, b ui.Bubble) bool {
	for i := range s.entries {
		if s.entries[i].id == id {
			s.entries[i].bubble = b
			return true
		}
	}
	return false
}

func (s *Session) disable(ids ...int) {
	for _, id := range ids {
		for i := range s.entries {
			if s.entries[i].id == id {
				s.entries[i].bubble.Disabled = true
			}
		}
	}
}

// disableMenus freezes every option bubble still open.
func (s *Session) disableMenus() {
	for i := range s.entries {
		if s.entries[i].bubble.Kind == ui.BubbleOptions {
			s.entries[i].bubble.Disabled = true
		}
	}
}

func (s *Session) remove(id int) {
	for i := range s.entries {
		if s.entries[i].id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *Session) clearConversation() {
	s.entries = nil
	s.exchanges = nil
	s.lastSolve = nil
}

func (s *Session) bubbles() []ui.Bubble {
	out := make([]ui.Bubble, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.bubble)
	}
	return out
}

func (s *Session) record(x Exchange) {
	s.exchanges = append(s.exchanges, x)
	last := x
	s.lastSolve = &last
}

// takeMessage returns the one-shot start message and forgets it.
func (s *Session) takeMessage() string {
	msg := s.message
	s.message = ""
	return msg
}

func (s *Session) takeResetToken() string {
	tok := s.resetToken
	s.resetToken = ""
	return tok
}

func (s *Session) resetPractice() {
	s.practice = practiceState{}
}

func (s *Session) firstName() string {
	if s.user == nil {
		return ""
	}
	return s.user.FirstName
}
