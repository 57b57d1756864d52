package app

import (
	"strings"
	"sync"
	"testing"
	"time"

	"integralcli/internal/ui"
)

// recordingView keeps the last value of every painter and the history of
// toasts and modals.
type recordingView struct {
	mu sync.Mutex

	ctrl         ui.Controller
	screen       ui.Screen
	nav          ui.NavState
	welcome      string
	toasts       []ui.Toast
	modals       []ui.Modal
	closed       []ui.ModalKind
	bubbles      []ui.Bubble
	inputs       ui.InputSet
	header       string
	fieldErrors  map[ui.FormID]map[string]string
	focus        map[ui.FormID]string
	busy         map[ui.FormID]bool
	values       map[ui.FormID]map[string]string
	profile      ui.ProfileState
	flash        string
	stopped      bool
	conversation int
}

var _ ui.View = (*recordingView)(nil)

func newRecordingView() *recordingView {
	return &recordingView{
		fieldErrors: map[ui.FormID]map[string]string{},
		focus:       map[ui.FormID]string{},
		busy:        map[ui.FormID]bool{},
		values:      map[ui.FormID]map[string]string{},
	}
}

func (v *recordingView) Run() error { return nil }

func (v *recordingView) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}

func (v *recordingView) SetController(c ui.Controller) { v.ctrl = c }

func (v *recordingView) SetScreen(s ui.Screen) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screen = s
}

func (v *recordingView) SetNav(n ui.NavState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nav = n
}

func (v *recordingView) SetWelcome(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.welcome = text
}

func (v *recordingView) ShowToast(t ui.Toast) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.toasts = append(v.toasts, t)
}

func (v *recordingView) OpenModal(m ui.Modal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.modals = append(v.modals, m)
}

func (v *recordingView) CloseModal(kind ui.ModalKind) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = append(v.closed, kind)
}

func (v *recordingView) SetConversation(b []ui.Bubble) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bubbles = append([]ui.Bubble(nil), b...)
	v.conversation++
}

func (v *recordingView) SetSolverInputs(set ui.InputSet) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inputs = set
}

func (v *recordingView) SetSolverHeader(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.header = text
}

func (v *recordingView) SetFieldErrors(form ui.FormID, errs map[string]string, focus string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fieldErrors[form] = errs
	v.focus[form] = focus
}

func (v *recordingView) SetFormBusy(form ui.FormID, busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy[form] = busy
}

func (v *recordingView) SetFormValues(form ui.FormID, values map[string]string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[form] = values
}

func (v *recordingView) SetProfile(p ui.ProfileState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.profile = p
}

func (v *recordingView) FlashStatus(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flash = msg
}

func (v *recordingView) currentScreen() ui.Screen {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.screen
}

func (v *recordingView) currentNav() ui.NavState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.nav
}

func (v *recordingView) lastToast() (ui.Toast, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.toasts) == 0 {
		return ui.Toast{}, false
	}
	return v.toasts[len(v.toasts)-1], true
}

func (v *recordingView) lastModal() (ui.Modal, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.modals) == 0 {
		return ui.Modal{}, false
	}
	return v.modals[len(v.modals)-1], true
}

func (v *recordingView) modalCount(kind ui.ModalKind) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, m := range v.modals {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

func (v *recordingView) conversationSnapshot() []ui.Bubble {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]ui.Bubble(nil), v.bubbles...)
}

func (v *recordingView) solverInputs() ui.InputSet {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inputs
}

func (v *recordingView) errorsFor(form ui.FormID) (map[string]string, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fieldErrors[form], v.focus[form]
}

func (v *recordingView) lastFlash() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.flash
}

func (v *recordingView) currentProfile() ui.ProfileState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.profile
}

// bubbleText flattens a bubble to the text a reader would see.
func bubbleText(b ui.Bubble) string {
	parts := []string{b.Text, b.Markdown, strings.Join(b.Lines, "\n")}
	for _, o := range b.Options {
		parts = append(parts, o.Label)
	}
	return strings.Join(parts, "\n")
}

func findBubble(bubbles []ui.Bubble, substr string) (ui.Bubble, bool) {
	for _, b := range bubbles {
		if strings.Contains(bubbleText(b), substr) {
			return b, true
		}
	}
	return ui.Bubble{}, false
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
