package ui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

type mockController struct {
	mu        sync.Mutex
	quits     int
	logouts   int
	navigated []Screen
	solved    []map[string]string
	answers   []string
	options   []string
	modal     []string
	forms     []FormID
	modePicks int
}

func (m *mockController) lock() func() { m.mu.Lock(); return m.mu.Unlock }

func (m *mockController) OnNavigate(s Screen) { defer m.lock()(); m.navigated = append(m.navigated, s) }
func (m *mockController) OnLogout()           { defer m.lock()(); m.logouts++ }
func (m *mockController) OnRefresh()          {}
func (m *mockController) OnQuit()             { defer m.lock()(); m.quits++ }
func (m *mockController) OnSubmitForm(id FormID, _ map[string]string) {
	defer m.lock()()
	m.forms = append(m.forms, id)
}
func (m *mockController) OnModalAction(kind ModalKind, value string) {
	defer m.lock()()
	m.modal = append(m.modal, string(kind)+"="+value)
}
func (m *mockController) OnForgotPassword() {}
func (m *mockController) OnOAuthHint()      {}
func (m *mockController) OnDeleteAccount()  {}
func (m *mockController) OnOpenModePicker() { defer m.lock()(); m.modePicks++ }
func (m *mockController) OnSolve(v map[string]string) {
	defer m.lock()()
	m.solved = append(m.solved, v)
}
func (m *mockController) OnSubmitAnswer(a string) { defer m.lock()(); m.answers = append(m.answers, a) }
func (m *mockController) OnSelectOption(action, value string) {
	defer m.lock()()
	m.options = append(m.options, action+"="+value)
}
func (m *mockController) OnStartPractice() {}
func (m *mockController) OnNewProblem()    {}
func (m *mockController) OnSaveSolution()  {}
func (m *mockController) OnOpenHistory()   {}

// waitFor polls cond until it holds or 300ms pass; callbacks run on goroutines.
func waitFor(m *mockController, cond func() bool) bool {
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		ok := cond()
		m.mu.Unlock()
		if ok {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func typeText(v *Root, s string) {
	for _, ch := range s {
		press(v, ch, 0, string(ch))
	}
}

func newTestView() (*Root, *mockController) {
	v := New(Options{MotionLevel: "off"})
	ctrl := &mockController{}
	v.SetController(ctrl)
	return v, ctrl
}

func frame(v *Root) string {
	return ansi.Strip(v.renderFrame())
}

func TestCtrlQQuitsFromAnyScreen(t *testing.T) {
	v, ctrl := newTestView()
	v.SetScreen(ScreenSolver)
	v.OpenModal(Modal{Kind: ModalInfo, Title: "Info", Lines: []string{"x"}})

	press(v, 'q', tea.ModCtrl, "")

	if !waitFor(ctrl, func() bool { return ctrl.quits == 1 }) {
		t.Fatalf("expected Ctrl+Q to trigger quit")
	}
}

func TestGuestNavDispatchesOnlyGuestKeys(t *testing.T) {
	v, ctrl := newTestView()
	v.SetNav(NavState{})

	press(v, tea.KeyF5, 0, "")
	press(v, tea.KeyF10, 0, "")
	press(v, tea.KeyF4, 0, "")

	if !waitFor(ctrl, func() bool { return len(ctrl.navigated) == 1 }) {
		t.Fatalf("expected one navigation")
	}
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if ctrl.navigated[0] != ScreenSolver || ctrl.logouts != 0 {
		t.Fatalf("unexpected dispatch: nav=%v logouts=%d", ctrl.navigated, ctrl.logouts)
	}
}

func TestAuthenticatedNavRendersWelcomeAndLogout(t *testing.T) {
	v, ctrl := newTestView()
	v.SetNav(NavState{Authenticated: true, FirstName: "Ada"})

	out := frame(v)
	if !strings.Contains(out, "Welcome, Ada") || !strings.Contains(out, "Logout") {
		t.Fatalf("expected authenticated nav, got:\n%s", out)
	}
	if strings.Contains(out, "Sign up") {
		t.Fatalf("guest items leaked into authenticated nav")
	}

	press(v, tea.KeyF10, 0, "")
	if !waitFor(ctrl, func() bool { return ctrl.logouts == 1 }) {
		t.Fatalf("expected F10 to log out")
	}
}

func TestToastReplacedAndExpiredByID(t *testing.T) {
	v, _ := newTestView()
	v.ShowToast(Toast{Kind: ToastError, Text: "first", Duration: time.Minute})
	first := v.toastID
	v.ShowToast(Toast{Kind: ToastSuccess, Text: "✓ Logged out successfully!", Duration: 1500 * time.Millisecond})

	if !strings.Contains(frame(v), "Logged out successfully") {
		t.Fatalf("expected latest toast to render")
	}
	_, _ = v.Update(toastExpiredMsg{id: first})
	if !v.toastOn {
		t.Fatalf("stale expiry must not hide the newer toast")
	}
	_, _ = v.Update(toastExpiredMsg{id: v.toastID})
	if v.toastOn {
		t.Fatalf("expected toast to be dismissed")
	}
	if len(v.drain()) == 0 {
		t.Fatalf("expected expiry ticks to be queued")
	}
}

func TestEmptyToastIsIgnored(t *testing.T) {
	v, _ := newTestView()
	v.ShowToast(Toast{Text: "  "})
	if v.toastOn {
		t.Fatalf("empty toast should not render")
	}
}

func TestOpenModalReplacesSameKind(t *testing.T) {
	v, _ := newTestView()
	v.OpenModal(Modal{Kind: ModalSignupRequired, Title: "Sign Up Required", Lines: []string{"a"}})
	v.OpenModal(Modal{Kind: ModalInfo, Title: "Info", Lines: []string{"b"}})
	v.OpenModal(Modal{Kind: ModalSignupRequired, Title: "Sign Up Required", Lines: []string{"c"}})
	v.OpenModal(Modal{Kind: ModalDeleteAccount})

	if len(v.modals) != 2 {
		t.Fatalf("expected 2 modals, got %d", len(v.modals))
	}
	top, _ := v.topModal()
	if top.Kind != ModalSignupRequired || top.Lines[0] != "c" {
		t.Fatalf("expected replaced modal on top, got %+v", top)
	}

	press(v, tea.KeyEsc, 0, "")
	if top, _ := v.topModal(); top.Kind != ModalInfo {
		t.Fatalf("expected Esc to close only the top modal")
	}
	v.CloseModal(ModalInfo)
	if len(v.modals) != 0 {
		t.Fatalf("expected empty modal stack")
	}
}

func TestModalOptionDispatchesAction(t *testing.T) {
	v, ctrl := newTestView()
	v.OpenModal(Modal{Kind: ModalModePicker, Title: "Solver type", Options: []Option{
		{Label: "Regular", Value: "integral"},
		{Label: "Polar", Value: "polar"},
	}})

	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyEnter, 0, "")

	if !waitFor(ctrl, func() bool { return len(ctrl.modal) == 1 }) {
		t.Fatalf("expected modal action")
	}
	if ctrl.modal[0] != "mode_picker=polar" {
		t.Fatalf("unexpected action %q", ctrl.modal[0])
	}
	if len(v.modals) != 0 {
		t.Fatalf("expected modal to close after selection")
	}
}

func TestConversationReplacedAndEmptyBubblesDropped(t *testing.T) {
	v, _ := newTestView()
	v.SetConversation([]Bubble{
		{Role: RoleUser, Text: "∫ x^2 dx"},
		{Role: RoleAssistant, Kind: BubbleLoading},
	})
	v.SetConversation([]Bubble{
		{Role: RoleUser, Text: "∫ x^2 dx"},
		{Role: RoleAssistant, Kind: BubbleSolution, Text: "x^3/3 + C"},
		{Role: RoleAssistant, Kind: BubbleWarning},
	})
	if len(v.bubbles) != 2 {
		t.Fatalf("expected 2 bubbles after replacement, got %d", len(v.bubbles))
	}
	if v.bubbles[1].Kind != BubbleSolution {
		t.Fatalf("expected loading bubble to be replaced")
	}
}

func TestSolverInputsSubmitSolve(t *testing.T) {
	v, ctrl := newTestView()
	v.SetScreen(ScreenSolver)
	v.SetSolverInputs(InputSet{Purpose: PurposeSolve, Fields: []InputField{
		{ID: "x", Label: "x(t)"},
		{ID: "y", Label: "y(t)", Check: func(s string) string {
			if strings.Contains(s, "q") {
				return "bad"
			}
			return ""
		}},
	}})

	typeText(v, "t")
	press(v, tea.KeyTab, 0, "")
	typeText(v, "q")
	if got := v.forms[FormSolver].field("y").err; got != "bad" {
		t.Fatalf("expected live check error, got %q", got)
	}
	press(v, tea.KeyBackspace, 0, "")
	typeText(v, "t^2")
	press(v, tea.KeyEnter, 0, "")

	if !waitFor(ctrl, func() bool { return len(ctrl.solved) == 1 }) {
		t.Fatalf("expected solve dispatch")
	}
	if ctrl.solved[0]["x"] != "t" || ctrl.solved[0]["y"] != "t^2" {
		t.Fatalf("unexpected values %v", ctrl.solved[0])
	}
}

func TestSetSolverInputsClearsAndFocusesFirst(t *testing.T) {
	v, _ := newTestView()
	v.SetScreen(ScreenSolver)
	v.SetSolverInputs(InputSet{Purpose: PurposeSolve, Fields: []InputField{{ID: "expression"}}})
	typeText(v, "x^2")
	v.SetSolverInputs(InputSet{Purpose: PurposeSolve, Fields: []InputField{{ID: "inner"}, {ID: "outer"}}})

	f := v.forms[FormSolver]
	if f.values()["inner"] != "" || f.values()["outer"] != "" {
		t.Fatalf("expected empty inputs after swap")
	}
	if !f.fields[0].input.Focused() || f.fields[1].input.Focused() {
		t.Fatalf("expected first field focused")
	}
}

func TestAnswerSubmitClearsInput(t *testing.T) {
	v, ctrl := newTestView()
	v.SetScreen(ScreenSolver)
	v.SetSolverInputs(InputSet{Purpose: PurposeAnswer, Fields: []InputField{{ID: "answer"}}})

	press(v, tea.KeyEnter, 0, "")
	typeText(v, "give up")
	press(v, tea.KeyEnter, 0, "")

	if !waitFor(ctrl, func() bool { return len(ctrl.answers) == 1 }) {
		t.Fatalf("expected exactly one answer dispatch")
	}
	if ctrl.answers[0] != "give up" {
		t.Fatalf("unexpected answer %q", ctrl.answers[0])
	}
	if v.forms[FormSolver].values()["answer"] != "" {
		t.Fatalf("expected answer input to be cleared")
	}
}

func TestOptionBubbleDigitSelects(t *testing.T) {
	v, ctrl := newTestView()
	v.SetScreen(ScreenSolver)
	v.SetSolverInputs(InputSet{})
	v.SetConversation([]Bubble{
		{Kind: BubbleOptions, Disabled: true, Options: []Option{{Label: "Regular", Action: "practice_type", Value: "integral"}}},
		{Kind: BubbleOptions, Text: "Select a difficulty", Options: []Option{
			{Label: "Easiest", Action: "difficulty", Value: "1"},
			{Label: "Easy", Action: "difficulty", Value: "2"},
		}},
	})

	press(v, '2', 0, "2")

	if !waitFor(ctrl, func() bool { return len(ctrl.options) == 1 }) {
		t.Fatalf("expected option dispatch")
	}
	if ctrl.options[0] != "difficulty=2" {
		t.Fatalf("unexpected option %q", ctrl.options[0])
	}
}

func TestFieldErrorsMoveFocus(t *testing.T) {
	v, _ := newTestView()
	v.SetScreen(ScreenSignup)
	v.SetFieldErrors(FormSignup, map[string]string{
		"email":    "Please enter a valid email address",
		"password": "Password is required",
	}, "email")

	f := v.forms[FormSignup]
	if !f.field("email").input.Focused() || f.field("first_name").input.Focused() {
		t.Fatalf("expected focus on first invalid field")
	}
	out := frame(v)
	if !strings.Contains(out, "Please enter a valid email address") || !strings.Contains(out, "Password is required") {
		t.Fatalf("expected all errors rendered at once:\n%s", out)
	}

	v.SetFieldErrors(FormSignup, nil, "")
	if f.field("email").err != "" {
		t.Fatalf("expected errors cleared")
	}
}

func TestLoginEnterSubmitsForm(t *testing.T) {
	v, ctrl := newTestView()
	v.SetScreen(ScreenLogin)
	typeText(v, "ada@example.com")
	press(v, tea.KeyEnter, 0, "")

	if !waitFor(ctrl, func() bool { return len(ctrl.forms) == 1 }) {
		t.Fatalf("expected form submit")
	}
	if ctrl.forms[0] != FormLogin {
		t.Fatalf("unexpected form %q", ctrl.forms[0])
	}
}

func TestBusyFormDoesNotResubmit(t *testing.T) {
	v, ctrl := newTestView()
	v.SetScreen(ScreenLogin)
	v.SetFormBusy(FormLogin, true)
	press(v, tea.KeyEnter, 0, "")
	time.Sleep(30 * time.Millisecond)
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if len(ctrl.forms) != 0 {
		t.Fatalf("busy form must not submit")
	}
}

func TestRenderEveryScreenWithoutPanic(t *testing.T) {
	v, _ := newTestView()
	v.SetNav(NavState{Authenticated: true, FirstName: "Ada"})
	v.SetProfile(ProfileState{FirstName: "Ada", PracticeAvailable: 12, PracticeCompleted: 3, PracticePercent: 25})
	v.SetConversation([]Bubble{
		{Role: RoleUser, Text: "Inner r(θ) = 1\nOuter r(θ) = 2"},
		{Kind: BubbleSolution, Text: "3pi/2", Markdown: "**Steps**\n\n1. integrate", Lines: []string{"r \\le 2"}},
	})
	for _, s := range []Screen{ScreenHome, ScreenLogin, ScreenSignup, ScreenReset, ScreenSolver, ScreenProfile} {
		v.SetScreen(s)
		_ = v.View()
		if strings.Contains(v.statusFlash, "panic") {
			t.Fatalf("render panic on %s", s)
		}
	}
	_, _ = v.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(frame(v), "Terminal too small") {
		t.Fatalf("expected too-small notice")
	}
}

func TestOAuthProfileHidesPasswordForm(t *testing.T) {
	v, _ := newTestView()
	v.SetScreen(ScreenProfile)
	v.SetProfile(ProfileState{FirstName: "Grace", OAuth: true, Provider: "github"})
	out := frame(v)
	if !strings.Contains(out, "Password changes are not available for OAuth users") {
		t.Fatalf("expected oauth notice:\n%s", out)
	}
}

func TestScreenRoundTripsThroughName(t *testing.T) {
	for _, s := range []Screen{ScreenHome, ScreenLogin, ScreenSignup, ScreenReset, ScreenSolver, ScreenProfile} {
		if got := ParseScreen(s.String()); got != s {
			t.Fatalf("round trip %v -> %v", s, got)
		}
	}
	if ParseScreen("nope") != ScreenHome {
		t.Fatalf("unknown screens should map to home")
	}
}
