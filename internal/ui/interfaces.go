package ui

import "time"

// Controller receives user intents. Every callback runs on its own goroutine.
type Controller interface {
	OnNavigate(screen Screen)
	OnLogout()
	OnRefresh()
	OnQuit()
	OnSubmitForm(form FormID, values map[string]string)
	OnModalAction(kind ModalKind, value string)
	OnForgotPassword()
	OnOAuthHint()
	OnDeleteAccount()
	OnOpenModePicker()
	OnSolve(values map[string]string)
	OnSubmitAnswer(answer string)
	OnSelectOption(action, value string)
	OnStartPractice()
	OnNewProblem()
	OnSaveSolution()
	OnOpenHistory()
}

// View is the set of idempotent painters the controller drives. Each call
// replaces the previous instance of the element it paints.
type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetNav(nav NavState)
	SetWelcome(text string)
	ShowToast(toast Toast)
	OpenModal(modal Modal)
	CloseModal(kind ModalKind)
	SetConversation(bubbles []Bubble)
	SetSolverInputs(set InputSet)
	SetSolverHeader(text string)
	SetFieldErrors(form FormID, errs map[string]string, focus string)
	SetFormBusy(form FormID, busy bool)
	SetFormValues(form FormID, values map[string]string)
	SetProfile(state ProfileState)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenHome Screen = iota
	ScreenLogin
	ScreenSignup
	ScreenReset
	ScreenSolver
	ScreenProfile
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenSignup:
		return "signup"
	case ScreenReset:
		return "reset"
	case ScreenSolver:
		return "solver"
	case ScreenProfile:
		return "profile"
	default:
		return "home"
	}
}

// ParseScreen is the inverse of Screen.String; unknown names map to home.
func ParseScreen(name string) Screen {
	for _, s := range []Screen{ScreenLogin, ScreenSignup, ScreenReset, ScreenSolver, ScreenProfile} {
		if s.String() == name {
			return s
		}
	}
	return ScreenHome
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

type FormID string

const (
	FormLogin    FormID = "login"
	FormSignup   FormID = "signup"
	FormForgot   FormID = "forgot"
	FormReset    FormID = "reset"
	FormProfile  FormID = "profile"
	FormPassword FormID = "password"
	FormSolver   FormID = "solver"
)

type ModalKind string

const (
	ModalSignupRequired ModalKind = "signup_required"
	ModalDeleteAccount  ModalKind = "delete_account"
	ModalForgot         ModalKind = "forgot"
	ModalSaveConfirm    ModalKind = "save_confirm"
	ModalModePicker     ModalKind = "mode_picker"
	ModalHistory        ModalKind = "history"
	ModalInfo           ModalKind = "info"
)

type ToastKind int

const (
	ToastSuccess ToastKind = iota
	ToastError
)

type Toast struct {
	Kind     ToastKind
	Text     string
	Duration time.Duration
}

// Modal is one entry of the modal stack. Form, when set, renders that form's
// inputs inside the modal and Enter submits it. Otherwise Enter picks the
// highlighted option and reports its Value.
type Modal struct {
	Kind     ModalKind
	Title    string
	Lines    []string
	Markdown string
	Options  []Option
	Form     FormID
}

type Option struct {
	Label    string
	Detail   string
	Action   string
	Value    string
	Disabled bool
}

type Role int

const (
	RoleAssistant Role = iota
	RoleUser
)

type BubbleKind int

const (
	BubbleText BubbleKind = iota
	BubbleLoading
	BubbleWarning
	BubbleError
	BubbleSuccess
	BubbleSolution
	BubbleOptions
)

// Bubble is one conversation entry. Solution bubbles render Markdown through
// glamour and append Lines (the graph block) verbatim.
type Bubble struct {
	Role     Role
	Kind     BubbleKind
	Text     string
	Markdown string
	Lines    []string
	Options  []Option
	Disabled bool
}

type InputPurpose int

const (
	PurposeNone InputPurpose = iota
	PurposeSolve
	PurposeAnswer
)

// InputField describes one text input. Check, when set, runs on every edit and
// its non-empty result is shown under the field.
type InputField struct {
	ID          string
	Label       string
	Placeholder string
	Secret      bool
	Check       func(string) string
}

type InputSet struct {
	Purpose InputPurpose
	Fields  []InputField
}

type NavState struct {
	Authenticated bool
	FirstName     string
}

type ProfileState struct {
	FirstName      string
	LastName       string
	Email          string
	Provider       string
	OAuth          bool
	MemberSince    string
	LastActivity   string
	ProblemsSolved int

	PracticeAttempted int
	PracticeCompleted int
	PracticeAvailable int
	PracticePercent   float64
	PracticeAccuracy  float64

	LocalAttempts int
	LocalCorrect  int
	LocalGaveUp   int
	LocalSaved    int
	LocalLast     string
}
