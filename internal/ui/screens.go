package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/lipgloss/v2"
)

type screenKeys []key.Binding

func (k screenKeys) ShortHelp() []key.Binding  { return k }
func (k screenKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k} }

var (
	keyTab      = key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Next field"))
	keySubmit   = key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Submit"))
	keyForgot   = key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("Ctrl+F", "Forgot password"))
	keyOAuth    = key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("Ctrl+G", "Google/GitHub"))
	keyOpen     = key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Open solver"))
	keyMode     = key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("Ctrl+T", "Solver type"))
	keyPractice = key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("Ctrl+P", "Practice"))
	keyNew      = key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("Ctrl+N", "New problem"))
	keySave     = key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("Ctrl+S", "Save"))
	keyHistory  = key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("Ctrl+O", "History"))
	keyScroll   = key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("PgUp/PgDn", "Scroll"))
	keyDelete   = key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("Ctrl+D", "Delete account"))
	keyRefresh  = key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("Ctrl+R", "Refresh"))
	keyQuit     = key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit"))
)

func (r *Root) helpKeys() screenKeys {
	switch r.screen {
	case ScreenLogin:
		return screenKeys{keyTab, keySubmit, keyForgot, keyOAuth, keyQuit}
	case ScreenSignup, ScreenReset, ScreenProfile:
		keys := screenKeys{keyTab, keySubmit}
		if r.screen == ScreenProfile {
			keys = append(keys, keyDelete)
		}
		return append(keys, keyQuit)
	case ScreenSolver:
		return screenKeys{keyMode, keyPractice, keyNew, keySave, keyHistory, keyScroll, keyQuit}
	default:
		return screenKeys{keyOpen, keyRefresh, keyQuit}
	}
}

func (r *Root) renderFrame() string {
	if r.layout == LayoutTooSmall {
		msg := fmt.Sprintf("Terminal too small (%dx%d). Resize to at least 80x24.", r.cols, r.rows)
		return r.theme.Fail.Render(trimForWidth(msg, r.cols))
	}
	bodyH := max(3, r.rows-4)
	var body string
	switch r.screen {
	case ScreenLogin:
		body = r.renderFormScreen(FormLogin, bodyH, r.theme.Muted.Render("Ctrl+F: forgot password   Ctrl+G: sign in with Google or GitHub"))
	case ScreenSignup:
		body = r.renderFormScreen(FormSignup, bodyH, r.theme.Muted.Render("Already have an account? Press F2 to log in."))
	case ScreenReset:
		body = r.renderFormScreen(FormReset, bodyH, "")
	case ScreenSolver:
		body = r.renderSolver(bodyH)
	case ScreenProfile:
		body = r.renderProfile(bodyH)
	default:
		body = r.renderHome(bodyH)
	}
	lines := []string{
		r.headerLine(),
		r.bannerLine(),
	}
	lines = append(lines, strings.Split(body, "\n")...)
	for len(lines) < r.rows-2 {
		lines = append(lines, "")
	}
	lines = lines[:r.rows-2]
	lines = append(lines, r.statusLine(), padANSI(r.help.ShortHelpView(r.helpKeys()), r.cols))
	return strings.Join(lines, "\n")
}

func (r *Root) headerLine() string {
	title := r.theme.Accent.Render("∫ Integral Solver")
	nav := r.navText()
	gap := max(1, r.cols-2-cellWidth(title)-cellWidth(nav))
	return r.theme.Header.Width(r.cols).Render(title + strings.Repeat(" ", gap) + nav)
}

func (r *Root) navText() string {
	item := func(k, label string, active bool) string {
		s := r.theme.NavKey.Render(k) + " " + r.theme.Nav.Render(label)
		if active {
			s = r.theme.NavKey.Render(k) + " " + r.theme.Selected.Render(label)
		}
		return s
	}
	var parts []string
	if r.nav.Authenticated {
		parts = append(parts, r.theme.Welcome.Render("Welcome, "+firstNonEmptyStr(r.nav.FirstName, "there")))
		parts = append(parts,
			item("F1", "Home", r.screen == ScreenHome),
			item("F4", "Solver", r.screen == ScreenSolver),
			item("F5", "Profile", r.screen == ScreenProfile),
			item("F10", "Logout", false),
		)
	} else {
		lock := "🔒"
		if r.ascii {
			lock = "(locked)"
		}
		parts = append(parts,
			item("F1", "Home", r.screen == ScreenHome),
			item("F2", "Login", r.screen == ScreenLogin),
			item("F3", "Sign up", r.screen == ScreenSignup),
			r.theme.NavKey.Render("F4")+" "+r.theme.NavLocked.Render("Solver "+lock),
		)
	}
	return strings.Join(parts, "  ")
}

// bannerLine shows the live toast, or the welcome text when there is none.
func (r *Root) bannerLine() string {
	if r.toastOn {
		style := r.theme.ToastOK
		if r.toast.Kind == ToastError {
			style = r.theme.ToastErr
		}
		return padANSI(style.Render(trimForWidth(r.toast.Text, r.cols-2)), r.cols)
	}
	if r.welcome != "" {
		return padANSI(" "+r.theme.Welcome.Render(trimForWidth(r.welcome, r.cols-2)), r.cols)
	}
	return ""
}

func (r *Root) statusLine() string {
	text := r.statusFlash
	if text == "" {
		text = "Screen: " + r.screen.String()
		if r.screen == ScreenSolver && r.solverHeader != "" {
			text = r.solverHeader
		}
	}
	return r.theme.Status.Width(r.cols).Render(trimForWidth(text, r.cols-2))
}

func (r *Root) renderHome(h int) string {
	lines := []string{
		"",
		r.theme.PanelTitle.Render("Solve integrals step by step."),
		"",
		"  Regular      ∫ f(x) dx with worked steps",
		"  Parametric   area under x(t), y(t)",
		"  Polar        area between two polar curves r(θ)",
		"",
		"  Practice mode serves graded problems at four difficulty levels.",
		"",
	}
	if r.nav.Authenticated {
		lines = append(lines, "  Press Enter or F4 to open the solver.")
		if r.profile.PracticeAvailable > 0 {
			lines = append(lines, "",
				"  Practice progress  "+r.practiceBar.ViewAs(r.profile.PracticePercent/100),
				r.theme.Muted.Render(fmt.Sprintf("  %d of %d problems completed", r.profile.PracticeCompleted, r.profile.PracticeAvailable)),
			)
		}
	} else {
		lines = append(lines,
			"  Press F2 to log in or F3 to create a free account.",
			r.theme.Muted.Render("  The solver is available to signed-in users."),
		)
	}
	return r.drawPanel("Home", lines, r.cols, h)
}

func (r *Root) renderFormScreen(id FormID, h int, footer string) string {
	f := r.forms[id]
	w := min(r.cols, 72)
	lines := append([]string{""}, f.lines(r.theme, w-4, r.loadSpin.View()+" Working...")...)
	if footer != "" {
		lines = append(lines, "", footer)
	}
	for i := range lines {
		lines[i] = " " + lines[i]
	}
	panel := r.drawPanel(f.title, lines, w, min(h, len(lines)+3))
	return lipgloss.PlaceHorizontal(r.cols, lipgloss.Center, panel)
}

func (r *Root) renderSolver(h int) string {
	f := r.forms[FormSolver]
	var inputLines []string
	if !f.empty() {
		inputLines = f.lines(r.theme, r.cols-6, r.loadSpin.View()+" Waiting for the solver...")
	}
	sideW := 0
	if r.layout == LayoutWide {
		sideW = 34
	}
	mainW := r.cols - sideW
	inputH := 0
	if len(inputLines) > 0 {
		inputH = len(inputLines) + 2
	}
	convoH := max(3, h-inputH)

	r.convo.SetWidth(mainW - 2)
	r.convo.SetHeight(convoH - 2)
	r.convo.SetContentLines(r.conversationLines(mainW - 4))
	if r.stickBottom {
		r.convo.GotoBottom()
	}
	main := r.drawPanel(firstNonEmptyStr(r.solverHeader, "Solver"), strings.Split(r.convo.View(), "\n"), mainW, convoH)
	if inputH > 0 {
		title := "Input"
		if f.purpose == PurposeAnswer {
			title = "Your answer"
		}
		main = lipgloss.JoinVertical(lipgloss.Left, main, r.drawPanel(title, inputLines, mainW, inputH))
	}
	if sideW == 0 {
		return main
	}
	side := []string{
		r.theme.Muted.Render(" Keys"),
		" Ctrl+T  solver type",
		" Ctrl+P  practice",
		" Ctrl+N  new problem",
		" Ctrl+S  save solution",
		" Ctrl+O  history",
		" Tab     next field",
		"",
		r.theme.Muted.Render(" Polar uses x (or θ) for θ."),
		r.theme.Muted.Render(" Type \"give up\" in practice"),
		r.theme.Muted.Render(" to see the answer."),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, main, r.drawPanel("Session", side, sideW, h))
}

func (r *Root) renderProfile(h int) string {
	p := r.profile
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	info := []string{
		" " + r.theme.PanelTitle.Render(firstNonEmptyStr(name, "Your account")),
		" " + p.Email,
	}
	if p.OAuth {
		info = append(info, " "+r.theme.Muted.Render("Signed in with "+p.Provider))
	}
	info = append(info,
		"",
		fmt.Sprintf(" Problems solved   %d", p.ProblemsSolved),
		" Member since      "+firstNonEmptyStr(p.MemberSince, "-"),
		" Last activity     "+firstNonEmptyStr(p.LastActivity, "-"),
		"",
		r.theme.PanelTitle.Render(" Practice"),
		fmt.Sprintf(" Attempted %d  Completed %d / %d", p.PracticeAttempted, p.PracticeCompleted, p.PracticeAvailable),
		fmt.Sprintf(" Accuracy %.1f%%", p.PracticeAccuracy),
		" "+r.practiceBar.ViewAs(p.PracticePercent/100),
		"",
		r.theme.PanelTitle.Render(" This device"),
		fmt.Sprintf(" Attempts %d  Correct %d  Gave up %d", p.LocalAttempts, p.LocalCorrect, p.LocalGaveUp),
		fmt.Sprintf(" Saved solutions   %d", p.LocalSaved),
		" Last practice     "+firstNonEmptyStr(p.LocalLast, "-"),
	)

	formW := r.cols
	infoW := 0
	if r.layout == LayoutWide {
		infoW = 46
		formW = r.cols - infoW
	}
	var right []string
	right = append(right, r.formBlock(FormProfile, formW-4)...)
	right = append(right, "")
	if p.OAuth {
		right = append(right, " "+r.theme.PanelTitle.Render("Change password"),
			" "+r.theme.Muted.Render("Password changes are not available for OAuth users"))
	} else {
		right = append(right, r.formBlock(FormPassword, formW-4)...)
	}
	if infoW == 0 {
		return r.drawPanel("Profile", append(info, append([]string{""}, right...)...), r.cols, h)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		r.drawPanel("Account", info, infoW, h),
		r.drawPanel("Settings", right, formW, h),
	)
}

func (r *Root) formBlock(id FormID, width int) []string {
	f := r.forms[id]
	title := r.theme.Muted.Render(" " + f.title)
	if r.profileForm == id {
		title = " " + r.theme.PanelTitle.Render(f.title)
	}
	out := []string{title}
	for _, l := range f.lines(r.theme, width, r.loadSpin.View()+" Saving...") {
		out = append(out, " "+l)
	}
	return out
}

func cellWidth(s string) int { return lipgloss.Width(s) }
