package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type animateMsg time.Time

type toastExpiredMsg struct {
	id int
}

const defaultToastDuration = 3 * time.Second

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string
	mouseScope   string

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	nav          NavState
	welcome      string
	toast        Toast
	toastID      int
	toastOn      bool
	modals       []Modal
	modalIndex   int
	bubbles      []Bubble
	optionIndex  int
	forms        map[FormID]*form
	profileForm  FormID
	solverHeader string
	profile      ProfileState
	statusFlash  string

	help        help.Model
	practiceBar progress.Model
	loadSpin    spinner.Model
	convo       viewport.Model
	stickBottom bool
	markdown    *glamour.TermRenderer
	mdCache     map[mdKey]string
	logger      *clog.Logger
	overlayPos  float64
	overlayVel  float64
	spring      harmonica.Spring

	// pending holds commands produced by painters; Update and Init drain it.
	pending []tea.Cmd

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
	MouseScope   string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "integral-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(72),
	)
	if err != nil {
		renderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}
	bar := progress.New(
		progress.WithWidth(24),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6"), lipgloss.Color("#F2D16B")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		bar.SetSpringOptions(1000.0, 1.0)
	}
	spin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		mouseScope:   normalizeMouseScope(opts.MouseScope),
		screen:       ScreenHome,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		help:         h,
		practiceBar:  bar,
		loadSpin:     spin,
		convo:        viewport.New(viewport.WithWidth(80), viewport.WithHeight(10)),
		stickBottom:  true,
		markdown:     renderer,
		mdCache:      map[mdKey]string{},
		logger:       logger,
		spring:       spring,
		profileForm:  FormProfile,
		forms:        map[FormID]*form{},
	}
	for id := range formLayouts {
		r.forms[id] = newLayoutForm(id)
	}
	r.forms[FormSolver] = newForm(FormSolver, "", "", nil)
	return r
}

func (r *Root) Init() tea.Cmd {
	cmds := append([]tea.Cmd{spinnerTickCmd(r.loadSpin)}, r.drain()...)
	return tea.Batch(cmds...)
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, tea.Batch(append(r.drain(), r.animateIfNeeded())...)
	case toastExpiredMsg:
		if msg.id == r.toastID {
			r.toastOn = false
			r.toast = Toast{}
		}
		return r, nil
	case animateMsg:
		target := r.overlayTarget()
		r.overlayPos, r.overlayVel = r.spring.Update(r.overlayPos, r.overlayVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.overlayPos = target
		r.overlayVel = 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.loadSpin, cmd = r.loadSpin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
		if f := r.focusedForm(); f != nil {
			return r, f.update(msg)
		}
		return r, nil
	case tea.MouseWheelMsg:
		return r.handleMouseWheel(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	// Cursor blink and similar widget-internal messages.
	if f := r.focusedForm(); f != nil {
		return r, f.update(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	base := r.renderFrame()
	if spec, ok := r.overlaySpec(); ok {
		pos := r.overlayPos
		if r.motionLevel == "off" {
			pos = 1
		}
		row := int(float64(spec.startRow) * clampFloat(pos, 0, 1))
		base = composeOverlayAt(base, r.drawPanel(spec.title, spec.lines, spec.width, spec.height), r.cols, r.rows, row, spec.startCol)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	v.MouseMode = r.currentMouseMode()
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		m.screen = screen
		m.statusFlash = ""
		for _, f := range m.forms {
			f.blur()
		}
		if screen == ScreenProfile {
			m.profileForm = FormProfile
		}
		if f := m.screenForm(); f != nil {
			m.queue(f.focusIndex(0))
		}
	})
}

func (r *Root) SetNav(nav NavState) {
	r.apply(func(m *Root) {
		m.nav = nav
	})
}

func (r *Root) SetWelcome(text string) {
	r.apply(func(m *Root) {
		m.welcome = strings.TrimSpace(text)
	})
}

func (r *Root) ShowToast(t Toast) {
	r.apply(func(m *Root) {
		if strings.TrimSpace(t.Text) == "" {
			m.logger.Debug("ui.toast_empty")
			return
		}
		if t.Duration <= 0 {
			t.Duration = defaultToastDuration
		}
		m.toastID++
		m.toast = t
		m.toastOn = true
		id := m.toastID
		m.queue(tea.Tick(t.Duration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} }))
	})
}

func (r *Root) OpenModal(modal Modal) {
	r.apply(func(m *Root) {
		if modal.Title == "" && len(modal.Lines) == 0 && modal.Markdown == "" && len(modal.Options) == 0 && modal.Form == "" {
			m.logger.Debug("ui.modal_empty", "kind", modal.Kind)
			return
		}
		m.removeModal(modal.Kind)
		m.modals = append(m.modals, modal)
		m.modalIndex = 0
		m.overlayPos, m.overlayVel = 0, 0
		if f, ok := m.forms[modal.Form]; ok && modal.Form != "" {
			f.setErrors(nil)
			f.busy = false
			m.queue(f.focusIndex(0))
		}
	})
}

func (r *Root) CloseModal(kind ModalKind) {
	r.apply(func(m *Root) {
		m.removeModal(kind)
	})
}

func (r *Root) SetConversation(bubbles []Bubble) {
	r.apply(func(m *Root) {
		kept := make([]Bubble, 0, len(bubbles))
		for _, b := range bubbles {
			if bubbleEmpty(b) {
				m.logger.Debug("ui.bubble_empty", "kind", b.Kind)
				continue
			}
			kept = append(kept, b)
		}
		prevActive := m.activeOptions()
		m.bubbles = kept
		if m.activeOptions() != prevActive {
			m.optionIndex = 0
		}
		m.stickBottom = true
	})
}

func (r *Root) SetSolverInputs(set InputSet) {
	r.apply(func(m *Root) {
		f := newForm(FormSolver, "", "", set.Fields)
		f.purpose = set.Purpose
		switch set.Purpose {
		case PurposeSolve:
			f.submit = "Solve"
		case PurposeAnswer:
			f.submit = "Submit answer"
		}
		m.forms[FormSolver] = f
		if m.screen == ScreenSolver && len(m.modals) == 0 {
			m.queue(f.focusIndex(0))
		}
	})
}

func (r *Root) SetSolverHeader(text string) {
	r.apply(func(m *Root) {
		m.solverHeader = text
	})
}

func (r *Root) SetFieldErrors(id FormID, errs map[string]string, focus string) {
	r.apply(func(m *Root) {
		f, ok := m.forms[id]
		if !ok {
			return
		}
		f.setErrors(errs)
		if focus == "" {
			return
		}
		if id == FormProfile || id == FormPassword {
			m.profileForm = id
			for _, other := range []FormID{FormProfile, FormPassword} {
				if other != id {
					m.forms[other].blur()
				}
			}
		}
		m.queue(f.focusField(focus))
	})
}

func (r *Root) SetFormBusy(id FormID, busy bool) {
	r.apply(func(m *Root) {
		if f, ok := m.forms[id]; ok {
			f.busy = busy
		}
	})
}

// SetFormValues fills the named fields. A nil or empty map clears the form.
func (r *Root) SetFormValues(id FormID, values map[string]string) {
	r.apply(func(m *Root) {
		f, ok := m.forms[id]
		if !ok {
			return
		}
		if len(values) == 0 {
			f.clear()
			return
		}
		f.setValues(values)
	})
}

func (r *Root) SetProfile(state ProfileState) {
	r.apply(func(m *Root) {
		m.profile = state
		if state.OAuth && m.profileForm == FormPassword {
			m.profileForm = FormProfile
		}
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) queue(cmd tea.Cmd) {
	if cmd != nil {
		r.pending = append(r.pending, cmd)
	}
}

func (r *Root) drain() []tea.Cmd {
	out := r.pending
	r.pending = nil
	return out
}

func (r *Root) removeModal(kind ModalKind) {
	kept := r.modals[:0]
	for _, m := range r.modals {
		if m.Kind != kind {
			kept = append(kept, m)
		}
	}
	r.modals = kept
}

func (r *Root) topModal() (Modal, bool) {
	if len(r.modals) == 0 {
		return Modal{}, false
	}
	return r.modals[len(r.modals)-1], true
}

// screenForm is the form that owns keyboard input on the current screen
// when no modal is open.
func (r *Root) screenForm() *form {
	switch r.screen {
	case ScreenLogin:
		return r.forms[FormLogin]
	case ScreenSignup:
		return r.forms[FormSignup]
	case ScreenReset:
		return r.forms[FormReset]
	case ScreenProfile:
		return r.forms[r.profileForm]
	case ScreenSolver:
		if f := r.forms[FormSolver]; !f.empty() {
			return f
		}
	}
	return nil
}

func (r *Root) focusedForm() *form {
	if top, ok := r.topModal(); ok {
		if top.Form == "" {
			return nil
		}
		return r.forms[top.Form]
	}
	return r.screenForm()
}

func bubbleEmpty(b Bubble) bool {
	if b.Kind == BubbleLoading {
		return false
	}
	return strings.TrimSpace(b.Text) == "" && strings.TrimSpace(b.Markdown) == "" && len(b.Lines) == 0 && len(b.Options) == 0
}

type overlaySpec struct {
	title    string
	lines    []string
	width    int
	height   int
	startRow int
	startCol int
}

func (r *Root) overlaySpec() (overlaySpec, bool) {
	top, ok := r.topModal()
	if !ok {
		return overlaySpec{}, false
	}
	w := min(max(56, r.cols/2), r.cols-4)
	inner := w - 4

	var lines []string
	for _, l := range top.Lines {
		lines = append(lines, strings.Split(wrapText(l, inner), "\n")...)
	}
	if md := r.renderMarkdown(top.Markdown, inner); md != "" {
		lines = append(lines, strings.Split(md, "\n")...)
	}
	if f, ok := r.forms[top.Form]; ok && top.Form != "" {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, f.lines(r.theme, inner, r.loadSpin.View()+" Sending...")...)
		lines = append(lines, "", r.theme.Muted.Render("Esc: Cancel"))
	} else if len(top.Options) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		for i, opt := range top.Options {
			label := numberedLabel(i, opt.Label)
			if opt.Detail != "" {
				label += "  " + r.theme.Muted.Render(opt.Detail)
			}
			if i == r.modalIndex {
				lines = append(lines, r.theme.Selected.Render("> "+label))
			} else {
				lines = append(lines, "  "+label)
			}
		}
		lines = append(lines, "", r.theme.Muted.Render("Enter: Select  Esc: Close"))
	} else {
		lines = append(lines, "", r.theme.Muted.Render("Enter/Esc: Close  y: Copy"))
	}
	for i := range lines {
		lines[i] = " " + lines[i]
	}
	h := min(len(lines)+2, max(8, r.rows-2))
	return overlaySpec{
		title:    firstNonEmptyStr(top.Title, "Info"),
		lines:    lines,
		width:    w,
		height:   h,
		startRow: max(0, (r.rows-h)/2),
		startCol: max(0, (r.cols-w)/2),
	}, true
}

func (r *Root) modalCopyText() string {
	top, ok := r.topModal()
	if !ok {
		return ""
	}
	parts := append([]string{}, top.Lines...)
	if top.Markdown != "" {
		parts = append(parts, top.Markdown)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := r.theme.PanelBorder.Render(tl + strings.Repeat(h, innerW) + tr)
	if title != "" && innerW > 2 {
		t := trimForWidth(" "+title+" ", innerW-1)
		rest := innerW - 1 - ansi.StringWidth(t)
		top = r.theme.PanelBorder.Render(tl+h) + r.theme.PanelTitle.Render(t) + r.theme.PanelBorder.Render(strings.Repeat(h, max(0, rest))+tr)
	}

	out := make([]string, 0, height)
	out = append(out, top)
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(padANSI(line, innerW))+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) overlayTarget() float64 {
	if len(r.modals) > 0 {
		return 1
	}
	return 0
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.shouldAnimate(r.overlayTarget()) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.overlayPos < 0.999 || abs(r.overlayVel) > 0.001
	}
	return r.overlayPos > 0.001 || abs(r.overlayVel) > 0.001
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

// padANSI pads or truncates a styled string to exactly width cells.
func padANSI(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

// composeOverlayAt paints overlay over base at the given cell. Base styling
// under the overlay rows is dropped.
func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		if lw := len([]rune(line)); lw > ow {
			ow = lw
		}
	}
	if ow > cols {
		ow = cols
	}
	if startRow < 0 {
		startRow = 0
	}
	if startCol < 0 {
		startCol = 0
	}

	for i, line := range overlayLines {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		dst := []rune(baseLines[row])
		src := []rune(line)
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func (r *Root) currentMouseMode() tea.MouseMode {
	switch r.mouseScope {
	case "off":
		return tea.MouseModeNone
	case "full":
		return tea.MouseModeCellMotion
	default:
		if r.screen == ScreenSolver && len(r.modals) == 0 {
			return tea.MouseModeCellMotion
		}
		return tea.MouseModeNone
	}
}

func normalizeStyleVariant(v string) string {
	v = strings.TrimSpace(v)
	for _, known := range StyleVariants {
		if v == known {
			return v
		}
	}
	return StyleVariants[0]
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func normalizeMouseScope(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "scoped", "full":
		return strings.TrimSpace(v)
	default:
		return "scoped"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"screen", r.screen.String(),
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"modals", len(r.modals),
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
