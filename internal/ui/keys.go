package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

func ctrlKey(msg tea.KeyPressMsg, code rune) bool {
	return msg.Mod&tea.ModCtrl != 0 && msg.Code == code
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, keyQuit) || ctrlKey(msg, 'q') {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if len(r.modals) > 0 {
		return r.handleModalKey(msg)
	}
	if screen, ok := r.navTarget(msg); ok {
		r.dispatchController(func(c Controller) { c.OnNavigate(screen) })
		return r, nil
	}
	if msg.Code == tea.KeyF10 && r.nav.Authenticated {
		r.dispatchController(func(c Controller) { c.OnLogout() })
		return r, nil
	}
	if ctrlKey(msg, 'r') {
		r.dispatchController(func(c Controller) { c.OnRefresh() })
		return r, nil
	}

	switch r.screen {
	case ScreenLogin:
		switch {
		case ctrlKey(msg, 'f'):
			r.dispatchController(func(c Controller) { c.OnForgotPassword() })
			return r, nil
		case ctrlKey(msg, 'g'):
			r.dispatchController(func(c Controller) { c.OnOAuthHint() })
			return r, nil
		}
		return r.handleFormKey(r.forms[FormLogin], msg)
	case ScreenSignup:
		return r.handleFormKey(r.forms[FormSignup], msg)
	case ScreenReset:
		return r.handleFormKey(r.forms[FormReset], msg)
	case ScreenProfile:
		return r.handleProfileKey(msg)
	case ScreenSolver:
		return r.handleSolverKey(msg)
	default:
		if msg.Code == tea.KeyEnter {
			r.dispatchController(func(c Controller) { c.OnNavigate(ScreenSolver) })
		}
		return r, nil
	}
}

// navTarget maps the function keys of the visible nav variant to screens.
func (r *Root) navTarget(msg tea.KeyPressMsg) (Screen, bool) {
	switch msg.Code {
	case tea.KeyF1:
		return ScreenHome, true
	case tea.KeyF4:
		return ScreenSolver, true
	case tea.KeyF2:
		return ScreenLogin, !r.nav.Authenticated
	case tea.KeyF3:
		return ScreenSignup, !r.nav.Authenticated
	case tea.KeyF5:
		return ScreenProfile, r.nav.Authenticated
	}
	return ScreenHome, false
}

func (r *Root) handleFormKey(f *form, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if f == nil || f.empty() {
		return r, nil
	}
	switch msg.Code {
	case tea.KeyTab:
		if msg.Mod&tea.ModShift != 0 {
			return r, f.prev()
		}
		return r, f.next()
	case tea.KeyDown:
		return r, f.next()
	case tea.KeyUp:
		return r, f.prev()
	case tea.KeyEnter:
		r.submitForm(f)
		return r, nil
	}
	return r, f.update(msg)
}

func (r *Root) submitForm(f *form) {
	if f.busy {
		return
	}
	values := f.values()
	id := f.id
	switch {
	case id == FormSolver && f.purpose == PurposeSolve:
		r.stickBottom = true
		r.dispatchController(func(c Controller) { c.OnSolve(values) })
	case id == FormSolver && f.purpose == PurposeAnswer:
		answer := values[f.fields[0].spec.ID]
		if strings.TrimSpace(answer) == "" {
			return
		}
		f.clear()
		r.stickBottom = true
		r.dispatchController(func(c Controller) { c.OnSubmitAnswer(answer) })
	case id != FormSolver:
		r.dispatchController(func(c Controller) { c.OnSubmitForm(id, values) })
	}
}

func (r *Root) handleProfileKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if ctrlKey(msg, 'd') {
		r.dispatchController(func(c Controller) { c.OnDeleteAccount() })
		return r, nil
	}
	f := r.forms[r.profileForm]
	// Tab past the last field moves on to the other form.
	if msg.Code == tea.KeyTab && msg.Mod == 0 && f.focus == len(f.fields)-1 && !r.profile.OAuth {
		f.blur()
		if r.profileForm == FormProfile {
			r.profileForm = FormPassword
		} else {
			r.profileForm = FormProfile
		}
		return r, r.forms[r.profileForm].focusIndex(0)
	}
	return r.handleFormKey(f, msg)
}

func (r *Root) handleSolverKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case ctrlKey(msg, 't'):
		r.dispatchController(func(c Controller) { c.OnOpenModePicker() })
		return r, nil
	case ctrlKey(msg, 'p'):
		r.dispatchController(func(c Controller) { c.OnStartPractice() })
		return r, nil
	case ctrlKey(msg, 'n'):
		r.dispatchController(func(c Controller) { c.OnNewProblem() })
		return r, nil
	case ctrlKey(msg, 's'):
		r.dispatchController(func(c Controller) { c.OnSaveSolution() })
		return r, nil
	case ctrlKey(msg, 'o'):
		r.dispatchController(func(c Controller) { c.OnOpenHistory() })
		return r, nil
	}
	switch msg.Code {
	case tea.KeyPgUp:
		r.convo.PageUp()
		r.stickBottom = r.convo.AtBottom()
		return r, nil
	case tea.KeyPgDown:
		r.convo.PageDown()
		r.stickBottom = r.convo.AtBottom()
		return r, nil
	}
	f := r.forms[FormSolver]
	if f.empty() {
		return r.handleOptionKey(msg)
	}
	// A live menu keeps the keyboard while the input below it is blank.
	if r.activeOptions() >= 0 && formBlank(f) && optionKey(msg) {
		return r.handleOptionKey(msg)
	}
	return r.handleFormKey(f, msg)
}

func formBlank(f *form) bool {
	for _, v := range f.values() {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func optionKey(msg tea.KeyPressMsg) bool {
	switch msg.Code {
	case tea.KeyUp, tea.KeyDown, tea.KeyEnter:
		return true
	}
	return digit(msg) > 0
}

func (r *Root) handleOptionKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	idx := r.activeOptions()
	if idx < 0 {
		return r, nil
	}
	opts := r.bubbles[idx].Options
	switch msg.Code {
	case tea.KeyUp:
		r.optionIndex = wrapIndex(r.optionIndex-1, len(opts))
	case tea.KeyDown, tea.KeyTab:
		r.optionIndex = wrapIndex(r.optionIndex+1, len(opts))
	case tea.KeyEnter:
		r.selectOption(opts, r.optionIndex)
	default:
		if n := digit(msg); n > 0 && n <= len(opts) {
			r.optionIndex = n - 1
			r.selectOption(opts, n-1)
		}
	}
	return r, nil
}

func (r *Root) selectOption(opts []Option, i int) {
	if i < 0 || i >= len(opts) || opts[i].Disabled {
		return
	}
	opt := opts[i]
	r.dispatchController(func(c Controller) { c.OnSelectOption(opt.Action, opt.Value) })
}

func (r *Root) handleModalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	top, _ := r.topModal()
	if msg.Code == tea.KeyEsc || msg.Code == tea.KeyEscape {
		r.removeModal(top.Kind)
		return r, r.animateIfNeeded()
	}
	if f, ok := r.forms[top.Form]; ok && top.Form != "" {
		return r.handleFormKey(f, msg)
	}
	if len(top.Options) == 0 {
		switch {
		case msg.Code == tea.KeyEnter || (msg.Mod == 0 && (msg.Code == 'q' || msg.Code == 'Q')):
			r.removeModal(top.Kind)
			return r, r.animateIfNeeded()
		case msg.Mod == 0 && msg.Code == 'y':
			if text := r.modalCopyText(); text != "" {
				r.statusFlash = "Copied to clipboard"
				return r, tea.SetClipboard(text)
			}
		}
		return r, nil
	}
	pick := -1
	switch msg.Code {
	case tea.KeyUp:
		r.modalIndex = wrapIndex(r.modalIndex-1, len(top.Options))
	case tea.KeyDown, tea.KeyTab:
		r.modalIndex = wrapIndex(r.modalIndex+1, len(top.Options))
	case tea.KeyEnter:
		pick = r.modalIndex
	default:
		if n := digit(msg); n > 0 && n <= len(top.Options) {
			pick = n - 1
		}
	}
	if pick < 0 || top.Options[pick].Disabled {
		return r, nil
	}
	value := top.Options[pick].Value
	r.removeModal(top.Kind)
	r.dispatchController(func(c Controller) { c.OnModalAction(top.Kind, value) })
	return r, r.animateIfNeeded()
}

func (r *Root) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if r.screen != ScreenSolver || len(r.modals) > 0 {
		return r, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		r.convo.ScrollUp(3)
	case tea.MouseWheelDown:
		r.convo.ScrollDown(3)
	}
	r.stickBottom = r.convo.AtBottom()
	return r, nil
}

func digit(msg tea.KeyPressMsg) int {
	if msg.Mod != 0 || msg.Code < '1' || msg.Code > '9' {
		return 0
	}
	return int(msg.Code - '0')
}
