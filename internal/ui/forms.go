package ui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// formLayouts are the fixed account forms. The solver form is rebuilt from
// whatever InputSet the controller sends.
var formLayouts = map[FormID]struct {
	title  string
	submit string
	fields []InputField
}{
	FormLogin: {"Log in", "Log in", []InputField{
		{ID: "email", Label: "Email", Placeholder: "you@example.com"},
		{ID: "password", Label: "Password", Secret: true},
	}},
	FormSignup: {"Create your account", "Sign up", []InputField{
		{ID: "first_name", Label: "First name"},
		{ID: "last_name", Label: "Last name"},
		{ID: "email", Label: "Email", Placeholder: "you@example.com"},
		{ID: "password", Label: "Password", Placeholder: "at least 8 characters", Secret: true},
	}},
	FormForgot: {"Forgot password", "Send reset link", []InputField{
		{ID: "email", Label: "Email", Placeholder: "you@example.com"},
	}},
	FormReset: {"Choose a new password", "Reset password", []InputField{
		{ID: "password", Label: "New password", Secret: true},
		{ID: "confirm", Label: "Confirm password", Secret: true},
	}},
	FormProfile: {"Profile", "Save profile", []InputField{
		{ID: "first_name", Label: "First name"},
		{ID: "last_name", Label: "Last name"},
		{ID: "email", Label: "Email"},
	}},
	FormPassword: {"Change password", "Change password", []InputField{
		{ID: "current_password", Label: "Current password", Secret: true},
		{ID: "new_password", Label: "New password", Secret: true},
		{ID: "confirm_password", Label: "Confirm new password", Secret: true},
	}},
}

type formField struct {
	spec  InputField
	input textinput.Model
	err   string
}

type form struct {
	id      FormID
	title   string
	submit  string
	purpose InputPurpose
	fields  []*formField
	focus   int
	busy    bool
}

func newForm(id FormID, title, submit string, specs []InputField) *form {
	f := &form{id: id, title: title, submit: submit}
	for _, spec := range specs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = spec.Placeholder
		in.CharLimit = 512
		if spec.Secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.fields = append(f.fields, &formField{spec: spec, input: in})
	}
	return f
}

func newLayoutForm(id FormID) *form {
	layout, ok := formLayouts[id]
	if !ok {
		return newForm(id, string(id), "Submit", nil)
	}
	return newForm(id, layout.title, layout.submit, layout.fields)
}

func (f *form) empty() bool { return f == nil || len(f.fields) == 0 }

func (f *form) values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fld := range f.fields {
		out[fld.spec.ID] = fld.input.Value()
	}
	return out
}

func (f *form) field(id string) *formField {
	for _, fld := range f.fields {
		if fld.spec.ID == id {
			return fld
		}
	}
	return nil
}

func (f *form) setValues(values map[string]string) {
	for id, v := range values {
		if fld := f.field(id); fld != nil {
			fld.input.SetValue(v)
			fld.input.CursorEnd()
		}
	}
}

func (f *form) clear() {
	for _, fld := range f.fields {
		fld.input.Reset()
		fld.err = ""
	}
}

// setErrors replaces every field error at once; fields absent from errs are cleared.
func (f *form) setErrors(errs map[string]string) {
	for _, fld := range f.fields {
		fld.err = errs[fld.spec.ID]
	}
}

func (f *form) focusIndex(i int) tea.Cmd {
	if f.empty() {
		return nil
	}
	f.focus = wrapIndex(i, len(f.fields))
	var cmd tea.Cmd
	for idx, fld := range f.fields {
		if idx == f.focus {
			cmd = fld.input.Focus()
		} else {
			fld.input.Blur()
		}
	}
	return cmd
}

func (f *form) focusField(id string) tea.Cmd {
	for i, fld := range f.fields {
		if fld.spec.ID == id {
			return f.focusIndex(i)
		}
	}
	return f.focusIndex(0)
}

func (f *form) blur() {
	for _, fld := range f.fields {
		fld.input.Blur()
	}
}

func (f *form) next() tea.Cmd { return f.focusIndex(f.focus + 1) }

func (f *form) prev() tea.Cmd { return f.focusIndex(f.focus - 1) }

// update routes a message to the focused input and reruns its live check.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if f.empty() || f.busy {
		return nil
	}
	fld := f.fields[f.focus]
	before := fld.input.Value()
	var cmd tea.Cmd
	fld.input, cmd = fld.input.Update(msg)
	if after := fld.input.Value(); after != before && fld.spec.Check != nil {
		fld.err = fld.spec.Check(after)
	}
	return cmd
}

func (f *form) lines(th Theme, width int, busyLabel string) []string {
	labelW := 0
	for _, fld := range f.fields {
		labelW = max(labelW, len([]rune(fld.spec.Label)))
	}
	inputW := max(8, width-labelW-6)
	var out []string
	for i, fld := range f.fields {
		fld.input.SetWidth(inputW)
		marker := "  "
		if i == f.focus && fld.input.Focused() {
			marker = th.Accent.Render("› ")
		}
		label := padRune(fld.spec.Label, labelW)
		out = append(out, marker+th.Muted.Render(label)+"  "+fld.input.View())
		if fld.err != "" {
			out = append(out, strings.Repeat(" ", labelW+4)+th.Fail.Render(fld.err))
		}
	}
	if f.submit != "" {
		out = append(out, "")
		if f.busy {
			out = append(out, "  "+th.Pending.Render(busyLabel))
		} else {
			out = append(out, "  "+th.Accent.Render("[ Enter: "+f.submit+" ]"))
		}
	}
	return out
}
