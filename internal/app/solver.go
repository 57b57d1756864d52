package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"integralcli/internal/api"
	"integralcli/internal/catalog"
	"integralcli/internal/graph"
	"integralcli/internal/state"
	"integralcli/internal/ui"
	"integralcli/internal/validate"
)

const historyPageSize = 10

// paintSolver repaints the input widgets, header and conversation from the
// session.
func (a *App) paintSolver() {
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	a.paintInputsLocked()
	a.paintHeaderLocked()
	a.paintConversationLocked()
}

func (a *App) paintConversationLocked() {
	bubbles := a.sess.bubbles()
	if len(bubbles) == 0 && a.sess.mode == catalog.ModeNone && !a.sess.practice.active && a.sess.authenticated() {
		bubbles = []ui.Bubble{a.welcomeBubble()}
	}
	a.view.SetConversation(bubbles)
}

func (a *App) welcomeBubble() ui.Bubble {
	opts := make([]ui.Option, 0, len(a.catalog.SolverModes)+1)
	for _, m := range a.catalog.SolverModes {
		opts = append(opts, ui.Option{Label: m.Example, Action: actionMode, Value: string(m.ID)})
	}
	opts = append(opts, ui.Option{Label: "Practice problems", Detail: "graded, four difficulty levels", Action: actionPractice})
	return ui.Bubble{Kind: ui.BubbleOptions, Text: msgWelcomeSolver, Options: opts}
}

// paintInputsLocked swaps the widget set. Every swap starts from empty values.
func (a *App) paintInputsLocked() {
	if a.sess.practice.active {
		a.view.SetSolverInputs(ui.InputSet{
			Purpose: ui.PurposeAnswer,
			Fields:  []ui.InputField{{ID: "answer", Label: "Answer", Placeholder: answerPlaceholder}},
		})
		return
	}
	mode, ok := a.catalog.SolverMode(a.sess.mode)
	if !ok {
		a.view.SetSolverInputs(ui.InputSet{
			Purpose: ui.PurposeSolve,
			Fields:  []ui.InputField{{ID: "expression", Label: "∫", Placeholder: "Choose a solver type first (Ctrl+T)"}},
		})
		return
	}
	fields := make([]ui.InputField, 0, len(mode.Fields))
	for _, f := range mode.Fields {
		fields = append(fields, ui.InputField{
			ID:          f.ID,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Check:       liveCheck(mode.ID, f),
		})
	}
	a.view.SetSolverInputs(ui.InputSet{Purpose: ui.PurposeSolve, Fields: fields})
}

// liveCheck validates as the user types. Blank fields stay quiet until a
// solve is attempted.
func liveCheck(mode catalog.Mode, f catalog.Field) func(string) string {
	return func(v string) string {
		if strings.TrimSpace(v) == "" {
			return ""
		}
		return checkExpression(mode, f, v).Message
	}
}

func checkExpression(mode catalog.Mode, f catalog.Field, v string) validate.Result {
	switch mode {
	case catalog.ModeParametric:
		return validate.ParametricExpression(v)
	case catalog.ModePolar:
		return validate.PolarExpression(v, f.Required)
	default:
		return validate.IntegralExpression(v)
	}
}

func (a *App) paintHeaderLocked() {
	p := a.sess.practice
	switch {
	case p.active:
		parts := []string{"Practice"}
		if pt, ok := a.catalog.PracticeType(p.kind); ok {
			parts = append(parts, pt.Label)
		}
		if d, ok := a.catalog.Difficulty(p.difficulty); ok {
			parts = append(parts, fmt.Sprintf("Level %d (%s)", d.Level, d.Label))
		}
		a.view.SetSolverHeader(strings.Join(parts, " · "))
	default:
		if m, ok := a.catalog.SolverMode(a.sess.mode); ok {
			a.view.SetSolverHeader(m.Label + " solver")
			return
		}
		a.view.SetSolverHeader("Solver")
	}
}

func (a *App) OnOpenModePicker() {
	a.sess.mu.Lock()
	current := a.sess.mode
	a.sess.mu.Unlock()
	opts := make([]ui.Option, 0, len(a.catalog.SolverModes))
	for _, m := range a.catalog.SolverModes {
		label := m.Label
		if m.ID == current {
			label += " (current)"
		}
		opts = append(opts, ui.Option{Label: label, Detail: m.Example, Value: string(m.ID)})
	}
	a.view.OpenModal(ui.Modal{Kind: ui.ModalModePicker, Title: "Choose a solver type", Options: opts})
}

// SelectMode switches the solver family. In-flight solves are invalidated
// and any practice round ends.
func (a *App) SelectMode(mode catalog.Mode) {
	if _, ok := a.catalog.SolverMode(mode); !ok {
		a.logger.Error("solver.unknown_mode", map[string]any{"mode": string(mode)})
		return
	}
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	a.sess.bump()
	a.sess.mode = mode
	if a.sess.practice.active {
		a.sess.disableMenus()
		a.sess.resetPractice()
	}
	a.paintInputsLocked()
	a.paintHeaderLocked()
	a.paintConversationLocked()
	a.logger.Info("solver.mode", map[string]any{"mode": string(mode), "generation": a.sess.generation})
}

func (a *App) OnSolve(values map[string]string) {
	a.SolveIntegral(context.Background(), values)
}

// solveInput is one validated solve: what the user sees, what is sent, and
// the polar curves for the graph block.
type solveInput struct {
	display string
	payload string
	inner   string
	outer   string
}

func (a *App) SolveIntegral(ctx context.Context, values map[string]string) {
	a.sess.mu.Lock()
	mode := a.sess.mode
	if a.sess.practice.active {
		a.sess.mu.Unlock()
		return
	}
	if mode == catalog.ModeNone {
		a.sess.add(ui.Bubble{Kind: ui.BubbleWarning, Text: "⚠️ " + msgSelectSolver})
		a.paintConversationLocked()
		a.sess.mu.Unlock()
		return
	}
	in, errs, blank := buildSolveInput(a.catalog, mode, values)
	switch {
	case blank != "":
		a.sess.add(ui.Bubble{Kind: ui.BubbleWarning, Text: blank})
		a.paintConversationLocked()
		a.sess.mu.Unlock()
		return
	case in.payload == "":
		a.sess.mu.Unlock()
		a.view.FlashStatus(msgIntegralBlank)
		return
	case len(errs) > 0:
		a.sess.add(ui.Bubble{Kind: ui.BubbleWarning, Text: msgFixValidation})
		a.paintConversationLocked()
		a.sess.mu.Unlock()
		a.view.SetFieldErrors(ui.FormSolver, errs, firstErrorField(a.catalog, mode, errs))
		return
	}
	gen := a.sess.generation
	a.sess.add(ui.Bubble{Role: ui.RoleUser, Kind: ui.BubbleText, Text: in.display})
	loadID := a.sess.add(ui.Bubble{Kind: ui.BubbleLoading, Text: "Solving..."})
	a.paintConversationLocked()
	a.sess.mu.Unlock()

	a.view.SetFormValues(ui.FormSolver, nil)
	a.logger.Info("solver.solve", map[string]any{"mode": string(mode), "generation": gen})
	res, err := a.backend.Solve(ctx, api.SolveRequest{Integral: in.payload, SolverType: string(mode)})

	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	if gen != a.sess.generation {
		a.logger.Info("solver.discarded", map[string]any{"sent": gen, "current": a.sess.generation})
		if a.sess.replace(loadID, ui.Bubble{Kind: ui.BubbleWarning, Text: msgDiscarded}) {
			a.paintConversationLocked()
		}
		return
	}
	if err != nil {
		a.logger.Error("solver.solve_failed", map[string]any{"mode": string(mode), "error": err.Error()})
		text := msgSolveNetwork
		if api.IsHTTP(err) {
			text = fmt.Sprintf(msgSolveError, api.Message(err, "Failed to solve"))
		}
		a.sess.replace(loadID, ui.Bubble{Kind: ui.BubbleError, Text: text})
		a.paintConversationLocked()
		return
	}
	a.sess.replace(loadID, a.solutionBubble(mode, res, in.inner, in.outer))
	a.sess.record(Exchange{Input: in.payload, Result: res, SolverType: mode, Timestamp: time.Now()})
	a.paintConversationLocked()
}

// buildSolveInput returns the request for values, field errors, or a blank
// warning. An empty payload with no errors means there is nothing to send.
func buildSolveInput(cat catalog.Catalog, mode catalog.Mode, values map[string]string) (solveInput, map[string]string, string) {
	sm, _ := cat.SolverMode(mode)
	errs := map[string]string{}
	for _, f := range sm.Fields {
		v := strings.TrimSpace(values[f.ID])
		if v == "" {
			continue
		}
		if res := checkExpression(mode, f, v); !res.Valid {
			errs[f.ID] = res.Message
		}
	}

	switch mode {
	case catalog.ModeParametric:
		x, y := strings.TrimSpace(values["x"]), strings.TrimSpace(values["y"])
		if x == "" || y == "" {
			return solveInput{}, nil, msgParametricBlank
		}
		text := fmt.Sprintf("x(t) = %s, y(t) = %s", x, y)
		return solveInput{display: text, payload: text}, errs, ""
	case catalog.ModePolar:
		inner, outer := strings.TrimSpace(values["inner"]), strings.TrimSpace(values["outer"])
		if outer == "" {
			return solveInput{}, nil, msgPolarBlank
		}
		if inner == "" {
			inner = "0"
		}
		return solveInput{
			display: polarDisplay(inner, outer),
			payload: inner + ", " + outer,
			inner:   inner,
			outer:   outer,
		}, errs, ""
	default:
		expr := strings.TrimSpace(values["expression"])
		if expr == "" {
			return solveInput{}, nil, ""
		}
		return solveInput{display: "∫ " + expr + " dx", payload: expr}, errs, ""
	}
}

func polarDisplay(inner, outer string) string {
	return fmt.Sprintf("Inner r(θ) = %s\nOuter r(θ) = %s", inner, outer)
}

// displayFor rebuilds the user-side text of a stored input.
func displayFor(mode catalog.Mode, input string) string {
	switch mode {
	case catalog.ModeParametric:
		return input
	case catalog.ModePolar:
		inner, outer, ok := strings.Cut(input, ",")
		if !ok {
			return input
		}
		return polarDisplay(strings.TrimSpace(inner), strings.TrimSpace(outer))
	default:
		return "∫ " + input + " dx"
	}
}

func firstErrorField(cat catalog.Catalog, mode catalog.Mode, errs map[string]string) string {
	sm, _ := cat.SolverMode(mode)
	for _, f := range sm.Fields {
		if _, ok := errs[f.ID]; ok {
			return f.ID
		}
	}
	return ""
}

func (a *App) solutionBubble(mode catalog.Mode, sol *api.Solution, inner, outer string) ui.Bubble {
	b := ui.Bubble{Kind: ui.BubbleSolution, Markdown: solutionMarkdown(a.catalog, mode, sol)}
	if mode == catalog.ModePolar && outer != "" {
		b.Lines = graph.PolarRegion(inner, outer).Lines()
	}
	return b
}

func solutionMarkdown(cat catalog.Catalog, mode catalog.Mode, sol *api.Solution) string {
	label := "Regular"
	if sm, ok := cat.SolverMode(mode); ok {
		label = sm.Label
	}
	var md strings.Builder
	fmt.Fprintf(&md, "### %s Solution\n\n", label)
	fmt.Fprintf(&md, "**Problem:** `%s`\n\n", firstNonEmpty(sol.Input, sol.InputLatex))
	fmt.Fprintf(&md, "**Solution:** `%s`\n\n", sol.Solution)
	if mode != catalog.ModePolar && sol.SolutionLatex != "" {
		fmt.Fprintf(&md, "LaTeX: `%s`\n\n", sol.SolutionLatex)
	}
	if len(sol.Steps) > 0 {
		md.WriteString("#### Step-by-step Solution\n\n")
		for i, step := range sol.Steps {
			fmt.Fprintf(&md, "%d. %s\n", i+1, step)
		}
	}
	if sol.DBWarning != "" {
		fmt.Fprintf(&md, "\n> ⚠️ %s\n", sol.DBWarning)
	}
	return md.String()
}

// StartNewProblem empties the conversation and returns to no mode.
func (a *App) StartNewProblem() {
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	a.sess.bump()
	a.sess.mode = catalog.ModeNone
	a.sess.clearConversation()
	a.sess.resetPractice()
	a.paintInputsLocked()
	a.paintHeaderLocked()
	a.paintConversationLocked()
	a.logger.Info("solver.new_problem", map[string]any{"generation": a.sess.generation})
}

func (a *App) OnNewProblem() {
	a.StartNewProblem()
}

func (a *App) OnSaveSolution() {
	a.sess.mu.Lock()
	last := a.sess.lastSolve
	a.sess.mu.Unlock()
	if last == nil || last.Result == nil {
		a.view.FlashStatus(msgNothingToSave)
		return
	}
	a.view.OpenModal(ui.Modal{
		Kind:  ui.ModalSaveConfirm,
		Title: "Save solution",
		Lines: []string{
			"Save this solution to your history?",
			"",
			displayFor(last.SolverType, last.Input),
			"= " + last.Result.Solution,
		},
		Options: []ui.Option{
			{Label: "Save", Value: valueConfirm},
			{Label: "Cancel", Value: valueCancel},
		},
	})
}

func (a *App) saveSolution(ctx context.Context) {
	a.sess.mu.Lock()
	last := a.sess.lastSolve
	a.sess.mu.Unlock()
	if last == nil || last.Result == nil {
		a.view.FlashStatus(msgNothingToSave)
		return
	}
	res, err := a.backend.Save(ctx, api.SaveRequest{
		Input:      last.Input,
		Solution:   last.Result.Solution,
		Steps:      last.Result.Steps,
		SolverType: string(last.SolverType),
	})
	if err != nil {
		a.logger.Error("solver.save_failed", map[string]any{"error": err.Error()})
		a.toastError(api.FriendlyMessage(err))
		return
	}
	if err := a.store.RecordSolve(ctx, state.SolveRecord{
		SolverType: string(last.SolverType),
		Input:      last.Input,
		Solution:   last.Result.Solution,
		TS:         time.Now(),
	}); err != nil {
		a.logger.Error("state.record_solve_failed", map[string]any{"error": err.Error()})
	}
	a.logger.Info("solver.saved", map[string]any{"id": res.ID})
	a.toastSuccess(firstNonEmpty(res.Message, msgSaved), toastSuccess)
}

func (a *App) OnOpenHistory() {
	a.openHistory(context.Background())
}

func (a *App) openHistory(ctx context.Context) {
	page, err := a.backend.History(ctx, 1, historyPageSize)
	if err != nil {
		a.logger.Error("solver.history_failed", map[string]any{"error": err.Error()})
		a.toastError(api.FriendlyMessage(err))
		return
	}
	items := page.Problems
	if len(items) > historyPageSize {
		items = items[:historyPageSize]
	}
	a.sess.mu.Lock()
	a.sess.history = items
	a.sess.mu.Unlock()

	if len(items) == 0 {
		a.view.OpenModal(ui.Modal{Kind: ui.ModalHistory, Title: "Recent problems", Lines: []string{msgNoHistory}})
		return
	}
	opts := make([]ui.Option, 0, len(items))
	for _, it := range items {
		mode := catalog.ParseMode(it.SolverType)
		label := "Regular"
		if sm, ok := a.catalog.SolverMode(mode); ok {
			label = sm.Label
		}
		detail := label
		if it.CreatedAt != "" {
			detail += " · " + it.CreatedAt
		}
		opts = append(opts, ui.Option{
			Label:  truncate(strings.ReplaceAll(displayFor(mode, it.Input), "\n", " / "), 48),
			Detail: detail,
			Value:  strconv.FormatInt(it.ID, 10),
		})
	}
	a.view.OpenModal(ui.Modal{Kind: ui.ModalHistory, Title: "Recent problems", Options: opts})
}

// loadHistoryItem replays a saved problem into the conversation. It does not
// change the solver mode.
func (a *App) loadHistoryItem(value string) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	for _, it := range a.sess.history {
		if it.ID != id {
			continue
		}
		mode := catalog.ParseMode(it.SolverType)
		if mode == catalog.ModeNone {
			mode = catalog.ModeIntegral
		}
		sol := &api.Solution{
			ID:            it.ID,
			Input:         it.Input,
			InputLatex:    it.InputLatex,
			Solution:      it.Solution,
			SolutionLatex: it.SolutionLatex,
			Steps:         it.Steps,
			SolverType:    it.SolverType,
		}
		var inner, outer string
		if mode == catalog.ModePolar {
			if i, o, ok := strings.Cut(it.Input, ","); ok {
				inner, outer = strings.TrimSpace(i), strings.TrimSpace(o)
			}
		}
		a.sess.add(ui.Bubble{Role: ui.RoleUser, Kind: ui.BubbleText, Text: displayFor(mode, it.Input)})
		a.sess.add(a.solutionBubble(mode, sol, inner, outer))
		a.paintConversationLocked()
		return
	}
	a.logger.Error("solver.history_item_missing", map[string]any{"id": id})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
