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
)

func (a *App) OnStartPractice() {
	a.StartPractice()
}

// StartPractice resets solver and practice state and shows the type menu.
func (a *App) StartPractice() {
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	a.sess.bump()
	a.sess.mode = catalog.ModeNone
	a.sess.clearConversation()
	a.sess.resetPractice()
	a.sess.practice.active = true
	a.sess.practice.typeMenu = a.sess.add(a.typeMenuBubble())
	a.paintInputsLocked()
	a.paintHeaderLocked()
	a.paintConversationLocked()
	a.logger.Info("practice.start", map[string]any{"generation": a.sess.generation})
}

func (a *App) typeMenuBubble() ui.Bubble {
	opts := make([]ui.Option, 0, len(a.catalog.PracticeTypes))
	for _, pt := range a.catalog.PracticeTypes {
		opts = append(opts, ui.Option{Label: pt.Label, Detail: pt.Description, Action: actionPracticeType, Value: string(pt.ID)})
	}
	return ui.Bubble{Kind: ui.BubbleOptions, Text: msgPracticeIntro, Options: opts}
}

func (a *App) difficultyMenuBubble() ui.Bubble {
	opts := make([]ui.Option, 0, len(a.catalog.Difficulties))
	for _, d := range a.catalog.Difficulties {
		opts = append(opts, ui.Option{
			Label:  fmt.Sprintf("Level %d", d.Level),
			Detail: d.Label,
			Action: actionDifficulty,
			Value:  strconv.Itoa(d.Level),
		})
	}
	return ui.Bubble{Kind: ui.BubbleOptions, Text: msgPracticeDifficulty, Options: opts}
}

// SelectPracticeType picks the problem family and asks for a difficulty. A
// second pick replaces the difficulty menu rather than stacking another.
func (a *App) SelectPracticeType(kind catalog.Mode) {
	if _, ok := a.catalog.PracticeType(kind); !ok {
		a.logger.Error("practice.unknown_type", map[string]any{"type": string(kind)})
		return
	}
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	p := &a.sess.practice
	if !p.active || p.difficulty != 0 {
		return
	}
	p.kind = kind
	if p.levelMenu != 0 {
		a.sess.remove(p.levelMenu)
	}
	p.levelMenu = a.sess.add(a.difficultyMenuBubble())
	a.paintHeaderLocked()
	a.paintConversationLocked()
	a.logger.Info("practice.type", map[string]any{"type": string(kind)})
}

// SelectPracticeDifficulty freezes both menus and fetches exactly one problem.
func (a *App) SelectPracticeDifficulty(ctx context.Context, level int) {
	if _, ok := a.catalog.Difficulty(level); !ok {
		a.logger.Error("practice.unknown_difficulty", map[string]any{"level": level})
		return
	}
	a.sess.mu.Lock()
	p := &a.sess.practice
	if !p.active || p.difficulty != 0 {
		a.sess.mu.Unlock()
		return
	}
	if p.kind == "" {
		a.sess.add(ui.Bubble{Kind: ui.BubbleWarning, Text: msgSelectPracticeType})
		a.paintConversationLocked()
		a.sess.mu.Unlock()
		return
	}
	pt, _ := a.catalog.PracticeType(p.kind)
	p.difficulty = level
	p.loading = true
	a.sess.disable(p.typeMenu, p.levelMenu)
	gen := a.sess.generation
	loadID := a.sess.add(ui.Bubble{Kind: ui.BubbleLoading, Text: msgProblemLoading})
	a.paintHeaderLocked()
	a.paintConversationLocked()
	a.sess.mu.Unlock()

	a.logger.Info("practice.fetch", map[string]any{"type": string(pt.ID), "level": level, "generation": gen})
	prob, err := a.backend.FetchProblem(ctx, pt, level)

	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	if gen != a.sess.generation {
		if a.sess.replace(loadID, ui.Bubble{Kind: ui.BubbleWarning, Text: msgDiscarded}) {
			a.paintConversationLocked()
		}
		return
	}
	a.sess.practice.loading = false
	if err != nil {
		a.logger.Error("practice.fetch_failed", map[string]any{"type": string(pt.ID), "level": level, "error": err.Error()})
		a.sess.replace(loadID, ui.Bubble{Kind: ui.BubbleError, Text: practiceError(err, "Failed to get practice problem")})
		a.paintConversationLocked()
		return
	}
	a.sess.practice.problem = prob
	a.sess.replace(loadID, problemBubble(pt.ID, prob))
	a.paintConversationLocked()
}

func practiceError(err error, fallback string) string {
	if api.IsHTTP(err) {
		return fmt.Sprintf(msgPracticeError, api.Message(err, fallback))
	}
	return msgPracticeNetwork
}

func problemBubble(kind catalog.Mode, p *api.Problem) ui.Bubble {
	var md strings.Builder
	b := ui.Bubble{Kind: ui.BubbleSolution}
	switch kind {
	case catalog.ModeParametric:
		md.WriteString("**Given:**\n\n")
		fmt.Fprintf(&md, "- x(t) = `%s`\n", firstNonEmpty(p.XText, p.XLatex))
		fmt.Fprintf(&md, "- y(t) = `%s`\n\n", firstNonEmpty(p.YText, p.YLatex))
		md.WriteString("**Find:** ∫ y dx\n\n*Express your answer in terms of t*\n")
	case catalog.ModePolar:
		inner := firstNonEmpty(p.InnerText, p.InnerLatex)
		outer := firstNonEmpty(p.OuterText, p.OuterLatex)
		md.WriteString("**Given polar functions:**\n\n")
		fmt.Fprintf(&md, "- Inner: r₁(θ) = `%s`\n", inner)
		fmt.Fprintf(&md, "- Outer: r₂(θ) = `%s`\n\n", outer)
		fmt.Fprintf(&md, "Bounds: θ ∈ [%s, %s]\n\n", firstNonEmpty(p.LowerBoundDisplay, "0"), firstNonEmpty(p.UpperBoundDisplay, "2π"))
		md.WriteString("**Find:** Area of the region between the inner and outer curves\n\n")
		md.WriteString("*Enter your answer as a decimal rounded to three decimal places*\n")
		if p.OuterText != "" {
			b.Lines = graph.PolarRegion(p.InnerText, p.OuterText).Lines()
		}
	default:
		md.WriteString("**Solve:**\n\n")
		fmt.Fprintf(&md, "`%s`\n", firstNonEmpty(p.ProblemText, p.ProblemLatex))
	}
	if p.Hint != "" {
		fmt.Fprintf(&md, "\n> Hint: %s\n", p.Hint)
	}
	b.Markdown = md.String()
	return b
}

func (a *App) OnSubmitAnswer(answer string) {
	a.SubmitPracticeAnswer(context.Background(), answer)
}

// SubmitPracticeAnswer grades answer, or reveals the solution when the
// answer is "give up" in any case.
func (a *App) SubmitPracticeAnswer(ctx context.Context, answer string) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return
	}
	a.sess.mu.Lock()
	p := a.sess.practice
	switch {
	case !p.active:
		a.sess.mu.Unlock()
		return
	case p.kind == "":
		a.sess.add(ui.Bubble{Kind: ui.BubbleWarning, Text: msgSelectPracticeType})
		a.paintConversationLocked()
		a.sess.mu.Unlock()
		return
	case p.difficulty == 0:
		a.sess.add(ui.Bubble{Kind: ui.BubbleWarning, Text: msgSelectDifficulty})
		a.paintConversationLocked()
		a.sess.mu.Unlock()
		return
	case p.problem == nil:
		a.sess.mu.Unlock()
		a.view.FlashStatus(msgProblemLoading)
		return
	}
	giveUp := strings.EqualFold(answer, giveUpCommand)
	if !giveUp {
		a.sess.add(ui.Bubble{Role: ui.RoleUser, Kind: ui.BubbleText, Text: answer})
	}
	gen := a.sess.generation
	loadID := a.sess.add(ui.Bubble{Kind: ui.BubbleLoading, Text: "Checking..."})
	a.paintConversationLocked()
	a.sess.mu.Unlock()

	pt, _ := a.catalog.PracticeType(p.kind)
	attempt := state.PracticeAttempt{ProblemID: p.problem.ID, ProblemType: string(p.kind), Difficulty: p.difficulty}
	if giveUp {
		res, err := a.backend.GiveUp(ctx, api.GiveUpRequest{ProblemID: p.problem.ID, ProblemType: string(p.kind)})
		if a.finishAnswer(gen, loadID, err) {
			return
		}
		a.sess.mu.Lock()
		a.sess.replace(loadID, revealBubble(p.kind, res))
		a.endRoundLocked()
		a.sess.mu.Unlock()
		attempt.Outcome = state.OutcomeGaveUp
		a.recordAttempt(ctx, attempt)
		return
	}

	res, err := a.backend.SubmitAnswer(ctx, pt, api.AnswerRequest{ProblemID: p.problem.ID, Answer: answer})
	if a.finishAnswer(gen, loadID, err) {
		return
	}
	a.sess.mu.Lock()
	if res.Correct {
		a.sess.replace(loadID, ui.Bubble{Kind: ui.BubbleSuccess, Text: msgCorrect})
		a.endRoundLocked()
		attempt.Outcome = state.OutcomeCorrect
	} else {
		a.sess.replace(loadID, ui.Bubble{Kind: ui.BubbleError, Text: msgIncorrect})
		a.paintConversationLocked()
		attempt.Outcome = state.OutcomeIncorrect
	}
	a.sess.mu.Unlock()
	a.recordAttempt(ctx, attempt)
}

// finishAnswer settles a stale or failed grading request. It reports true
// when the caller has nothing left to do.
func (a *App) finishAnswer(gen uint64, loadID int, err error) bool {
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	if gen != a.sess.generation {
		if a.sess.replace(loadID, ui.Bubble{Kind: ui.BubbleWarning, Text: msgDiscarded}) {
			a.paintConversationLocked()
		}
		return true
	}
	if err != nil {
		a.logger.Error("practice.answer_failed", map[string]any{"error": err.Error()})
		a.sess.replace(loadID, ui.Bubble{Kind: ui.BubbleError, Text: practiceError(err, "Failed to check answer")})
		a.paintConversationLocked()
		return true
	}
	return false
}

func revealBubble(kind catalog.Mode, res *api.GiveUpResult) ui.Bubble {
	var md strings.Builder
	md.WriteString("### 💡 Solution\n\n")
	if kind == catalog.ModePolar {
		fmt.Fprintf(&md, "**Solution:** %s\n", res.CorrectAnswer)
	} else {
		fmt.Fprintf(&md, "**Solution:** `%s`\n", firstNonEmpty(res.CorrectAnswerLatex, res.CorrectAnswer))
	}
	return ui.Bubble{Kind: ui.BubbleSolution, Markdown: md.String()}
}

// endRoundLocked clears the finished problem and offers the next one. The
// answer input stays so a stray submission gets the selection prompts.
func (a *App) endRoundLocked() {
	a.sess.practice = practiceState{active: true}
	a.sess.add(ui.Bubble{
		Kind:    ui.BubbleOptions,
		Options: []ui.Option{{Label: "Next Problem", Action: actionNextProblem}},
	})
	a.paintHeaderLocked()
	a.paintConversationLocked()
}

func (a *App) recordAttempt(ctx context.Context, attempt state.PracticeAttempt) {
	attempt.TS = time.Now()
	if err := a.store.RecordPracticeAttempt(ctx, attempt); err != nil {
		a.logger.Error("state.record_attempt_failed", map[string]any{"error": err.Error()})
	}
	a.logger.Info("practice.answer", map[string]any{"problem": attempt.ProblemID, "outcome": string(attempt.Outcome)})
}

// NextProblem shows the type menu again. The solver mode is left alone.
func (a *App) NextProblem() {
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	a.sess.disableMenus()
	a.sess.practice = practiceState{active: true}
	a.sess.practice.typeMenu = a.sess.add(a.typeMenuBubble())
	a.paintInputsLocked()
	a.paintHeaderLocked()
	a.paintConversationLocked()
}
