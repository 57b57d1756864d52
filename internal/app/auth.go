package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"integralcli/internal/api"
	"integralcli/internal/catalog"
	"integralcli/internal/ui"
	"integralcli/internal/validate"
)

// CheckAuthOnLoad asks the backend who we are. Anything but a 2xx with a
// user, transport failures included, leaves the session a guest.
func (a *App) CheckAuthOnLoad(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, api.FixedTimeout)
	defer cancel()
	user, err := a.backend.Me(ctx)
	if err != nil {
		if !api.IsUnauthorized(err) {
			a.logger.Error("auth.check_failed", map[string]any{"error": err.Error()})
		}
		a.setUser(nil)
		return
	}
	a.logger.Info("auth.check", map[string]any{"user": user.ID})
	a.setUser(user)
	a.refreshProfileState(ctx)
}

// setUser replaces the identity wholesale and repaints the nav. Dropping to
// guest also ends every solver and practice session.
func (a *App) setUser(user *api.User) {
	a.sess.mu.Lock()
	wasAuthed := a.sess.authenticated()
	a.sess.user = user
	if user == nil && wasAuthed {
		a.sess.bump()
		a.sess.clearConversation()
		a.sess.resetPractice()
		a.sess.mode = catalog.ModeNone
	}
	nav := ui.NavState{Authenticated: user != nil, FirstName: a.sess.firstName()}
	a.sess.mu.Unlock()

	a.view.SetNav(nav)
	if user == nil {
		a.view.SetWelcome(msgWelcomeGuest)
		a.view.SetProfile(ui.ProfileState{})
		return
	}
	a.view.SetWelcome(fmt.Sprintf("Welcome back, %s! Pick a solver type or start a practice round.", user.FirstName))
}

func (a *App) OnLogout() {
	a.Logout(context.Background())
}

// Logout ends the session locally whatever the server says.
func (a *App) Logout(ctx context.Context) {
	if err := a.backend.Logout(ctx); err != nil {
		a.logger.Error("auth.logout_failed", map[string]any{"error": err.Error()})
	}
	a.setUser(nil)
	a.persistCookies(ctx)
	a.paintSolver()
	a.toastSuccess(msgLoggedOut, toastLogout)
	switch a.currentScreen() {
	case ui.ScreenSolver, ui.ScreenProfile:
		a.setScreen(ui.ScreenHome)
	}
	a.logger.Info("auth.logout", nil)
}

func (a *App) showSignupRequired() {
	a.view.OpenModal(ui.Modal{
		Kind:  ui.ModalSignupRequired,
		Title: msgSignupModalTitle,
		Lines: []string{msgSignupModalBody},
		Options: []ui.Option{
			{Label: "Sign up", Value: valueSignup},
			{Label: "I already have an account", Value: valueLogin},
			{Label: "Not now", Value: valueCancel},
		},
	})
	a.view.ShowToast(ui.Toast{Kind: ui.ToastError, Text: msgSignupRequired, Duration: toastSignupRequired})
}

func (a *App) OnSubmitForm(form ui.FormID, values map[string]string) {
	ctx := context.Background()
	switch form {
	case ui.FormLogin:
		a.submitLogin(ctx, values)
	case ui.FormSignup:
		a.submitSignup(ctx, values)
	case ui.FormForgot:
		a.submitForgot(ctx, values)
	case ui.FormReset:
		a.submitReset(ctx, values)
	case ui.FormProfile:
		a.submitProfile(ctx, values)
	case ui.FormPassword:
		a.submitPasswordChange(ctx, values)
	default:
		a.logger.Error("form.unknown", map[string]any{"form": string(form)})
	}
}

// checkForm paints every error at once and focuses the first invalid field.
func (a *App) checkForm(form ui.FormID, errs validate.Errors) bool {
	if errs.Valid() {
		a.view.SetFieldErrors(form, nil, "")
		return true
	}
	a.view.SetFieldErrors(form, errs.Map(), errs.FirstField())
	return false
}

func (a *App) login(ctx context.Context, email, password string) error {
	resp, err := a.backend.Login(ctx, api.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return err
	}
	user := resp.User
	if user == nil {
		if user, err = a.backend.Me(ctx); err != nil {
			return err
		}
	}
	a.setUser(user)
	a.persistCookies(ctx)
	a.refreshProfileState(ctx)
	a.logger.Info("auth.login", map[string]any{"user": user.ID})
	return nil
}

func (a *App) submitLogin(ctx context.Context, values map[string]string) {
	form := validate.LoginForm{Email: values["email"], Password: values["password"]}
	if !a.checkForm(ui.FormLogin, validate.Login(form)) {
		return
	}
	a.view.SetFormBusy(ui.FormLogin, true)
	defer a.view.SetFormBusy(ui.FormLogin, false)
	if err := a.login(ctx, form.Email, form.Password); err != nil {
		a.logger.Error("auth.login_failed", map[string]any{"error": err.Error()})
		a.toastError(api.FriendlyMessage(err))
		return
	}
	a.view.SetFormValues(ui.FormLogin, nil)
	a.sess.mu.Lock()
	name := a.sess.firstName()
	a.sess.mu.Unlock()
	a.toastSuccess(fmt.Sprintf(msgLoginWelcome, name), toastSuccess)
	a.setScreen(ui.ScreenHome)
}

func (a *App) submitSignup(ctx context.Context, values map[string]string) {
	form := validate.SignupForm{
		FirstName: values["first_name"],
		LastName:  values["last_name"],
		Email:     values["email"],
		Password:  values["password"],
	}
	if !a.checkForm(ui.FormSignup, validate.Signup(form)) {
		return
	}
	a.view.SetFormBusy(ui.FormSignup, true)
	defer a.view.SetFormBusy(ui.FormSignup, false)
	resp, err := a.backend.Signup(ctx, api.SignupRequest{
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Email:     strings.TrimSpace(form.Email),
		Password:  form.Password,
	})
	if err != nil {
		a.logger.Error("auth.signup_failed", map[string]any{"error": err.Error()})
		a.toastError(api.FriendlyMessage(err))
		return
	}
	user := resp.User
	if user == nil {
		if user, err = a.backend.Me(ctx); err != nil {
			a.toastError(api.FriendlyMessage(err))
			return
		}
	}
	a.setUser(user)
	a.persistCookies(ctx)
	a.refreshProfileState(ctx)
	a.view.SetFormValues(ui.FormSignup, nil)
	a.toastSuccess(fmt.Sprintf(msgSignupWelcome, user.FirstName), toastSuccess)
	a.logger.Info("auth.signup", map[string]any{"user": user.ID})
	a.setScreen(ui.ScreenHome)
}

func (a *App) OnForgotPassword() {
	a.view.OpenModal(ui.Modal{
		Kind:  ui.ModalForgot,
		Title: "Reset your password",
		Lines: []string{"Enter your account email and we will send you a reset link."},
		Form:  ui.FormForgot,
	})
}

func (a *App) submitForgot(ctx context.Context, values map[string]string) {
	form := validate.ForgotForm{Email: values["email"]}
	if !a.checkForm(ui.FormForgot, validate.Forgot(form)) {
		return
	}
	a.view.SetFormBusy(ui.FormForgot, true)
	defer a.view.SetFormBusy(ui.FormForgot, false)
	msg, err := a.backend.ForgotPassword(ctx, strings.TrimSpace(form.Email))
	if err != nil {
		a.logger.Error("auth.forgot_failed", map[string]any{"error": err.Error()})
		a.toastError(api.FriendlyMessage(err))
		return
	}
	a.view.CloseModal(ui.ModalForgot)
	a.view.SetFormValues(ui.FormForgot, nil)
	a.toastSuccess(firstNonEmpty(msg, msgForgotSent), toastForgotSent)
}

// openReset verifies a reset token before showing the new-password form. An
// empty token reuses the one already verified this session.
func (a *App) openReset(ctx context.Context, token string) {
	a.sess.mu.Lock()
	if token == "" {
		token = a.sess.resetToken
	}
	a.sess.mu.Unlock()
	if token == "" {
		a.view.ShowToast(ui.Toast{Kind: ui.ToastError, Text: msgResetMissingToken, Duration: toastResetError})
		a.setScreen(ui.ScreenLogin)
		return
	}
	valid, err := a.backend.VerifyResetToken(ctx, token)
	if err != nil || !valid {
		if err != nil {
			a.logger.Error("auth.reset_verify_failed", map[string]any{"error": err.Error()})
		}
		a.view.ShowToast(ui.Toast{Kind: ui.ToastError, Text: msgResetInvalidToken, Duration: toastResetError})
		a.setScreen(ui.ScreenLogin)
		return
	}
	a.sess.mu.Lock()
	a.sess.resetToken = token
	a.sess.mu.Unlock()
	a.setScreen(ui.ScreenReset)
}

func (a *App) submitReset(ctx context.Context, values map[string]string) {
	form := validate.ResetForm{Password: values["password"], Confirm: values["confirm"]}
	if !a.checkForm(ui.FormReset, validate.Reset(form)) {
		return
	}
	a.sess.mu.Lock()
	token := a.sess.resetToken
	a.sess.mu.Unlock()
	if token == "" {
		a.view.ShowToast(ui.Toast{Kind: ui.ToastError, Text: msgResetMissingToken, Duration: toastResetError})
		return
	}
	a.view.SetFormBusy(ui.FormReset, true)
	defer a.view.SetFormBusy(ui.FormReset, false)
	msg, err := a.backend.ResetPassword(ctx, token, form.Password)
	if err != nil {
		a.logger.Error("auth.reset_failed", map[string]any{"error": err.Error()})
		a.view.ShowToast(ui.Toast{Kind: ui.ToastError, Text: api.FriendlyMessage(err), Duration: toastResetError})
		return
	}
	a.sess.mu.Lock()
	a.sess.resetToken = ""
	a.sess.mu.Unlock()
	a.view.SetFormValues(ui.FormReset, nil)
	a.toastSuccess(firstNonEmpty(msg, msgResetDone), toastSuccess)
	a.setScreen(ui.ScreenLogin)
}

func (a *App) OnOAuthHint() {
	a.view.OpenModal(ui.Modal{
		Kind:  ui.ModalInfo,
		Title: "Sign in with Google or GitHub",
		Lines: []string{
			"Third-party sign in happens in your browser:",
			"",
			"  Google  " + a.backend.OAuthURL("google"),
			"  GitHub  " + a.backend.OAuthURL("github"),
			"",
			"Press y to copy, Enter to close.",
		},
	})
}

func (a *App) currentUser() (api.User, bool) {
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	if a.sess.user == nil {
		return api.User{}, false
	}
	return *a.sess.user, true
}

func (a *App) submitProfile(ctx context.Context, values map[string]string) {
	form := validate.ProfileForm{FirstName: values["first_name"], LastName: values["last_name"], Email: values["email"]}
	if !a.checkForm(ui.FormProfile, validate.Profile(form)) {
		return
	}
	a.view.SetFormBusy(ui.FormProfile, true)
	defer a.view.SetFormBusy(ui.FormProfile, false)
	user, err := a.backend.UpdateProfile(ctx, api.ProfileUpdate{
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Email:     strings.TrimSpace(form.Email),
	})
	if err != nil {
		a.logger.Error("profile.update_failed", map[string]any{"error": err.Error()})
		a.toastError(api.FriendlyMessage(err))
		return
	}
	if user != nil {
		a.setUser(user)
	}
	a.toastSuccess(msgProfileSaved, toastSuccess)
	a.loadProfile(ctx)
}

func (a *App) submitPasswordChange(ctx context.Context, values map[string]string) {
	if user, ok := a.currentUser(); ok && user.IsOAuth() {
		a.toastError(msgOAuthPassword)
		return
	}
	form := validate.PasswordChangeForm{
		Current: values["current_password"],
		New:     values["new_password"],
		Confirm: values["confirm_password"],
	}
	if !a.checkForm(ui.FormPassword, validate.PasswordChange(form)) {
		return
	}
	a.view.SetFormBusy(ui.FormPassword, true)
	defer a.view.SetFormBusy(ui.FormPassword, false)
	err := a.backend.ChangePassword(ctx, api.PasswordChange{CurrentPassword: form.Current, NewPassword: form.New})
	if err != nil {
		a.logger.Error("profile.password_failed", map[string]any{"error": err.Error()})
		a.toastError(api.FriendlyMessage(err))
		return
	}
	a.view.SetFormValues(ui.FormPassword, nil)
	a.toastSuccess(msgPasswordChanged, toastSuccess)
}

func (a *App) OnDeleteAccount() {
	a.view.OpenModal(ui.Modal{
		Kind:  ui.ModalDeleteAccount,
		Title: "Delete account",
		Lines: []string{
			"This permanently deletes your account, saved problems and practice progress.",
			"This cannot be undone.",
		},
		Options: []ui.Option{
			{Label: "Keep my account", Value: valueCancel},
			{Label: "Delete my account", Value: valueConfirm},
		},
	})
}

func (a *App) deleteAccount(ctx context.Context) {
	if err := a.backend.DeleteAccount(ctx); err != nil {
		a.logger.Error("profile.delete_failed", map[string]any{"error": err.Error()})
		a.toastError(api.FriendlyMessage(err))
		return
	}
	a.setUser(nil)
	a.persistCookies(ctx)
	a.paintSolver()
	a.toastSuccess(msgAccountDeleted, toastSuccess)
	a.setScreen(ui.ScreenHome)
	a.logger.Info("profile.deleted", nil)
}

func (a *App) loadProfile(ctx context.Context) {
	user, ok := a.currentUser()
	if !ok {
		return
	}
	a.view.SetFormValues(ui.FormProfile, map[string]string{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
	})
	a.refreshProfileState(ctx)
}

func (a *App) loadHomeStats(ctx context.Context) {
	a.refreshProfileState(ctx)
}

// refreshProfileState gathers server and on-device stats. A failing source
// leaves its figures at zero rather than failing the screen.
func (a *App) refreshProfileState(ctx context.Context) {
	user, ok := a.currentUser()
	if !ok {
		return
	}
	ps := ui.ProfileState{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Provider:  user.AuthProvider,
		OAuth:     user.IsOAuth(),
	}
	if stats, err := a.backend.UserStats(ctx); err != nil {
		a.logger.Error("profile.user_stats_failed", map[string]any{"error": err.Error()})
	} else {
		ps.ProblemsSolved = stats.ProblemsSolved
		ps.MemberSince = stats.MemberSince
		ps.LastActivity = stats.LastActivity
	}
	if stats, err := a.backend.PracticeStats(ctx); err != nil {
		a.logger.Error("profile.practice_stats_failed", map[string]any{"error": err.Error()})
	} else {
		ps.PracticeAttempted = stats.TotalAttempted
		ps.PracticeCompleted = stats.TotalCompleted
		ps.PracticeAvailable = stats.TotalAvailable
		ps.PracticePercent = stats.CompletionPercentage
		ps.PracticeAccuracy = stats.Accuracy
	}
	if sum, err := a.store.PracticeSummary(ctx); err != nil {
		a.logger.Error("profile.local_summary_failed", map[string]any{"error": err.Error()})
	} else {
		ps.LocalAttempts = sum.Attempts
		ps.LocalCorrect = sum.Correct
		ps.LocalGaveUp = sum.GaveUp
		if !sum.LastTS.IsZero() {
			ps.LocalLast = sum.LastTS.Local().Format(time.DateTime)
		}
	}
	if n, err := a.store.CountSolves(ctx); err != nil {
		a.logger.Error("profile.count_solves_failed", map[string]any{"error": err.Error()})
	} else {
		ps.LocalSaved = n
	}
	a.view.SetProfile(ps)
}
