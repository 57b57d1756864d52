package app

import "time"

// User-facing copy. These strings are matched by tests and by people who
// know the web client, so keep them verbatim.
const (
	messageSolverSignupRequired = "solver_signup_required"

	msgWelcomeGuest      = "Solve integrals step by step. Sign up to unlock the solver and practice problems."
	msgSignupRequired    = "Please sign up to access the Integral Solver"
	msgSignupModalTitle  = "Sign Up Required"
	msgSignupModalBody   = "Create a free account to solve integrals and practice with step-by-step feedback."
	msgLoggedOut         = "✓ Logged out successfully!"
	msgLoginWelcome      = "Welcome back, %s!"
	msgSignupWelcome     = "Account created. Welcome, %s!"
	msgForgotSent        = "If that email is registered, a reset link is on its way."
	msgResetInvalidToken = "This password reset link is invalid or has expired."
	msgResetMissingToken = "Open the reset link from your email, or run with --reset-token."
	msgResetDone         = "Password updated. Please log in."
	msgProfileSaved      = "Profile updated"
	msgPasswordChanged   = "Password changed"
	msgOAuthPassword     = "Password changes are not available for OAuth users"
	msgAccountDeleted    = "Your account has been deleted"

	msgSelectSolver       = "Please select a solver type (Regular, Parametric, or Polar)"
	msgSelectPracticeType = "Please select a problem type (Regular, Parametric, or Polar) first"
	msgSelectDifficulty   = "Please select a difficulty level (1-4) first"
	msgParametricBlank    = "⚠️ Please enter both x(t) and y(t) expressions"
	msgPolarBlank         = "⚠️ Please enter the outer function"
	msgIntegralBlank      = "Enter an integral to solve"
	msgFixValidation      = "⚠️ Please fix the validation errors before solving"
	msgSolveError         = "⚠️ Error: %s"
	msgSolveNetwork       = "⌘ Network error. Please try again."
	msgDiscarded          = "Result discarded: the solver mode changed."
	msgNothingToSave      = "Solve an integral first, then save it"
	msgSaved              = "Problem saved to your history"
	msgNoHistory          = "No recent problems"
	msgWelcomeSolver      = "Choose a solver type to get started, or practice with graded problems."

	msgPracticeIntro      = "📚 Practice Mode\nSelect a problem type to get started:"
	msgPracticeDifficulty = "⚡ Select Difficulty\nChoose your difficulty level:"
	msgPracticeNetwork    = "Network error. Please try again."
	msgPracticeError      = "Error: %s"
	msgProblemLoading     = "Loading your problem..."
	msgCorrect            = "✅ Correct!"
	msgIncorrect          = "❌ Incorrect — Try again or type \"give up\" to see the solution."
	answerPlaceholder     = "Enter your answer or [give up]"
	giveUpCommand         = "give up"
)

// Toast lifetimes.
const (
	toastError          = 3 * time.Second
	toastSuccess        = 3 * time.Second
	toastLogout         = 1500 * time.Millisecond
	toastSignupRequired = 2 * time.Second
	toastForgotSent     = 4 * time.Second
	toastResetError     = 10 * time.Second
)

// Option actions carried by conversation menus.
const (
	actionMode         = "mode"
	actionPractice     = "practice"
	actionPracticeType = "practice_type"
	actionDifficulty   = "difficulty"
	actionNextProblem  = "next_problem"
)

// Modal option values.
const (
	valueConfirm = "confirm"
	valueCancel  = "cancel"
	valueSignup  = "signup"
	valueLogin   = "login"
)
