package app

import (
	"context"
	"net/http"

	"integralcli/internal/api"
	"integralcli/internal/catalog"
	"integralcli/internal/state"
	"integralcli/internal/ui"
)

// Backend is the slice of the REST client the controller drives.
type Backend interface {
	BaseURL() string
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
	OAuthURL(provider string) string

	Me(ctx context.Context) (*api.User, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Signup(ctx context.Context, req api.SignupRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyResetToken(ctx context.Context, token string) (bool, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	UpdateProfile(ctx context.Context, req api.ProfileUpdate) (*api.User, error)
	ChangePassword(ctx context.Context, req api.PasswordChange) error
	DeleteAccount(ctx context.Context) error
	UserStats(ctx context.Context) (*api.UserStats, error)
	PracticeStats(ctx context.Context) (*api.PracticeStats, error)

	Solve(ctx context.Context, req api.SolveRequest) (*api.Solution, error)
	Save(ctx context.Context, req api.SaveRequest) (*api.SaveResult, error)
	History(ctx context.Context, page, perPage int) (*api.HistoryPage, error)

	FetchProblem(ctx context.Context, pt catalog.PracticeType, difficulty int) (*api.Problem, error)
	SubmitAnswer(ctx context.Context, pt catalog.PracticeType, req api.AnswerRequest) (*api.AnswerResult, error)
	GiveUp(ctx context.Context, req api.GiveUpRequest) (*api.GiveUpResult, error)
}

type Store = state.Store

type View = ui.View

// EventLogger is what the controller logs through; *telemetry.Logger
// satisfies it.
type EventLogger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Close() error
}

var _ Backend = (*api.Client)(nil)
