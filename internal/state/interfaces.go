package state

import (
	"context"
	"net/http"
	"time"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	SaveCookies(ctx context.Context, baseURL string, cookies []*http.Cookie) error
	LoadCookies(ctx context.Context, baseURL string, now time.Time) ([]*http.Cookie, error)
	ClearCookies(ctx context.Context, baseURL string) error
	RecordPracticeAttempt(ctx context.Context, attempt PracticeAttempt) error
	PracticeSummary(ctx context.Context) (PracticeSummary, error)
	RecordSolve(ctx context.Context, solve SolveRecord) error
	CountSolves(ctx context.Context) (int, error)
	Close() error
}

type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeGaveUp    Outcome = "gave_up"
)

type PracticeAttempt struct {
	ProblemID   int64
	ProblemType string
	Difficulty  int
	Outcome     Outcome
	TS          time.Time
}

type PracticeSummary struct {
	Attempts int
	Correct  int
	GaveUp   int
	Problems int
	ByType   map[string]int
	LastTS   time.Time
}

type SolveRecord struct {
	SolverType string
	Input      string
	Solution   string
	TS         time.Time
}
