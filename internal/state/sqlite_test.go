package state

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestSettingsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.SaveSettings(ctx, map[string]string{"style": "cozy_clean", " ": "skipped"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"style": "retro_terminal"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got["style"] != "retro_terminal" {
		t.Fatalf("unexpected settings: %v", got)
	}
}

func TestCookiesReplaceAndExpire(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	base := "http://localhost:5000"

	err := store.SaveCookies(ctx, base, []*http.Cookie{
		{Name: "session", Value: "abc", HttpOnly: true},
		{Name: "stale", Value: "old", Expires: now.Add(-time.Hour)},
	})
	if err != nil {
		t.Fatalf("save cookies: %v", err)
	}
	got, err := store.LoadCookies(ctx, base, now)
	if err != nil {
		t.Fatalf("load cookies: %v", err)
	}
	if len(got) != 1 || got[0].Name != "session" || got[0].Value != "abc" || !got[0].HttpOnly || got[0].Path != "/" {
		t.Fatalf("unexpected cookies: %+v", got)
	}

	if err := store.SaveCookies(ctx, base, []*http.Cookie{{Name: "session", Value: "def"}}); err != nil {
		t.Fatalf("replace cookies: %v", err)
	}
	got, _ = store.LoadCookies(ctx, base, now)
	if len(got) != 1 || got[0].Value != "def" {
		t.Fatalf("expected replaced cookie, got %+v", got)
	}

	if other, _ := store.LoadCookies(ctx, "http://elsewhere", now); len(other) != 0 {
		t.Fatalf("cookies leaked across base urls: %+v", other)
	}

	if err := store.ClearCookies(ctx, base); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = store.LoadCookies(ctx, base, now)
	if len(got) != 0 {
		t.Fatalf("expected no cookies after clear, got %+v", got)
	}
}

func TestPracticeSummary(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	ts := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	attempts := []PracticeAttempt{
		{ProblemID: 101, ProblemType: "integral", Difficulty: 1, Outcome: OutcomeIncorrect, TS: ts},
		{ProblemID: 101, ProblemType: "integral", Difficulty: 1, Outcome: OutcomeCorrect, TS: ts.Add(time.Minute)},
		{ProblemID: 301, ProblemType: "polar", Difficulty: 1, Outcome: OutcomeGaveUp, TS: ts.Add(2 * time.Minute)},
		{ProblemID: 0, ProblemType: "polar", Outcome: OutcomeCorrect},
	}
	for _, a := range attempts {
		if err := store.RecordPracticeAttempt(ctx, a); err != nil {
			t.Fatalf("record attempt: %v", err)
		}
	}
	sum, err := store.PracticeSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Attempts != 3 || sum.Correct != 1 || sum.GaveUp != 1 || sum.Problems != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.ByType["integral"] != 2 || sum.ByType["polar"] != 1 {
		t.Fatalf("unexpected per-type counts: %v", sum.ByType)
	}
	if !sum.LastTS.Equal(ts.Add(2 * time.Minute)) {
		t.Fatalf("unexpected last ts: %v", sum.LastTS)
	}
}

func TestEmptyPracticeSummary(t *testing.T) {
	sum, err := openStore(t).PracticeSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Attempts != 0 || !sum.LastTS.IsZero() {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
}

func TestRecordAndCountSolves(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, in := range []string{"x^2", "  ", "t, t^2"} {
		if err := store.RecordSolve(ctx, SolveRecord{Input: in, Solution: "s"}); err != nil {
			t.Fatalf("record solve: %v", err)
		}
	}
	n, err := store.CountSolves(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 solves, got %d", n)
	}
}
