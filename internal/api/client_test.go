package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"integralcli/internal/catalog"
	"integralcli/internal/devtools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingLogger) Info(msg string, _ map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, msg)
}

func (l *recordingLogger) Error(msg string, _ map[string]any) { l.Info(msg, nil) }

func setup(t *testing.T) (*devtools.FakeBackend, *Client, catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	backend := devtools.NewFakeBackend(cat)
	backend.AddUser("Ada", "Lovelace", "ada@example.com", "password123")
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/", Logger: &recordingLogger{}})
	require.NoError(t, err)
	return backend, c, cat
}

func login(t *testing.T, c *Client) {
	t.Helper()
	res, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotNil(t, res.User)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestMeWithoutSessionIsUnauthorized(t *testing.T) {
	_, c, _ := setup(t)
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Not logged in", FriendlyMessage(err))
}

func TestCookieSessionRoundTrip(t *testing.T) {
	_, c, _ := setup(t)
	login(t, c)
	require.NotEmpty(t, c.Cookies())

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FirstName)
	assert.False(t, u.IsOAuth())

	// A second client adopting the cookies shares the session.
	other, err := New(Options{BaseURL: c.BaseURL()})
	require.NoError(t, err)
	other.SetCookies(c.Cookies())
	_, err = other.Me(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	_, err = c.Me(context.Background())
	assert.True(t, IsUnauthorized(err))
}

func TestCookiesKeepServerAttributes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/", MaxAge: 3600, HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "pref", Value: "dark", Path: "/", Expires: time.Now().Add(2 * time.Hour)})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	before := time.Now()
	_, err = c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	byName := map[string]*http.Cookie{}
	for _, ck := range c.Cookies() {
		byName[ck.Name] = ck
	}
	require.Contains(t, byName, "session")
	session := byName["session"]
	assert.Equal(t, "abc", session.Value)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, "/", session.Path)
	assert.WithinDuration(t, before.Add(time.Hour), session.Expires, 5*time.Second)
	require.Contains(t, byName, "pref")
	assert.WithinDuration(t, before.Add(2*time.Hour), byName["pref"].Expires, 5*time.Second)

	require.NoError(t, c.Logout(context.Background()))
	for _, ck := range c.Cookies() {
		assert.NotEqual(t, "session", ck.Name)
	}
}

func TestSolveSendsWireBody(t *testing.T) {
	backend, c, _ := setup(t)
	login(t, c)
	sol, err := c.Solve(context.Background(), SolveRequest{Integral: "x^2", SolverType: "integral"})
	require.NoError(t, err)
	assert.Equal(t, "x^3/3 + C", sol.Solution)

	bodies := backend.Bodies(http.MethodPost, "/api/solver/solve")
	require.Len(t, bodies, 1)
	assert.Equal(t, map[string]any{"integral": "x^2", "solverType": "integral"}, bodies[0])
}

func TestHTTPErrorKeepsServerMessage(t *testing.T) {
	_, c, _ := setup(t)
	_, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	require.Error(t, err)
	var herr *Error
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusUnauthorized, herr.Status)
	assert.Equal(t, "Invalid email or password", Message(err, "fallback"))
}

func TestSaveAndHistory(t *testing.T) {
	_, c, _ := setup(t)
	login(t, c)
	_, err := c.Save(context.Background(), SaveRequest{Input: "x^2", Solution: "x^3/3 + C", SolverType: "integral"})
	require.NoError(t, err)
	page, err := c.History(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Problems, 1)
	assert.Equal(t, "integral", page.Problems[0].SolverType)
}

func TestPracticeEndpointsFollowCatalog(t *testing.T) {
	backend, c, cat := setup(t)
	login(t, c)
	pt, ok := cat.PracticeType(catalog.ModeParametric)
	require.True(t, ok)

	p, err := c.FetchProblem(context.Background(), pt, 1)
	require.NoError(t, err)
	assert.Equal(t, "t", p.XText)
	assert.Equal(t, 1, backend.Calls(http.MethodGet, "/api/practice/parametric/problems/1"))

	res, err := c.SubmitAnswer(context.Background(), pt, AnswerRequest{ProblemID: p.ID, Answer: "nope"})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, 1, res.Attempts)

	gu, err := c.GiveUp(context.Background(), GiveUpRequest{ProblemID: p.ID, ProblemType: "parametric"})
	require.NoError(t, err)
	assert.NotEmpty(t, gu.CorrectAnswer)
	assert.Equal(t, 2, gu.Attempts)
}

func TestCancelledContextMapsToFriendlyMessage(t *testing.T) {
	backend, c, _ := setup(t)
	backend.Delay("/api/auth/me", time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Me(ctx)
	require.Error(t, err)
	assert.False(t, IsHTTP(err))
	assert.Equal(t, MsgTimeout, FriendlyMessage(err))
}

func TestConnectionRefusedAndBreaker(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url, BreakerFailures: 2, BreakerCooldown: time.Minute})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = c.Me(context.Background())
		require.Error(t, err)
		assert.Equal(t, MsgCannotConnect, FriendlyMessage(err))
	}
	_, err = c.Me(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "circuit breaker is open")
	assert.Equal(t, MsgCannotConnect, FriendlyMessage(err))
}

func TestDecodeErrorOnGarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()
	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgBadResponse, FriendlyMessage(err))
}

func TestOAuthURL(t *testing.T) {
	c, err := New(Options{BaseURL: "http://localhost:5000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/login/google", c.OAuthURL(" Google "))
}
