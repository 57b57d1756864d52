package devtools

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"integralcli/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*FakeBackend, *httptest.Server, *http.Client) {
	t.Helper()
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	b := NewFakeBackend(cat)
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return b, srv, &http.Client{Jar: jar}
}

func call(t *testing.T, c *http.Client, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	b, srv, c := newBackend(t)
	status, out := call(t, c, http.MethodGet, srv.URL+"/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not logged in", out["error"])

	status, _ = call(t, c, http.MethodPost, srv.URL+"/api/solver/solve", map[string]any{"integral": "x^2"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 1, b.Calls(http.MethodPost, "/api/solver/solve"))
}

func TestLoginSolveAndHistory(t *testing.T) {
	b, srv, c := newBackend(t)
	b.AddUser("Ada", "Lovelace", "ada@example.com", "password123")

	status, out := call(t, c, http.MethodPost, srv.URL+"/api/auth/login", map[string]any{"email": "ADA@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ada", out["user"].(map[string]any)["firstName"])

	status, out = call(t, c, http.MethodPost, srv.URL+"/api/solver/solve", map[string]any{"integral": "x^2", "solverType": "integral"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "x^3/3 + C", out["solution"])

	status, _ = call(t, c, http.MethodPost, srv.URL+"/api/solver/save", map[string]any{"input": "x^2", "solution": "x^3/3 + C", "solver_type": "integral"})
	require.Equal(t, http.StatusOK, status)

	status, out = call(t, c, http.MethodGet, srv.URL+"/api/solver/history?page=1&per_page=10", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, out["total"])

	bodies := b.Bodies(http.MethodPost, "/api/solver/solve")
	require.Len(t, bodies, 1)
	assert.Equal(t, "integral", bodies[0]["solverType"])
}

func TestSolveRejectsEmptyAndLong(t *testing.T) {
	b, srv, c := newBackend(t)
	b.AddUser("Ada", "Lovelace", "ada@example.com", "password123")
	call(t, c, http.MethodPost, srv.URL+"/api/auth/login", map[string]any{"email": "ada@example.com", "password": "password123"})

	status, out := call(t, c, http.MethodPost, srv.URL+"/api/solver/solve", map[string]any{"integral": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Expression required", out["error"])

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	status, out = call(t, c, http.MethodPost, srv.URL+"/api/solver/solve", map[string]any{"integral": string(long)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Expression too long", out["error"])
}

func TestPracticeSubmitAndGiveUp(t *testing.T) {
	b, srv, c := newBackend(t)
	b.AddUser("Ada", "Lovelace", "ada@example.com", "password123")
	call(t, c, http.MethodPost, srv.URL+"/api/auth/login", map[string]any{"email": "ada@example.com", "password": "password123"})

	status, out := call(t, c, http.MethodGet, srv.URL+"/api/practice/problems/2", nil)
	require.Equal(t, http.StatusOK, status)
	problem := out["problem"].(map[string]any)
	id := problem["id"]
	assert.EqualValues(t, 102, id)

	_, out = call(t, c, http.MethodPost, srv.URL+"/api/practice/submit-answer", map[string]any{"problem_id": id, "answer": "x"})
	assert.Equal(t, false, out["correct"])
	_, out = call(t, c, http.MethodPost, srv.URL+"/api/practice/submit-answer", map[string]any{"problem_id": id, "answer": "x^3/3 + C"})
	assert.Equal(t, true, out["correct"])
	assert.EqualValues(t, 2, out["attempts"])

	_, out = call(t, c, http.MethodPost, srv.URL+"/api/practice/give-up", map[string]any{"problem_id": 302, "problem_type": "polar"})
	assert.Equal(t, "Problem skipped", out["message"])
	_, hasLatex := out["correct_answer_latex"]
	assert.False(t, hasLatex)

	status, _ = call(t, c, http.MethodGet, srv.URL+"/api/practice/polar/problems/9", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestResetTokenIsSingleUse(t *testing.T) {
	b, srv, c := newBackend(t)
	b.AddUser("Ada", "Lovelace", "ada@example.com", "password123")
	token := b.IssueResetToken("ada@example.com")

	status, out := call(t, c, http.MethodPost, srv.URL+"/api/auth/verify-reset-token", map[string]any{"token": token})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["valid"])

	status, _ = call(t, c, http.MethodPost, srv.URL+"/api/auth/reset-password", map[string]any{"token": token, "newPassword": "newpassword1"})
	require.Equal(t, http.StatusOK, status)

	status, out = call(t, c, http.MethodPost, srv.URL+"/api/auth/reset-password", map[string]any{"token": token, "newPassword": "newpassword2"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or expired token", out["error"])

	status, _ = call(t, c, http.MethodPost, srv.URL+"/api/auth/login", map[string]any{"email": "ada@example.com", "password": "newpassword1"})
	assert.Equal(t, http.StatusOK, status)
}

func TestFailHookOverridesRoute(t *testing.T) {
	b, srv, c := newBackend(t)
	b.Fail("/api/auth/me", http.StatusInternalServerError, "boom")
	status, out := call(t, c, http.MethodGet, srv.URL+"/api/auth/me", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "boom", out["error"])

	b.Fail("/api/auth/me", 0, "")
	status, _ = call(t, c, http.MethodGet, srv.URL+"/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestChangePasswordRules(t *testing.T) {
	b, srv, c := newBackend(t)
	b.AddUser("Ada", "Lovelace", "ada@example.com", "password123")
	call(t, c, http.MethodPost, srv.URL+"/api/auth/login", map[string]any{"email": "ada@example.com", "password": "password123"})

	_, out := call(t, c, http.MethodPut, srv.URL+"/api/auth/change-password", map[string]any{"currentPassword": "wrong", "newPassword": "whatever1"})
	assert.Equal(t, "Current password is incorrect", out["error"])
	_, out = call(t, c, http.MethodPut, srv.URL+"/api/auth/change-password", map[string]any{"currentPassword": "password123", "newPassword": "password123"})
	assert.Equal(t, "New password must be different", out["error"])
	status, _ := call(t, c, http.MethodPut, srv.URL+"/api/auth/change-password", map[string]any{"currentPassword": "password123", "newPassword": "password456"})
	assert.Equal(t, http.StatusOK, status)
}
